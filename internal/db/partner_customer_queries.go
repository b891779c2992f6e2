package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const partnerCustomerColumns = `id, partner_id, customer_id, name, email, phone,
	email_normalized, phone_normalized, created_at, updated_at`

func collectPartnerCustomers(rows pgx.Rows, err error) ([]*PartnerCustomer, error) {
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByPos[PartnerCustomer])
}

const findPartnerCustomersByEmail = `
SELECT ` + partnerCustomerColumns + `
FROM partner_customers
WHERE email_normalized = $1
  AND ($2::uuid IS NULL OR partner_id = $2)
ORDER BY created_at, id
`

type FindPartnerCustomersByEmailParams struct {
	Email     string
	PartnerID pgtype.UUID
}

func (q *Queries) FindPartnerCustomersByEmail(ctx context.Context, arg FindPartnerCustomersByEmailParams) ([]*PartnerCustomer, error) {
	return collectPartnerCustomers(q.db.Query(ctx, findPartnerCustomersByEmail, arg.Email, arg.PartnerID))
}

const findPartnerCustomersByPhone = `
SELECT ` + partnerCustomerColumns + `
FROM partner_customers
WHERE phone_normalized = $1
  AND ($2::uuid IS NULL OR partner_id = $2)
ORDER BY created_at, id
`

type FindPartnerCustomersByPhoneParams struct {
	Phone     string
	PartnerID pgtype.UUID
}

func (q *Queries) FindPartnerCustomersByPhone(ctx context.Context, arg FindPartnerCustomersByPhoneParams) ([]*PartnerCustomer, error) {
	return collectPartnerCustomers(q.db.Query(ctx, findPartnerCustomersByPhone, arg.Phone, arg.PartnerID))
}

const listPartnerCustomersPage = `
SELECT ` + partnerCustomerColumns + `
FROM partner_customers
WHERE phone IS NOT NULL
  AND ($1::uuid IS NULL OR partner_id = $1)
ORDER BY created_at, id
LIMIT $2
`

type ListPartnerCustomersPageParams struct {
	PartnerID pgtype.UUID
	Limit     int32
}

func (q *Queries) ListPartnerCustomersPage(ctx context.Context, arg ListPartnerCustomersPageParams) ([]*PartnerCustomer, error) {
	return collectPartnerCustomers(q.db.Query(ctx, listPartnerCustomersPage, arg.PartnerID, arg.Limit))
}

const searchPartnerCustomersByName = `
SELECT ` + partnerCustomerColumns + `
FROM partner_customers
WHERE name ILIKE $1
  AND ($2::uuid IS NULL OR partner_id = $2)
ORDER BY created_at, id
LIMIT $3
`

type SearchPartnerCustomersByNameParams struct {
	Pattern   string
	PartnerID pgtype.UUID
	Limit     int32
}

func (q *Queries) SearchPartnerCustomersByName(ctx context.Context, arg SearchPartnerCustomersByNameParams) ([]*PartnerCustomer, error) {
	return collectPartnerCustomers(q.db.Query(ctx, searchPartnerCustomersByName, arg.Pattern, arg.PartnerID, arg.Limit))
}

const listPartnerCustomersByIdentity = `
SELECT ` + partnerCustomerColumns + `
FROM partner_customers
WHERE id = $1 OR customer_id = $1
ORDER BY created_at DESC, id
LIMIT $2
`

type ListPartnerCustomersByIdentityParams struct {
	ID    pgtype.UUID
	Limit int32
}

func (q *Queries) ListPartnerCustomersByIdentity(ctx context.Context, arg ListPartnerCustomersByIdentityParams) ([]*PartnerCustomer, error) {
	return collectPartnerCustomers(q.db.Query(ctx, listPartnerCustomersByIdentity, arg.ID, arg.Limit))
}

// Rows normally get normalized columns from the write trigger; these are
// rows loaded with triggers disabled.
const listPartnerCustomersMissingNormalized = `
SELECT ` + partnerCustomerColumns + `
FROM partner_customers
WHERE (email IS NOT NULL AND email_normalized IS NULL)
   OR (phone IS NOT NULL AND phone_normalized IS NULL)
ORDER BY created_at, id
LIMIT $1
`

func (q *Queries) ListPartnerCustomersMissingNormalized(ctx context.Context, limit int32) ([]*PartnerCustomer, error) {
	return collectPartnerCustomers(q.db.Query(ctx, listPartnerCustomersMissingNormalized, limit))
}

const updatePartnerCustomerNormalized = `
UPDATE partner_customers
SET email_normalized = $2, phone_normalized = $3, updated_at = NOW()
WHERE id = $1
`

type UpdatePartnerCustomerNormalizedParams struct {
	ID              pgtype.UUID
	EmailNormalized pgtype.Text
	PhoneNormalized pgtype.Text
}

func (q *Queries) UpdatePartnerCustomerNormalized(ctx context.Context, arg UpdatePartnerCustomerNormalizedParams) error {
	_, err := q.db.Exec(ctx, updatePartnerCustomerNormalized, arg.ID, arg.EmailNormalized, arg.PhoneNormalized)
	return err
}
