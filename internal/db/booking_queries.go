package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const bookingColumns = `id, booking_code, partner_id, customer_id, customer_name,
	customer_email, customer_phone, customer_email_normalized, customer_phone_normalized,
	package_id, package_name, trip_date, total_amount, status, merged_into_id,
	created_at, updated_at`

func collectBookings(rows pgx.Rows, err error) ([]*Booking, error) {
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByPos[Booking])
}

func collectBooking(rows pgx.Rows, err error) (*Booking, error) {
	if err != nil {
		return nil, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByPos[Booking])
}

const getBooking = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE id = $1
`

func (q *Queries) GetBooking(ctx context.Context, id pgtype.UUID) (*Booking, error) {
	return collectBooking(q.db.Query(ctx, getBooking, id))
}

const getBookingForUpdate = getBooking + `FOR UPDATE
`

func (q *Queries) GetBookingForUpdate(ctx context.Context, id pgtype.UUID) (*Booking, error) {
	return collectBooking(q.db.Query(ctx, getBookingForUpdate, id))
}

const findBookingsByEmail = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE customer_email_normalized = $1
  AND merged_into_id IS NULL
  AND ($2::uuid IS NULL OR partner_id = $2)
ORDER BY created_at, id
`

type FindBookingsByEmailParams struct {
	Email     string
	PartnerID pgtype.UUID
}

func (q *Queries) FindBookingsByEmail(ctx context.Context, arg FindBookingsByEmailParams) ([]*Booking, error) {
	return collectBookings(q.db.Query(ctx, findBookingsByEmail, arg.Email, arg.PartnerID))
}

const findBookingsByPhone = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE customer_phone_normalized = $1
  AND merged_into_id IS NULL
  AND ($2::uuid IS NULL OR partner_id = $2)
ORDER BY created_at, id
`

type FindBookingsByPhoneParams struct {
	Phone     string
	PartnerID pgtype.UUID
}

func (q *Queries) FindBookingsByPhone(ctx context.Context, arg FindBookingsByPhoneParams) ([]*Booking, error) {
	return collectBookings(q.db.Query(ctx, findBookingsByPhone, arg.Phone, arg.PartnerID))
}

const listBookingsPage = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE customer_phone IS NOT NULL
  AND merged_into_id IS NULL
  AND ($1::uuid IS NULL OR partner_id = $1)
ORDER BY created_at, id
LIMIT $2
`

type ListBookingsPageParams struct {
	PartnerID pgtype.UUID
	Limit     int32
}

func (q *Queries) ListBookingsPage(ctx context.Context, arg ListBookingsPageParams) ([]*Booking, error) {
	return collectBookings(q.db.Query(ctx, listBookingsPage, arg.PartnerID, arg.Limit))
}

const searchBookingsByName = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE customer_name ILIKE $1
  AND merged_into_id IS NULL
  AND ($2::uuid IS NULL OR partner_id = $2)
ORDER BY created_at, id
LIMIT $3
`

type SearchBookingsByNameParams struct {
	Pattern   string
	PartnerID pgtype.UUID
	Limit     int32
}

func (q *Queries) SearchBookingsByName(ctx context.Context, arg SearchBookingsByNameParams) ([]*Booking, error) {
	return collectBookings(q.db.Query(ctx, searchBookingsByName, arg.Pattern, arg.PartnerID, arg.Limit))
}

const listBookingsByCustomer = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE customer_id = $1
  AND merged_into_id IS NULL
ORDER BY created_at DESC, id
LIMIT $2
`

type ListBookingsByCustomerParams struct {
	CustomerID pgtype.UUID
	Limit      int32
}

func (q *Queries) ListBookingsByCustomer(ctx context.Context, arg ListBookingsByCustomerParams) ([]*Booking, error) {
	return collectBookings(q.db.Query(ctx, listBookingsByCustomer, arg.CustomerID, arg.Limit))
}

const listBookingsByEmail = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE customer_email_normalized = $1
  AND merged_into_id IS NULL
ORDER BY created_at DESC, id
LIMIT $2
`

type ListBookingsByEmailParams struct {
	Email string
	Limit int32
}

func (q *Queries) ListBookingsByEmail(ctx context.Context, arg ListBookingsByEmailParams) ([]*Booking, error) {
	return collectBookings(q.db.Query(ctx, listBookingsByEmail, arg.Email, arg.Limit))
}

const listBookingsByPhone = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE customer_phone_normalized = $1
  AND merged_into_id IS NULL
ORDER BY created_at DESC, id
LIMIT $2
`

type ListBookingsByPhoneParams struct {
	Phone string
	Limit int32
}

func (q *Queries) ListBookingsByPhone(ctx context.Context, arg ListBookingsByPhoneParams) ([]*Booking, error) {
	return collectBookings(q.db.Query(ctx, listBookingsByPhone, arg.Phone, arg.Limit))
}

const markBookingMerged = `
UPDATE bookings
SET status = 'merged', merged_into_id = $2, updated_at = NOW()
WHERE id = $1
RETURNING ` + bookingColumns

type MarkBookingMergedParams struct {
	ID           pgtype.UUID
	MergedIntoID pgtype.UUID
}

func (q *Queries) MarkBookingMerged(ctx context.Context, arg MarkBookingMergedParams) (*Booking, error) {
	return collectBooking(q.db.Query(ctx, markBookingMerged, arg.ID, arg.MergedIntoID))
}

const setBookingCustomer = `
UPDATE bookings
SET customer_id = $2, updated_at = NOW()
WHERE id = $1
RETURNING ` + bookingColumns

type SetBookingCustomerParams struct {
	ID         pgtype.UUID
	CustomerID pgtype.UUID
}

func (q *Queries) SetBookingCustomer(ctx context.Context, arg SetBookingCustomerParams) (*Booking, error) {
	return collectBooking(q.db.Query(ctx, setBookingCustomer, arg.ID, arg.CustomerID))
}

const linkBookingsToCustomer = `
UPDATE bookings
SET customer_id = $1, updated_at = NOW()
WHERE id = ANY($2::uuid[])
  AND customer_id IS NULL
  AND merged_into_id IS NULL
`

type LinkBookingsToCustomerParams struct {
	CustomerID pgtype.UUID
	IDs        []pgtype.UUID
}

func (q *Queries) LinkBookingsToCustomer(ctx context.Context, arg LinkBookingsToCustomerParams) (int64, error) {
	tag, err := q.db.Exec(ctx, linkBookingsToCustomer, arg.CustomerID, arg.IDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Rows normally get normalized columns from the write trigger; these are
// rows loaded with triggers disabled.
const listBookingsMissingNormalized = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE (customer_email IS NOT NULL AND customer_email_normalized IS NULL)
   OR (customer_phone IS NOT NULL AND customer_phone_normalized IS NULL)
ORDER BY created_at, id
LIMIT $1
`

func (q *Queries) ListBookingsMissingNormalized(ctx context.Context, limit int32) ([]*Booking, error) {
	return collectBookings(q.db.Query(ctx, listBookingsMissingNormalized, limit))
}

const updateBookingNormalized = `
UPDATE bookings
SET customer_email_normalized = $2, customer_phone_normalized = $3, updated_at = NOW()
WHERE id = $1
`

type UpdateBookingNormalizedParams struct {
	ID              pgtype.UUID
	EmailNormalized pgtype.Text
	PhoneNormalized pgtype.Text
}

func (q *Queries) UpdateBookingNormalized(ctx context.Context, arg UpdateBookingNormalizedParams) error {
	_, err := q.db.Exec(ctx, updateBookingNormalized, arg.ID, arg.EmailNormalized, arg.PhoneNormalized)
	return err
}
