package repository

import (
	"context"
	"time"

	"travel-crm/internal/db"
	"travel-crm/internal/logger"
	"travel-crm/internal/matching"

	"github.com/google/uuid"
)

// PartnerCustomer is a contact record owned by one partner tenant
type PartnerCustomer struct {
	ID         uuid.UUID  `json:"id"`
	PartnerID  uuid.UUID  `json:"partner_id"`
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type PartnerCustomerRepository struct {
	queries db.Querier
}

func NewPartnerCustomerRepository(queries db.Querier) *PartnerCustomerRepository {
	return &PartnerCustomerRepository{queries: queries}
}

// convertDbPartnerCustomer maps a row to the domain type, rejecting rows
// without an id, partner or name.
func convertDbPartnerCustomer(row *db.PartnerCustomer) (PartnerCustomer, error) {
	if !row.ID.Valid {
		return PartnerCustomer{}, invalidRow(TablePartnerCustomers, "id")
	}
	if !row.PartnerID.Valid {
		return PartnerCustomer{}, invalidRow(TablePartnerCustomers, "partner_id")
	}
	if !row.Name.Valid || row.Name.String == "" {
		return PartnerCustomer{}, invalidRow(TablePartnerCustomers, "name")
	}

	return PartnerCustomer{
		ID:         uuid.UUID(row.ID.Bytes),
		PartnerID:  uuid.UUID(row.PartnerID.Bytes),
		CustomerID: pgUUIDPtr(row.CustomerID),
		Name:       row.Name.String,
		Email:      textValue(row.Email),
		Phone:      textValue(row.Phone),
		CreatedAt:  timestamptzValue(row.CreatedAt),
	}, nil
}

func convertDbPartnerCustomers(rows []*db.PartnerCustomer) []PartnerCustomer {
	customers := make([]PartnerCustomer, 0, len(rows))
	for _, row := range rows {
		customer, err := convertDbPartnerCustomer(row)
		if err != nil {
			logger.Warn().Err(err).Msg("skipping partner customer row")
			continue
		}
		customers = append(customers, customer)
	}
	return customers
}

// FindByEmail returns partner customers whose normalized email equals email
func (r *PartnerCustomerRepository) FindByEmail(ctx context.Context, email string, partnerID *uuid.UUID) ([]PartnerCustomer, error) {
	rows, err := r.queries.FindPartnerCustomersByEmail(ctx, db.FindPartnerCustomersByEmailParams{
		Email:     email,
		PartnerID: optionalPgUUID(partnerID),
	})
	if err != nil {
		return nil, err
	}
	return convertDbPartnerCustomers(rows), nil
}

// FindByPhone returns partner customers whose normalized phone equals phone
func (r *PartnerCustomerRepository) FindByPhone(ctx context.Context, phone string, partnerID *uuid.UUID) ([]PartnerCustomer, error) {
	rows, err := r.queries.FindPartnerCustomersByPhone(ctx, db.FindPartnerCustomersByPhoneParams{
		Phone:     phone,
		PartnerID: optionalPgUUID(partnerID),
	})
	if err != nil {
		return nil, err
	}
	return convertDbPartnerCustomers(rows), nil
}

// ListWithPhone returns the first limit partner customers that have a phone
func (r *PartnerCustomerRepository) ListWithPhone(ctx context.Context, partnerID *uuid.UUID, limit int32) ([]PartnerCustomer, error) {
	rows, err := r.queries.ListPartnerCustomersPage(ctx, db.ListPartnerCustomersPageParams{
		PartnerID: optionalPgUUID(partnerID),
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	return convertDbPartnerCustomers(rows), nil
}

// SearchByName returns up to limit partner customers whose name contains name
func (r *PartnerCustomerRepository) SearchByName(ctx context.Context, name string, partnerID *uuid.UUID, limit int32) ([]PartnerCustomer, error) {
	rows, err := r.queries.SearchPartnerCustomersByName(ctx, db.SearchPartnerCustomersByNameParams{
		Pattern:   matching.ContainsPattern(name),
		PartnerID: optionalPgUUID(partnerID),
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	return convertDbPartnerCustomers(rows), nil
}

// ListByIdentity returns partner customers whose id or linked customer id equals id
func (r *PartnerCustomerRepository) ListByIdentity(ctx context.Context, id uuid.UUID, limit int32) ([]PartnerCustomer, error) {
	rows, err := r.queries.ListPartnerCustomersByIdentity(ctx, db.ListPartnerCustomersByIdentityParams{
		ID:    uuidToPgUUID(id),
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	return convertDbPartnerCustomers(rows), nil
}

// NormalizeMissing fills normalized contact columns for up to limit rows that
// lack them and returns how many rows were updated.
func (r *PartnerCustomerRepository) NormalizeMissing(ctx context.Context, limit int32) (int, error) {
	rows, err := r.queries.ListPartnerCustomersMissingNormalized(ctx, limit)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, row := range rows {
		err := r.queries.UpdatePartnerCustomerNormalized(ctx, db.UpdatePartnerCustomerNormalizedParams{
			ID:              row.ID,
			EmailNormalized: normalizedText(row.Email, matching.NormalizeEmail),
			PhoneNormalized: normalizedText(row.Phone, matching.NormalizePhone),
		})
		if err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
