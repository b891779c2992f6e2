package repository

import (
	"context"
	"errors"
	"time"

	"travel-crm/internal/db"
	"travel-crm/internal/logger"
	"travel-crm/internal/matching"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusMerged    BookingStatus = "merged"
)

// Booking is a purchase record carrying denormalized customer contact fields
type Booking struct {
	ID            uuid.UUID        `json:"id"`
	BookingCode   string           `json:"booking_code"`
	PartnerID     *uuid.UUID       `json:"partner_id,omitempty"`
	CustomerID    *uuid.UUID       `json:"customer_id,omitempty"`
	CustomerName  string           `json:"customer_name,omitempty"`
	CustomerEmail string           `json:"customer_email,omitempty"`
	CustomerPhone string           `json:"customer_phone,omitempty"`
	PackageID     *uuid.UUID       `json:"package_id,omitempty"`
	PackageName   string           `json:"package_name,omitempty"`
	TripDate      *time.Time       `json:"trip_date,omitempty"`
	TotalAmount   *decimal.Decimal `json:"total_amount,omitempty"`
	Status        BookingStatus    `json:"status"`
	MergedIntoID  *uuid.UUID       `json:"merged_into_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type BookingRepository struct {
	queries db.Querier
}

func NewBookingRepository(queries db.Querier) *BookingRepository {
	return &BookingRepository{queries: queries}
}

// convertDbBooking maps a row to the domain type, rejecting rows without an id
func convertDbBooking(row *db.Booking) (Booking, error) {
	if !row.ID.Valid {
		return Booking{}, invalidRow(TableBookings, "id")
	}

	booking := Booking{
		ID:            uuid.UUID(row.ID.Bytes),
		BookingCode:   textValue(row.BookingCode),
		PartnerID:     pgUUIDPtr(row.PartnerID),
		CustomerID:    pgUUIDPtr(row.CustomerID),
		CustomerName:  textValue(row.CustomerName),
		CustomerEmail: textValue(row.CustomerEmail),
		CustomerPhone: textValue(row.CustomerPhone),
		PackageID:     pgUUIDPtr(row.PackageID),
		PackageName:   textValue(row.PackageName),
		TripDate:      dateToTimePtr(row.TripDate),
		TotalAmount:   numericToDecimal(row.TotalAmount),
		Status:        BookingStatus(textValue(row.Status)),
		MergedIntoID:  pgUUIDPtr(row.MergedIntoID),
		CreatedAt:     timestamptzValue(row.CreatedAt),
		UpdatedAt:     timestamptzValue(row.UpdatedAt),
	}
	if booking.Status == "" {
		booking.Status = BookingStatusPending
	}

	return booking, nil
}

func convertDbBookings(rows []*db.Booking) []Booking {
	bookings := make([]Booking, 0, len(rows))
	for _, row := range rows {
		booking, err := convertDbBooking(row)
		if err != nil {
			logger.Warn().Err(err).Msg("skipping booking row")
			continue
		}
		bookings = append(bookings, booking)
	}
	return bookings
}

func convertSingleBooking(row *db.Booking, err error) (*Booking, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, err
	}
	booking, err := convertDbBooking(row)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetBooking retrieves a booking by ID
func (r *BookingRepository) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return convertSingleBooking(r.queries.GetBooking(ctx, uuidToPgUUID(id)))
}

// GetBookingForUpdate retrieves a booking by ID and locks its row; only
// meaningful inside a transaction
func (r *BookingRepository) GetBookingForUpdate(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return convertSingleBooking(r.queries.GetBookingForUpdate(ctx, uuidToPgUUID(id)))
}

// FindByEmail returns unmerged bookings whose normalized customer email equals email
func (r *BookingRepository) FindByEmail(ctx context.Context, email string, partnerID *uuid.UUID) ([]Booking, error) {
	rows, err := r.queries.FindBookingsByEmail(ctx, db.FindBookingsByEmailParams{
		Email:     email,
		PartnerID: optionalPgUUID(partnerID),
	})
	if err != nil {
		return nil, err
	}
	return convertDbBookings(rows), nil
}

// FindByPhone returns unmerged bookings whose normalized customer phone equals phone
func (r *BookingRepository) FindByPhone(ctx context.Context, phone string, partnerID *uuid.UUID) ([]Booking, error) {
	rows, err := r.queries.FindBookingsByPhone(ctx, db.FindBookingsByPhoneParams{
		Phone:     phone,
		PartnerID: optionalPgUUID(partnerID),
	})
	if err != nil {
		return nil, err
	}
	return convertDbBookings(rows), nil
}

// ListWithPhone returns the first limit unmerged bookings that carry a customer phone
func (r *BookingRepository) ListWithPhone(ctx context.Context, partnerID *uuid.UUID, limit int32) ([]Booking, error) {
	rows, err := r.queries.ListBookingsPage(ctx, db.ListBookingsPageParams{
		PartnerID: optionalPgUUID(partnerID),
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	return convertDbBookings(rows), nil
}

// SearchByName returns up to limit unmerged bookings whose customer name contains name
func (r *BookingRepository) SearchByName(ctx context.Context, name string, partnerID *uuid.UUID, limit int32) ([]Booking, error) {
	rows, err := r.queries.SearchBookingsByName(ctx, db.SearchBookingsByNameParams{
		Pattern:   matching.ContainsPattern(name),
		PartnerID: optionalPgUUID(partnerID),
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	return convertDbBookings(rows), nil
}

// ListByCustomer returns the newest limit bookings linked to a customer identity
func (r *BookingRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int32) ([]Booking, error) {
	rows, err := r.queries.ListBookingsByCustomer(ctx, db.ListBookingsByCustomerParams{
		CustomerID: uuidToPgUUID(customerID),
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	return convertDbBookings(rows), nil
}

// ListByEmail returns the newest limit bookings with the given normalized email
func (r *BookingRepository) ListByEmail(ctx context.Context, email string, limit int32) ([]Booking, error) {
	rows, err := r.queries.ListBookingsByEmail(ctx, db.ListBookingsByEmailParams{
		Email: email,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	return convertDbBookings(rows), nil
}

// ListByPhone returns the newest limit bookings with the given normalized phone
func (r *BookingRepository) ListByPhone(ctx context.Context, phone string, limit int32) ([]Booking, error) {
	rows, err := r.queries.ListBookingsByPhone(ctx, db.ListBookingsByPhoneParams{
		Phone: phone,
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	return convertDbBookings(rows), nil
}

// MarkMerged marks a booking as merged into another booking
func (r *BookingRepository) MarkMerged(ctx context.Context, id, intoID uuid.UUID) (*Booking, error) {
	return convertSingleBooking(r.queries.MarkBookingMerged(ctx, db.MarkBookingMergedParams{
		ID:           uuidToPgUUID(id),
		MergedIntoID: uuidToPgUUID(intoID),
	}))
}

// SetCustomer sets the customer identity of a booking
func (r *BookingRepository) SetCustomer(ctx context.Context, id, customerID uuid.UUID) (*Booking, error) {
	return convertSingleBooking(r.queries.SetBookingCustomer(ctx, db.SetBookingCustomerParams{
		ID:         uuidToPgUUID(id),
		CustomerID: uuidToPgUUID(customerID),
	}))
}

// LinkToCustomer links unlinked, unmerged bookings to a customer identity and
// returns how many bookings changed
func (r *BookingRepository) LinkToCustomer(ctx context.Context, customerID uuid.UUID, bookingIDs []uuid.UUID) (int64, error) {
	ids := make([]pgtype.UUID, len(bookingIDs))
	for i, id := range bookingIDs {
		ids[i] = uuidToPgUUID(id)
	}
	return r.queries.LinkBookingsToCustomer(ctx, db.LinkBookingsToCustomerParams{
		CustomerID: uuidToPgUUID(customerID),
		IDs:        ids,
	})
}

// NormalizeMissing fills normalized contact columns for up to limit bookings
// that lack them and returns how many rows were updated.
func (r *BookingRepository) NormalizeMissing(ctx context.Context, limit int32) (int, error) {
	rows, err := r.queries.ListBookingsMissingNormalized(ctx, limit)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, row := range rows {
		err := r.queries.UpdateBookingNormalized(ctx, db.UpdateBookingNormalizedParams{
			ID:              row.ID,
			EmailNormalized: normalizedText(row.CustomerEmail, matching.NormalizeEmail),
			PhoneNormalized: normalizedText(row.CustomerPhone, matching.NormalizePhone),
		})
		if err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
