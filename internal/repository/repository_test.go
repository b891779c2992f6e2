package repository

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"travel-crm/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQuerier implements the subset of db.Querier exercised here; other
// methods panic through the nil embedded interface.
type fakeQuerier struct {
	db.Querier

	partnerRows  []*db.PartnerCustomer
	bookingRows  []*db.Booking
	booking      *db.Booking
	err          error
	lastPattern  string
	lastEmail    string
	lastPartner  pgtype.UUID
	partnerNorms []db.UpdatePartnerCustomerNormalizedParams
	bookingNorms []db.UpdateBookingNormalizedParams
	updateErr    error
}

func (f *fakeQuerier) FindPartnerCustomersByEmail(ctx context.Context, arg db.FindPartnerCustomersByEmailParams) ([]*db.PartnerCustomer, error) {
	f.lastEmail, f.lastPartner = arg.Email, arg.PartnerID
	return f.partnerRows, f.err
}

func (f *fakeQuerier) SearchPartnerCustomersByName(ctx context.Context, arg db.SearchPartnerCustomersByNameParams) ([]*db.PartnerCustomer, error) {
	f.lastPattern = arg.Pattern
	return f.partnerRows, f.err
}

func (f *fakeQuerier) ListPartnerCustomersMissingNormalized(ctx context.Context, limit int32) ([]*db.PartnerCustomer, error) {
	return f.partnerRows, f.err
}

func (f *fakeQuerier) UpdatePartnerCustomerNormalized(ctx context.Context, arg db.UpdatePartnerCustomerNormalizedParams) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.partnerNorms = append(f.partnerNorms, arg)
	return nil
}

func (f *fakeQuerier) GetBooking(ctx context.Context, id pgtype.UUID) (*db.Booking, error) {
	return f.booking, f.err
}

func (f *fakeQuerier) FindBookingsByEmail(ctx context.Context, arg db.FindBookingsByEmailParams) ([]*db.Booking, error) {
	f.lastEmail, f.lastPartner = arg.Email, arg.PartnerID
	return f.bookingRows, f.err
}

func (f *fakeQuerier) ListBookingsMissingNormalized(ctx context.Context, limit int32) ([]*db.Booking, error) {
	return f.bookingRows, f.err
}

func (f *fakeQuerier) UpdateBookingNormalized(ctx context.Context, arg db.UpdateBookingNormalizedParams) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.bookingNorms = append(f.bookingNorms, arg)
	return nil
}

func pgID() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.New(), Valid: true}
}

func text(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}

func TestPartnerCustomerRepository_SkipsInvalidRows(t *testing.T) {
	valid := &db.PartnerCustomer{ID: pgID(), PartnerID: pgID(), Name: text("Ani"), Email: text("ani@example.com")}
	noPartner := &db.PartnerCustomer{ID: pgID(), Name: text("Budi")}
	noName := &db.PartnerCustomer{ID: pgID(), PartnerID: pgID()}
	q := &fakeQuerier{partnerRows: []*db.PartnerCustomer{valid, noPartner, noName}}
	repo := NewPartnerCustomerRepository(q)

	partnerID := uuid.New()
	customers, err := repo.FindByEmail(context.Background(), "ani@example.com", &partnerID)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, uuid.UUID(valid.ID.Bytes), customers[0].ID)
	assert.Equal(t, "ani@example.com", customers[0].Email)
	assert.Nil(t, customers[0].CustomerID)

	assert.Equal(t, "ani@example.com", q.lastEmail)
	assert.True(t, q.lastPartner.Valid)
	assert.Equal(t, partnerID, uuid.UUID(q.lastPartner.Bytes))
}

func TestPartnerCustomerRepository_SearchByNameEscapesPattern(t *testing.T) {
	q := &fakeQuerier{}
	repo := NewPartnerCustomerRepository(q)

	_, err := repo.SearchByName(context.Background(), " 100%_sure ", nil, 20)
	require.NoError(t, err)
	assert.Equal(t, `%100\%\_sure%`, q.lastPattern)
}

func TestPartnerCustomerRepository_PropagatesError(t *testing.T) {
	q := &fakeQuerier{err: errors.New("connection reset")}
	repo := NewPartnerCustomerRepository(q)

	customers, err := repo.FindByEmail(context.Background(), "ani@example.com", nil)
	assert.Error(t, err)
	assert.Nil(t, customers)
	assert.False(t, q.lastPartner.Valid)
}

func TestPartnerCustomerRepository_NormalizeMissing(t *testing.T) {
	withBoth := &db.PartnerCustomer{ID: pgID(), PartnerID: pgID(), Name: text("Ani"), Email: text(" ANI@Example.com "), Phone: text("+62 812-345-678")}
	phoneOnly := &db.PartnerCustomer{ID: pgID(), PartnerID: pgID(), Name: text("Budi"), Phone: text("0813 111")}
	q := &fakeQuerier{partnerRows: []*db.PartnerCustomer{withBoth, phoneOnly}}
	repo := NewPartnerCustomerRepository(q)

	updated, err := repo.NormalizeMissing(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	require.Len(t, q.partnerNorms, 2)

	assert.Equal(t, withBoth.ID, q.partnerNorms[0].ID)
	assert.Equal(t, text("ani@example.com"), q.partnerNorms[0].EmailNormalized)
	assert.Equal(t, text("812345678"), q.partnerNorms[0].PhoneNormalized)

	assert.False(t, q.partnerNorms[1].EmailNormalized.Valid)
	assert.Equal(t, text("813111"), q.partnerNorms[1].PhoneNormalized)
}

func TestPartnerCustomerRepository_NormalizeMissingStopsOnError(t *testing.T) {
	row := &db.PartnerCustomer{ID: pgID(), PartnerID: pgID(), Name: text("Ani"), Email: text("ani@example.com")}
	q := &fakeQuerier{partnerRows: []*db.PartnerCustomer{row, row}, updateErr: errors.New("lock timeout")}
	repo := NewPartnerCustomerRepository(q)

	updated, err := repo.NormalizeMissing(context.Background(), 500)
	assert.Error(t, err)
	assert.Equal(t, 0, updated)
}

func TestBookingRepository_GetBookingNotFound(t *testing.T) {
	repo := NewBookingRepository(&fakeQuerier{err: pgx.ErrNoRows})

	booking, err := repo.GetBooking(context.Background(), uuid.New())
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Nil(t, booking)
}

func TestBookingRepository_GetBookingConverts(t *testing.T) {
	customer := pgID()
	trip := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	row := &db.Booking{
		ID:            pgID(),
		BookingCode:   text("TRV-001"),
		CustomerID:    customer,
		CustomerName:  text("Ani"),
		CustomerEmail: text("ani@example.com"),
		TripDate:      pgtype.Date{Time: trip, Valid: true},
		TotalAmount:   pgtype.Numeric{Int: big.NewInt(350000000), Exp: -2, Valid: true},
		Status:        text("confirmed"),
	}
	repo := NewBookingRepository(&fakeQuerier{booking: row})

	booking, err := repo.GetBooking(context.Background(), uuid.UUID(row.ID.Bytes))
	require.NoError(t, err)
	assert.Equal(t, "TRV-001", booking.BookingCode)
	require.NotNil(t, booking.CustomerID)
	assert.Equal(t, uuid.UUID(customer.Bytes), *booking.CustomerID)
	assert.Nil(t, booking.PartnerID)
	assert.Equal(t, BookingStatusConfirmed, booking.Status)
	require.NotNil(t, booking.TotalAmount)
	assert.Equal(t, "3500000.00", booking.TotalAmount.StringFixed(2))
	require.NotNil(t, booking.TripDate)
	assert.True(t, trip.Equal(*booking.TripDate))
}

func TestBookingRepository_DefaultsStatus(t *testing.T) {
	repo := NewBookingRepository(&fakeQuerier{bookingRows: []*db.Booking{{ID: pgID()}, {}}})

	bookings, err := repo.FindByEmail(context.Background(), "ani@example.com", nil)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, BookingStatusPending, bookings[0].Status)
	assert.Nil(t, bookings[0].TotalAmount)
}

func TestBookingRepository_NormalizeMissing(t *testing.T) {
	row := &db.Booking{ID: pgID(), CustomerEmail: text("Rina@Example.COM"), CustomerPhone: text("62-813-999")}
	q := &fakeQuerier{bookingRows: []*db.Booking{row}}
	repo := NewBookingRepository(q)

	updated, err := repo.NormalizeMissing(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	require.Len(t, q.bookingNorms, 1)
	assert.Equal(t, text("rina@example.com"), q.bookingNorms[0].EmailNormalized)
	assert.Equal(t, text("813999"), q.bookingNorms[0].PhoneNormalized)
}
