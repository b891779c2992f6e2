package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"travel-crm/internal/db"
	"travel-crm/internal/logger"
	"travel-crm/internal/repository"

	"github.com/google/uuid"
)

// ErrMergeInvalid is returned when two bookings cannot be merged
var ErrMergeInvalid = errors.New("bookings cannot be merged")

// MergePreview describes a proposed merge of source into target
type MergePreview struct {
	Source   *repository.Booking `json:"source,omitempty"`
	Target   *repository.Booking `json:"target,omitempty"`
	CanMerge bool                `json:"can_merge"`
	Problems []string            `json:"problems"`
}

// BookingStore is the booking data access used by merges
type BookingStore interface {
	GetBooking(ctx context.Context, id uuid.UUID) (*repository.Booking, error)
	GetBookingForUpdate(ctx context.Context, id uuid.UUID) (*repository.Booking, error)
	MarkMerged(ctx context.Context, id, intoID uuid.UUID) (*repository.Booking, error)
	SetCustomer(ctx context.Context, id, customerID uuid.UUID) (*repository.Booking, error)
	LinkToCustomer(ctx context.Context, customerID uuid.UUID, bookingIDs []uuid.UUID) (int64, error)
}

// txRunner runs fn with a BookingStore bound to one transaction
type txRunner func(ctx context.Context, fn func(store BookingStore) error) error

type BookingMergeService struct {
	bookings BookingStore
	inTx     txRunner
}

func NewBookingMergeService(database *db.Database) *BookingMergeService {
	return &BookingMergeService{
		bookings: repository.NewBookingRepository(database.Queries),
		inTx: func(ctx context.Context, fn func(store BookingStore) error) error {
			return database.InTx(ctx, func(q *db.Queries) error {
				return fn(repository.NewBookingRepository(q))
			})
		},
	}
}

// PreviewMerge loads both bookings and reports whether source can be merged
// into target. A missing booking is reported as a problem, not an error.
func (s *BookingMergeService) PreviewMerge(ctx context.Context, sourceID, targetID uuid.UUID) (*MergePreview, error) {
	source, err := loadOptional(ctx, s.bookings.GetBooking, sourceID)
	if err != nil {
		return nil, err
	}
	target, err := loadOptional(ctx, s.bookings.GetBooking, targetID)
	if err != nil {
		return nil, err
	}
	return buildPreview(sourceID, targetID, source, target), nil
}

// MergeBookings merges source into target inside a transaction and returns the
// updated target. Both rows are locked and revalidated before any write.
func (s *BookingMergeService) MergeBookings(ctx context.Context, sourceID, targetID uuid.UUID) (*repository.Booking, error) {
	var merged *repository.Booking

	err := s.inTx(ctx, func(store BookingStore) error {
		source, err := loadOptional(ctx, store.GetBookingForUpdate, sourceID)
		if err != nil {
			return err
		}
		target, err := loadOptional(ctx, store.GetBookingForUpdate, targetID)
		if err != nil {
			return err
		}

		preview := buildPreview(sourceID, targetID, source, target)
		if !preview.CanMerge {
			return fmt.Errorf("%w: %s", ErrMergeInvalid, strings.Join(preview.Problems, "; "))
		}

		if _, err := store.MarkMerged(ctx, source.ID, target.ID); err != nil {
			return fmt.Errorf("failed to mark booking %s merged: %w", source.ID, err)
		}

		merged = target
		if target.CustomerID == nil && source.CustomerID != nil {
			merged, err = store.SetCustomer(ctx, target.ID, *source.CustomerID)
			if err != nil {
				return fmt.Errorf("failed to carry customer onto booking %s: %w", target.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("source_id", sourceID.String()).
		Str("target_id", targetID.String()).
		Msg("bookings merged")

	return merged, nil
}

// LinkBookingsToCustomer records an identity resolution by setting the customer
// on bookings that have none. Merged or already linked bookings are left alone.
func (s *BookingMergeService) LinkBookingsToCustomer(ctx context.Context, customerID uuid.UUID, bookingIDs []uuid.UUID) (int64, error) {
	if len(bookingIDs) == 0 {
		return 0, nil
	}

	linked, err := s.bookings.LinkToCustomer(ctx, customerID, bookingIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to link bookings to customer %s: %w", customerID, err)
	}

	logger.Info().
		Str("customer_id", customerID.String()).
		Int("requested", len(bookingIDs)).
		Int64("linked", linked).
		Msg("bookings linked to customer")

	return linked, nil
}

func loadOptional(ctx context.Context, get func(context.Context, uuid.UUID) (*repository.Booking, error), id uuid.UUID) (*repository.Booking, error) {
	booking, err := get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking %s: %w", id, err)
	}
	return booking, nil
}

func buildPreview(sourceID, targetID uuid.UUID, source, target *repository.Booking) *MergePreview {
	preview := &MergePreview{Source: source, Target: target, Problems: []string{}}

	if sourceID == targetID {
		preview.Problems = append(preview.Problems, "source and target are the same booking")
	}
	if source == nil {
		preview.Problems = append(preview.Problems, fmt.Sprintf("source booking %s not found", sourceID))
	}
	if target == nil {
		preview.Problems = append(preview.Problems, fmt.Sprintf("target booking %s not found", targetID))
	}

	if source != nil && target != nil {
		if isMerged(source) {
			preview.Problems = append(preview.Problems, "source booking is already merged")
		}
		if isMerged(target) {
			preview.Problems = append(preview.Problems, "target booking is already merged")
		}
		if !sameUUID(source.PackageID, target.PackageID) {
			preview.Problems = append(preview.Problems, "bookings are for different packages")
		}
		if !sameDay(source.TripDate, target.TripDate) {
			preview.Problems = append(preview.Problems, "bookings have different trip dates")
		}
	}

	preview.CanMerge = len(preview.Problems) == 0
	return preview
}

func isMerged(b *repository.Booking) bool {
	return b.MergedIntoID != nil || b.Status == repository.BookingStatusMerged
}

// sameUUID requires both values present and equal
func sameUUID(a, b *uuid.UUID) bool {
	return a != nil && b != nil && *a == *b
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Format(time.DateOnly) == b.Format(time.DateOnly)
}
