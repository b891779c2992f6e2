package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travel-crm/internal/identity"
	"travel-crm/internal/logger"
	"travel-crm/internal/matching"
	"travel-crm/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ErrNoMatch is returned when an identifier matches no customer
var ErrNoMatch = errors.New("no matching customer")

// CoreProfile holds the primary contact fields of a unified customer
type CoreProfile struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// CustomerStats summarizes a customer's booking history
type CustomerStats struct {
	TotalBookings       int             `json:"total_bookings"`
	TotalSpent          decimal.Decimal `json:"total_spent"`
	LastTripDate        *time.Time      `json:"last_trip_date,omitempty"`
	AverageBookingValue decimal.Decimal `json:"average_booking_value"`
}

// UnifiedCustomer is the aggregated profile of the best match for an identifier
type UnifiedCustomer struct {
	ID               uuid.UUID                    `json:"id"`
	Core             CoreProfile                  `json:"core"`
	PrimaryMatch     identity.CandidateMatch      `json:"primary_match"`
	PartnerCustomers []repository.PartnerCustomer `json:"partner_customers"`
	Bookings         []repository.Booking         `json:"bookings"`
	Stats            CustomerStats                `json:"stats"`
}

// CustomerMatcher finds candidate customers for an identifier
type CustomerMatcher interface {
	FindCustomerMatches(ctx context.Context, id identity.Identifier) []identity.CandidateMatch
}

// PartnerCustomerLister lists partner records belonging to one customer identity
type PartnerCustomerLister interface {
	ListByIdentity(ctx context.Context, id uuid.UUID, limit int32) ([]repository.PartnerCustomer, error)
}

// BookingHistory lists a customer's bookings, newest first
type BookingHistory interface {
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int32) ([]repository.Booking, error)
	ListByEmail(ctx context.Context, email string, limit int32) ([]repository.Booking, error)
	ListByPhone(ctx context.Context, phone string, limit int32) ([]repository.Booking, error)
}

type CustomerService struct {
	matcher   CustomerMatcher
	customers PartnerCustomerLister
	bookings  BookingHistory
	cache     ProfileCache
	cfg       matching.Config
}

// NewCustomerService creates the profile aggregator. cache may be nil.
func NewCustomerService(matcher CustomerMatcher, customers PartnerCustomerLister, bookings BookingHistory, cache ProfileCache, cfg matching.Config) *CustomerService {
	return &CustomerService{
		matcher:   matcher,
		customers: customers,
		bookings:  bookings,
		cache:     cache,
		cfg:       cfg,
	}
}

// FindCustomerMatches returns ranked candidates for id
func (s *CustomerService) FindCustomerMatches(ctx context.Context, id identity.Identifier) []identity.CandidateMatch {
	return s.matcher.FindCustomerMatches(ctx, id)
}

// GetUnifiedCustomer returns the unified profile of the best match for id, or
// nil when nothing matches. Data access failures are logged and also yield nil;
// use ResolveUnifiedCustomer to tell the two apart.
func (s *CustomerService) GetUnifiedCustomer(ctx context.Context, id identity.Identifier) *UnifiedCustomer {
	profile, err := s.ResolveUnifiedCustomer(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNoMatch) {
			logger.Error().
				Err(err).
				Str("identifier", id.Key()).
				Msg("failed to build unified customer")
		}
		return nil
	}
	return profile
}

// ResolveUnifiedCustomer builds the unified profile of the best match for id.
// It returns ErrNoMatch when no candidate exists.
func (s *CustomerService) ResolveUnifiedCustomer(ctx context.Context, id identity.Identifier) (*UnifiedCustomer, error) {
	key := id.Key()
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("profile cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	matches := s.matcher.FindCustomerMatches(ctx, id)
	if len(matches) == 0 {
		return nil, ErrNoMatch
	}

	profile, err := s.aggregate(ctx, matches)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, profile); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("profile cache write failed")
		}
	}

	return profile, nil
}

func (s *CustomerService) aggregate(ctx context.Context, matches []identity.CandidateMatch) (*UnifiedCustomer, error) {
	primary := matches[0]
	ids := identitySet(matches)

	var partnerCustomers []repository.PartnerCustomer
	var bookings []repository.Booking

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		partnerCustomers, err = s.listPartnerCustomers(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		bookings, err = s.listBookings(gctx, primary)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &UnifiedCustomer{
		ID:               primary.CustomerID,
		Core:             coreProfile(primary, partnerCustomers),
		PrimaryMatch:     primary,
		PartnerCustomers: partnerCustomers,
		Bookings:         bookings,
		Stats:            ComputeStats(bookings),
	}, nil
}

// identitySet returns the primary candidate's id followed by the ids of all
// partner-sourced candidates, without duplicates. Booking-sourced candidates
// other than the primary are not expanded.
func identitySet(matches []identity.CandidateMatch) []uuid.UUID {
	seen := map[uuid.UUID]bool{matches[0].CustomerID: true}
	ids := []uuid.UUID{matches[0].CustomerID}
	for _, m := range matches[1:] {
		if m.Source != identity.SourcePartnerCustomer || seen[m.CustomerID] {
			continue
		}
		seen[m.CustomerID] = true
		ids = append(ids, m.CustomerID)
	}
	return ids
}

func (s *CustomerService) listPartnerCustomers(ctx context.Context, ids []uuid.UUID) ([]repository.PartnerCustomer, error) {
	seen := make(map[uuid.UUID]bool)
	customers := []repository.PartnerCustomer{}
	for _, id := range ids {
		rows, err := s.customers.ListByIdentity(ctx, id, s.cfg.PartnerFetchLimit)
		if err != nil {
			return nil, fmt.Errorf("list partner customers for %s: %w", id, err)
		}
		for _, pc := range rows {
			if seen[pc.ID] {
				continue
			}
			seen[pc.ID] = true
			customers = append(customers, pc)
		}
	}
	return customers, nil
}

// listBookings loads history by customer identity when the primary has one,
// otherwise by its normalized email, otherwise by its normalized phone.
func (s *CustomerService) listBookings(ctx context.Context, primary identity.CandidateMatch) ([]repository.Booking, error) {
	limit := s.cfg.BookingHistoryLimit

	var (
		bookings []repository.Booking
		err      error
	)
	switch {
	case primary.HasIdentity():
		bookings, err = s.bookings.ListByCustomer(ctx, primary.CustomerID, limit)
	case matching.NormalizeEmail(primary.Email) != "":
		bookings, err = s.bookings.ListByEmail(ctx, matching.NormalizeEmail(primary.Email), limit)
	case matching.NormalizePhone(primary.Phone) != "":
		bookings, err = s.bookings.ListByPhone(ctx, matching.NormalizePhone(primary.Phone), limit)
	default:
		return []repository.Booking{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list bookings for %s: %w", primary.CustomerID, err)
	}
	if bookings == nil {
		bookings = []repository.Booking{}
	}
	return bookings, nil
}

// coreProfile takes contact fields from the primary match and fills blanks from
// the first partner record that has them.
func coreProfile(primary identity.CandidateMatch, partnerCustomers []repository.PartnerCustomer) CoreProfile {
	core := CoreProfile{
		Name:  primary.Name,
		Email: primary.Email,
		Phone: primary.Phone,
	}
	for _, pc := range partnerCustomers {
		if core.Name == "" {
			core.Name = pc.Name
		}
		if core.Email == "" {
			core.Email = pc.Email
		}
		if core.Phone == "" {
			core.Phone = pc.Phone
		}
	}
	return core
}

// ComputeStats summarizes bookings. Missing amounts count as zero; the average
// is the unrounded quotient TotalSpent / TotalBookings, zero when there are no
// bookings.
func ComputeStats(bookings []repository.Booking) CustomerStats {
	stats := CustomerStats{
		TotalBookings:       len(bookings),
		TotalSpent:          decimal.Zero,
		AverageBookingValue: decimal.Zero,
	}

	for _, b := range bookings {
		if b.TotalAmount != nil {
			stats.TotalSpent = stats.TotalSpent.Add(*b.TotalAmount)
		}
		if b.TripDate != nil && (stats.LastTripDate == nil || b.TripDate.After(*stats.LastTripDate)) {
			trip := *b.TripDate
			stats.LastTripDate = &trip
		}
	}

	if stats.TotalBookings > 0 {
		stats.AverageBookingValue = stats.TotalSpent.Div(decimal.NewFromInt(int64(stats.TotalBookings)))
	}

	return stats
}
