package identity

import (
	"context"
	"sort"

	"travel-crm/internal/logger"
	"travel-crm/internal/matching"
	"travel-crm/internal/repository"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// PartnerCustomerFinder searches partner customer records
type PartnerCustomerFinder interface {
	FindByEmail(ctx context.Context, email string, partnerID *uuid.UUID) ([]repository.PartnerCustomer, error)
	FindByPhone(ctx context.Context, phone string, partnerID *uuid.UUID) ([]repository.PartnerCustomer, error)
	ListWithPhone(ctx context.Context, partnerID *uuid.UUID, limit int32) ([]repository.PartnerCustomer, error)
	SearchByName(ctx context.Context, name string, partnerID *uuid.UUID, limit int32) ([]repository.PartnerCustomer, error)
}

// BookingFinder searches booking records by their denormalized contact fields
type BookingFinder interface {
	FindByEmail(ctx context.Context, email string, partnerID *uuid.UUID) ([]repository.Booking, error)
	FindByPhone(ctx context.Context, phone string, partnerID *uuid.UUID) ([]repository.Booking, error)
	ListWithPhone(ctx context.Context, partnerID *uuid.UUID, limit int32) ([]repository.Booking, error)
	SearchByName(ctx context.Context, name string, partnerID *uuid.UUID, limit int32) ([]repository.Booking, error)
}

// Matcher finds candidate customers for a partial identifier
type Matcher struct {
	customers PartnerCustomerFinder
	bookings  BookingFinder
	cfg       matching.Config
}

// NewMatcher creates a matcher over the two record collections
func NewMatcher(customers PartnerCustomerFinder, bookings BookingFinder, cfg matching.Config) *Matcher {
	return &Matcher{
		customers: customers,
		bookings:  bookings,
		cfg:       cfg,
	}
}

// candidate is a CandidateMatch plus the data needed to rank it
type candidate struct {
	match     CandidateMatch
	agreement agreement
	distance  int
	order     int
}

// FindCustomerMatches returns candidates for id, de-duplicated by customer id
// and ordered by confidence, highest first.
//
// Up to three passes run: email, phone, and name (only when a name and at
// least one contact field are supplied). A data-access error in a pass is
// logged and the pass contributes no rows; the call itself never fails.
// Results are merged in pass order (email, phone, name; partner records before
// bookings within a pass) keeping the first occurrence of each customer id.
// Equal confidence is ordered by number of agreeing fields, then by name edit
// distance when a name was supplied, then partner records before bookings,
// then merge order.
func (m *Matcher) FindCustomerMatches(ctx context.Context, id Identifier) []CandidateMatch {
	q := id.normalize()
	if q.email == "" && q.phone == "" && q.name == "" {
		return []CandidateMatch{}
	}

	var emailHits, phoneHits, nameHits []candidate
	var g errgroup.Group
	if q.email != "" {
		g.Go(func() error {
			emailHits = m.emailPass(ctx, q)
			return nil
		})
	}
	if q.phone != "" {
		g.Go(func() error {
			phoneHits = m.phonePass(ctx, q)
			return nil
		})
	}
	if q.name != "" && q.hasContact() {
		g.Go(func() error {
			nameHits = m.namePass(ctx, q)
			return nil
		})
	}
	_ = g.Wait()

	merged := merge(emailHits, phoneHits, nameHits)
	rankCandidates(merged, q)

	matches := make([]CandidateMatch, len(merged))
	for i, c := range merged {
		matches[i] = c.match
	}

	logger.Debug().
		Int("email_hits", len(emailHits)).
		Int("phone_hits", len(phoneHits)).
		Int("name_hits", len(nameHits)).
		Int("matches", len(matches)).
		Msg("customer match search complete")

	return matches
}

func (m *Matcher) emailPass(ctx context.Context, q query) []candidate {
	var hits []candidate

	customers, err := m.customers.FindByEmail(ctx, q.email, q.partnerID)
	if err != nil {
		logPassError(err, passEmail, repository.TablePartnerCustomers, q)
	}
	for _, pc := range customers {
		hits = append(hits, m.fromPartnerCustomer(pc, q, passEmail))
	}

	bookings, err := m.bookings.FindByEmail(ctx, q.email, q.partnerID)
	if err != nil {
		logPassError(err, passEmail, repository.TableBookings, q)
	}
	for _, b := range bookings {
		hits = append(hits, m.fromBooking(b, q, passEmail))
	}

	return hits
}

func (m *Matcher) phonePass(ctx context.Context, q query) []candidate {
	if m.cfg.PhoneLookup == matching.PhoneLookupScan {
		return m.phoneScan(ctx, q)
	}

	var hits []candidate

	customers, err := m.customers.FindByPhone(ctx, q.phone, q.partnerID)
	if err != nil {
		logPassError(err, passPhone, repository.TablePartnerCustomers, q)
	}
	for _, pc := range customers {
		hits = append(hits, m.fromPartnerCustomer(pc, q, passPhone))
	}

	bookings, err := m.bookings.FindByPhone(ctx, q.phone, q.partnerID)
	if err != nil {
		logPassError(err, passPhone, repository.TableBookings, q)
	}
	for _, b := range bookings {
		hits = append(hits, m.fromBooking(b, q, passPhone))
	}

	return hits
}

// phoneScan compares phones in process over the first PhoneScanLimit rows of
// each collection. Matches outside that window are not found.
func (m *Matcher) phoneScan(ctx context.Context, q query) []candidate {
	var hits []candidate

	customers, err := m.customers.ListWithPhone(ctx, q.partnerID, m.cfg.PhoneScanLimit)
	if err != nil {
		logPassError(err, passPhone, repository.TablePartnerCustomers, q)
	}
	for _, pc := range customers {
		if matching.NormalizePhone(pc.Phone) == q.phone {
			hits = append(hits, m.fromPartnerCustomer(pc, q, passPhone))
		}
	}

	bookings, err := m.bookings.ListWithPhone(ctx, q.partnerID, m.cfg.PhoneScanLimit)
	if err != nil {
		logPassError(err, passPhone, repository.TableBookings, q)
	}
	for _, b := range bookings {
		if matching.NormalizePhone(b.CustomerPhone) == q.phone {
			hits = append(hits, m.fromBooking(b, q, passPhone))
		}
	}

	return hits
}

func (m *Matcher) namePass(ctx context.Context, q query) []candidate {
	var hits []candidate

	customers, err := m.customers.SearchByName(ctx, q.name, q.partnerID, m.cfg.NameSearchLimit)
	if err != nil {
		logPassError(err, passName, repository.TablePartnerCustomers, q)
	}
	for _, pc := range customers {
		hits = append(hits, m.fromPartnerCustomer(pc, q, passName))
	}

	bookings, err := m.bookings.SearchByName(ctx, q.name, q.partnerID, m.cfg.NameSearchLimit)
	if err != nil {
		logPassError(err, passName, repository.TableBookings, q)
	}
	for _, b := range bookings {
		hits = append(hits, m.fromBooking(b, q, passName))
	}

	return hits
}

func (m *Matcher) fromPartnerCustomer(pc repository.PartnerCustomer, q query, p pass) candidate {
	a := agree(q, pc.Name, pc.Email, pc.Phone)
	return candidate{
		match: CandidateMatch{
			CustomerID:  pc.ID,
			Source:      SourcePartnerCustomer,
			Email:       pc.Email,
			Phone:       pc.Phone,
			Name:        pc.Name,
			Confidence:  scoreConfidence(m.cfg.ConfidenceMode, p, a),
			MatchReason: a.reason(),
		},
		agreement: a,
	}
}

func (m *Matcher) fromBooking(b repository.Booking, q query, p pass) candidate {
	a := agree(q, b.CustomerName, b.CustomerEmail, b.CustomerPhone)
	bookingID := b.ID
	match := CandidateMatch{
		CustomerID:  b.ID,
		Source:      SourceBooking,
		Email:       b.CustomerEmail,
		Phone:       b.CustomerPhone,
		Name:        b.CustomerName,
		Confidence:  scoreConfidence(m.cfg.ConfidenceMode, p, a),
		MatchReason: a.reason(),
		BookingID:   &bookingID,
	}
	if b.CustomerID != nil {
		match.CustomerID = *b.CustomerID
		match.Linked = true
	}
	return candidate{match: match, agreement: a}
}

// merge concatenates pass results in order, keeping the first occurrence of
// each customer id
func merge(passes ...[]candidate) []candidate {
	seen := make(map[uuid.UUID]bool)
	var merged []candidate
	for _, hits := range passes {
		for _, c := range hits {
			if seen[c.match.CustomerID] {
				continue
			}
			seen[c.match.CustomerID] = true
			c.order = len(merged)
			merged = append(merged, c)
		}
	}
	return merged
}

func rankCandidates(candidates []candidate, q query) {
	if q.nameKey != "" {
		for i := range candidates {
			candidates[i].distance = levenshtein.ComputeDistance(q.nameKey, matching.NormalizeName(candidates[i].match.Name))
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if ra, rb := a.match.Confidence.Rank(), b.match.Confidence.Rank(); ra != rb {
			return ra > rb
		}
		if ca, cb := a.agreement.count(), b.agreement.count(); ca != cb {
			return ca > cb
		}
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		if a.match.Source != b.match.Source {
			return a.match.Source == SourcePartnerCustomer
		}
		return a.order < b.order
	})
}

func logPassError(err error, p pass, table string, q query) {
	event := logger.Warn().
		Err(err).
		Str("pass", p.String()).
		Str("table", table)
	if q.email != "" {
		event = event.Str("email", q.email)
	}
	if q.phone != "" {
		event = event.Str("phone", q.phone)
	}
	if q.name != "" {
		event = event.Str("name", q.name)
	}
	if q.partnerID != nil {
		event = event.Str("partner_id", q.partnerID.String())
	}
	event.Msg("customer match pass failed")
}
