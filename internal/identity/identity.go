// Package identity resolves partial customer identifiers (email, phone, name)
// to candidate customers across partner customer records and bookings.
package identity

import (
	"strings"

	"travel-crm/internal/matching"

	"github.com/google/uuid"
)

// Identifier is a partial customer identifier. Any subset of fields may be set.
// PartnerID, when set, restricts the search to one partner tenant.
type Identifier struct {
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Name      string     `json:"name,omitempty"`
	PartnerID *uuid.UUID `json:"partner_id,omitempty"`
}

// IsEmpty reports whether no identifying field survives normalization
func (id Identifier) IsEmpty() bool {
	q := id.normalize()
	return q.email == "" && q.phone == "" && q.name == ""
}

// Source records which collection a candidate was derived from
type Source string

const (
	SourcePartnerCustomer Source = "partner_customer"
	SourceBooking         Source = "booking"
)

// Confidence is a heuristic label for the strength of an identity match
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank orders confidence labels: high=3, medium=2, low=1, unknown=0
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// CandidateMatch is one candidate customer produced by the matcher.
//
// For booking-derived candidates CustomerID is the booking's customer identity
// when it has one (Linked is true) and the booking's own id otherwise, so a
// booking collapses onto a partner customer only when its customer_id equals
// that partner customer's id.
type CandidateMatch struct {
	CustomerID  uuid.UUID  `json:"customer_id"`
	Source      Source     `json:"source"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Name        string     `json:"name,omitempty"`
	Confidence  Confidence `json:"confidence"`
	MatchReason string     `json:"match_reason"`
	Linked      bool       `json:"linked"`
	BookingID   *uuid.UUID `json:"booking_id,omitempty"`
}

// HasIdentity reports whether CustomerID refers to a customer identity rather
// than to a standalone booking
func (m CandidateMatch) HasIdentity() bool {
	return m.Source == SourcePartnerCustomer || m.Linked
}

// query is the normalized form of an Identifier
type query struct {
	email     string
	phone     string
	name      string
	nameKey   string
	partnerID *uuid.UUID
}

func (id Identifier) normalize() query {
	name := strings.TrimSpace(id.Name)
	return query{
		email:     matching.NormalizeEmail(id.Email),
		phone:     matching.NormalizePhone(id.Phone),
		name:      name,
		nameKey:   matching.NormalizeName(name),
		partnerID: id.PartnerID,
	}
}

func (q query) hasContact() bool {
	return q.email != "" || q.phone != ""
}

// Key returns a stable string for the normalized identifier, suitable as a cache key
func (id Identifier) Key() string {
	q := id.normalize()
	partner := ""
	if q.partnerID != nil {
		partner = q.partnerID.String()
	}
	return strings.Join([]string{q.email, q.phone, q.nameKey, partner}, "|")
}
