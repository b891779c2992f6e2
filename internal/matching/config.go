package matching

import "travel-crm/internal/config"

// ConfidenceMode selects how a candidate's confidence label is derived.
type ConfidenceMode string

const (
	// ConfidenceByFields derives confidence from which supplied fields agree with the row.
	ConfidenceByFields ConfidenceMode = "fields"
	// ConfidenceByPass labels email and phone pass hits high regardless of other fields.
	ConfidenceByPass ConfidenceMode = "pass"
)

// PhoneLookup selects how the phone pass finds candidate rows.
type PhoneLookup string

const (
	// PhoneLookupIndexed queries the stored normalized phone column by equality.
	PhoneLookupIndexed PhoneLookup = "indexed"
	// PhoneLookupScan loads a bounded page of rows and compares phones in process.
	// Rows beyond PhoneScanLimit are never considered.
	PhoneLookupScan PhoneLookup = "scan"
)

// Config defines matching policies and search bounds.
type Config struct {
	ConfidenceMode      ConfidenceMode
	PhoneLookup         PhoneLookup
	PhoneScanLimit      int32
	NameSearchLimit     int32
	PartnerFetchLimit   int32
	BookingHistoryLimit int32
}

// DefaultConfig is used when no configuration is supplied.
var DefaultConfig = Config{
	ConfidenceMode:      ConfidenceByFields,
	PhoneLookup:         PhoneLookupIndexed,
	PhoneScanLimit:      config.DefaultPhoneScanLimit,
	NameSearchLimit:     config.DefaultNameSearchLimit,
	PartnerFetchLimit:   config.DefaultPartnerFetchLimit,
	BookingHistoryLimit: config.DefaultBookingHistoryLimit,
}

// FromSettings builds a matching Config from application settings, falling back
// to defaults for unset values.
func FromSettings(s config.MatchingConfig) Config {
	c := DefaultConfig
	if s.ConfidenceMode != "" {
		c.ConfidenceMode = ConfidenceMode(s.ConfidenceMode)
	}
	if s.PhoneLookup != "" {
		c.PhoneLookup = PhoneLookup(s.PhoneLookup)
	}
	if s.PhoneScanLimit > 0 {
		c.PhoneScanLimit = s.PhoneScanLimit
	}
	if s.NameSearchLimit > 0 {
		c.NameSearchLimit = s.NameSearchLimit
	}
	if s.PartnerFetchLimit > 0 {
		c.PartnerFetchLimit = s.PartnerFetchLimit
	}
	if s.BookingHistoryLimit > 0 {
		c.BookingHistoryLimit = s.BookingHistoryLimit
	}
	return c
}
