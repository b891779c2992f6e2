// Package matching centralizes contact normalization utilities shared by the
// identity matcher, the repository layer and the normalization backfill job.
package matching

import (
	"regexp"
	"strings"
)

var (
	nonDigitRegex   = regexp.MustCompile(`\D`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

const (
	countryCode = "62"
	trunkPrefix = "0"
)

// NormalizeEmail normalizes an email address by lowercasing and trimming whitespace.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone reduces a phone number to its bare subscriber digits.
// All non-digits are stripped, then a leading 62 country code and a leading 0
// trunk prefix are removed, so "0812-345-678", "+62 812 345 678" and
// "+62 (0)812 345 678" all normalize to "812345678".
func NormalizePhone(phone string) string {
	digits := nonDigitRegex.ReplaceAllString(phone, "")
	digits = strings.TrimPrefix(digits, countryCode)
	digits = strings.TrimPrefix(digits, trunkPrefix)
	return digits
}

// NormalizeName trims, collapses internal whitespace and lowercases a name.
func NormalizeName(name string) string {
	return strings.ToLower(whitespaceRegex.ReplaceAllString(strings.TrimSpace(name), " "))
}

// NameContains reports whether candidate contains query as a case-insensitive
// substring. It mirrors ILIKE '%query%' so in-process agreement checks agree
// with the database search.
func NameContains(candidate, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(candidate), q)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards so the input matches as a literal substring.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ContainsPattern builds an ILIKE pattern matching s anywhere in a column.
func ContainsPattern(s string) string {
	return "%" + EscapeLike(strings.TrimSpace(s)) + "%"
}
