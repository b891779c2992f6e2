package identity

import (
	"strings"

	"travel-crm/internal/matching"
)

// pass identifies which search pass produced a row
type pass int

const (
	passEmail pass = iota
	passPhone
	passName
)

func (p pass) String() string {
	switch p {
	case passEmail:
		return "email"
	case passPhone:
		return "phone"
	default:
		return "name"
	}
}

// agreement records which supplied identifier fields agree with a stored row
type agreement struct {
	email bool
	phone bool
	name  bool
}

func agree(q query, name, email, phone string) agreement {
	return agreement{
		email: q.email != "" && matching.NormalizeEmail(email) == q.email,
		phone: q.phone != "" && matching.NormalizePhone(phone) == q.phone,
		name:  q.name != "" && matching.NameContains(name, q.name),
	}
}

func (a agreement) count() int {
	n := 0
	for _, ok := range []bool{a.email, a.phone, a.name} {
		if ok {
			n++
		}
	}
	return n
}

// reason describes the agreeing fields, e.g. "name + phone match"
func (a agreement) reason() string {
	var fields []string
	if a.name {
		fields = append(fields, "name")
	}
	if a.email {
		fields = append(fields, "email")
	}
	if a.phone {
		fields = append(fields, "phone")
	}
	switch {
	case len(fields) == 0:
		return "no field agreement"
	case len(fields) == 1 && a.name:
		return "name match only"
	default:
		return strings.Join(fields, " + ") + " match"
	}
}

// fieldConfidence derives confidence purely from field agreement:
// email → high, phone → medium, name → low.
func fieldConfidence(a agreement) Confidence {
	switch {
	case a.email:
		return ConfidenceHigh
	case a.phone:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// passConfidence labels every email and phone pass hit high; name pass hits
// are high on email agreement, medium on phone agreement, low otherwise.
func passConfidence(p pass, a agreement) Confidence {
	if p == passEmail || p == passPhone {
		return ConfidenceHigh
	}
	return fieldConfidence(a)
}

func scoreConfidence(mode matching.ConfidenceMode, p pass, a agreement) Confidence {
	if mode == matching.ConfidenceByPass {
		return passConfidence(p, a)
	}
	return fieldConfidence(a)
}
