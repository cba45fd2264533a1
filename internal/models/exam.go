package models

import (
	"fmt"
	"strings"
)

// Session identifies when during an exam day a subject is sat.
type Session string

const (
	SessionMorning   Session = "Morning"
	SessionAfternoon Session = "Afternoon"
	// SessionBoth schedules a subject for both sittings; the resolver splits it
	// into two concrete enrollments before allocation.
	SessionBoth Session = "Both"
)

// ParseSession normalises free-text session values.
func ParseSession(raw string) (Session, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "morning":
		return SessionMorning, nil
	case "afternoon":
		return SessionAfternoon, nil
	case "both":
		return SessionBoth, nil
	default:
		return "", fmt.Errorf("unknown session %q", raw)
	}
}

// Concrete reports whether the session names a single sitting.
func (s Session) Concrete() bool {
	return s == SessionMorning || s == SessionAfternoon
}

// ExamSlot is one schedule entry: the date and session a subject is sat.
// Dates are ISO strings (YYYY-MM-DD) so lexical order equals chronological order.
type ExamSlot struct {
	Date    string  `json:"date"`
	Session Session `json:"session"`
}

// SessionSlot is a concrete (date, single session) pair. Each slot owns an
// independent seat pool and a disjoint subset of enrollments.
type SessionSlot struct {
	Date    string  `json:"date"`
	Session Session `json:"session"`
}

// Key renders a stable identifier used for stats maps and cache keys.
func (s SessionSlot) Key() string {
	return s.Date + " " + string(s.Session)
}

// Before orders slots by date ascending, morning before afternoon.
func (s SessionSlot) Before(other SessionSlot) bool {
	if s.Date != other.Date {
		return s.Date < other.Date
	}
	return s.Session == SessionMorning && other.Session == SessionAfternoon
}
