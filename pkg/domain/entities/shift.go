package entities

import (
	"fmt"
	"time"
)

// Shift identifies the production shift within a day.
type Shift int

const (
	ShiftDay Shift = iota
	ShiftNight
)

// String method for Shift enum
func (s Shift) String() string {
	switch s {
	case ShiftDay:
		return "Day"
	case ShiftNight:
		return "Night"
	default:
		return "Unknown"
	}
}

// ParseShift converts a shift label to a Shift value
func ParseShift(label string) (Shift, error) {
	switch label {
	case "Day":
		return ShiftDay, nil
	case "Night":
		return ShiftNight, nil
	default:
		return ShiftDay, fmt.Errorf("unknown shift %q", label)
	}
}

// ShiftRef locates a record in the shift timeline: a production date plus
// the shift within that date. Day precedes Night within the same date.
type ShiftRef struct {
	Date  time.Time
	Shift Shift
}

// NewShiftRef creates a ShiftRef with the date truncated to midnight UTC so
// that two refs for the same calendar day always compare equal on date.
func NewShiftRef(date time.Time, shift Shift) ShiftRef {
	y, m, d := date.Date()
	return ShiftRef{
		Date:  time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Shift: shift,
	}
}

// Before reports whether r is strictly earlier than other in the shift
// ordering.
func (r ShiftRef) Before(other ShiftRef) bool {
	if !r.Date.Equal(other.Date) {
		return r.Date.Before(other.Date)
	}
	return r.Shift < other.Shift
}

// Equal reports whether two refs identify the same shift.
func (r ShiftRef) Equal(other ShiftRef) bool {
	return r.Date.Equal(other.Date) && r.Shift == other.Shift
}

func (r ShiftRef) String() string {
	return fmt.Sprintf("%s/%s", r.Date.Format("2006-01-02"), r.Shift)
}
