package domain

import (
	"fmt"
	"strings"
	"time"
)

// EffectiveStatus is what users see: the stored status, or EXPIRED for a
// pending booking whose end has passed.
type EffectiveStatus string

const (
	EffectivePending   EffectiveStatus = "PENDING"
	EffectiveApproved  EffectiveStatus = "APPROVED"
	EffectiveRejected  EffectiveStatus = "REJECTED"
	EffectiveCancelled EffectiveStatus = "CANCELLED"
	EffectiveExpired   EffectiveStatus = "EXPIRED"
)

const DateLayout = "2006-01-02"

var clockLayouts = []string{"15:04", "15:04:05"}

// ResolveStatus computes the effective status of a booking. The end instant is
// built from the calendar day of bookingDate and endTime in now's location.
func ResolveStatus(stored BookingStatus, bookingDate time.Time, endTime string, now time.Time) EffectiveStatus {
	switch stored {
	case BookingStatusCancelled:
		return EffectiveCancelled
	case BookingStatusPending:
	default:
		return EffectiveStatus(strings.ToUpper(string(stored)))
	}

	end, err := CombineDateTime(bookingDate, endTime, now.Location())
	if err != nil {
		return EffectivePending
	}
	if now.After(end) {
		return EffectiveExpired
	}
	return EffectivePending
}

// ParseClock parses an HH:MM or HH:MM:SS wall-clock value.
func ParseClock(hhmm string) (hour, minute, second int, err error) {
	s := strings.TrimSpace(hhmm)
	for _, layout := range clockLayouts {
		t, perr := time.Parse(layout, s)
		if perr == nil {
			return t.Hour(), t.Minute(), t.Second(), nil
		}
	}
	return 0, 0, 0, fmt.Errorf("%w: malformed time %q", ErrValidation, hhmm)
}

// NormalizeClock rewrites a wall-clock value as zero-padded HH:MM, or
// HH:MM:SS when seconds are set, so stored times sort as text.
func NormalizeClock(hhmm string) (string, error) {
	h, m, sec, err := ParseClock(hhmm)
	if err != nil {
		return "", err
	}
	if sec != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, sec), nil
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// CombineDateTime joins the calendar day of date with a wall-clock time in loc.
func CombineDateTime(date time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	h, m, s, err := ParseClock(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	y, mo, d := date.Date()
	return time.Date(y, mo, d, h, m, s, 0, loc), nil
}

// DayOf truncates t to midnight in its own location.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
