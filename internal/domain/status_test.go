package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveStatus_TerminalStatusesIgnoreTime(t *testing.T) {
	bookingDate := day(2026, time.March, 10)
	moments := []time.Time{
		time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 10, 9, 59, 0, 0, time.UTC),
		time.Date(2026, time.March, 10, 23, 0, 0, 0, time.UTC),
		time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC),
	}

	cases := map[BookingStatus]EffectiveStatus{
		BookingStatusApproved:  EffectiveApproved,
		BookingStatusRejected:  EffectiveRejected,
		BookingStatusCancelled: EffectiveCancelled,
	}

	for stored, want := range cases {
		for _, now := range moments {
			assert.Equal(t, want, ResolveStatus(stored, bookingDate, "10:00", now), "stored=%s now=%s", stored, now)
		}
	}
}

func TestResolveStatus_Pending(t *testing.T) {
	bookingDate := day(2026, time.March, 10)

	testCases := []struct {
		name string
		now  time.Time
		want EffectiveStatus
	}{
		{"before end", time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC), EffectivePending},
		{"exactly at end", time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC), EffectivePending},
		{"after end", time.Date(2026, time.March, 10, 11, 0, 0, 0, time.UTC), EffectiveExpired},
		{"next day", time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC), EffectiveExpired},
		{"days before", time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC), EffectivePending},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveStatus(BookingStatusPending, bookingDate, "10:00", tc.now))
		})
	}
}

func TestResolveStatus_UsesNowLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	// The stored date comes back from the database as UTC midnight.
	bookingDate := day(2026, time.March, 10)

	// 10:30 in Jakarta is 03:30 UTC; the booking ended at 10:00 local time.
	now := time.Date(2026, time.March, 10, 10, 30, 0, 0, jakarta)
	assert.Equal(t, EffectiveExpired, ResolveStatus(BookingStatusPending, bookingDate, "10:00", now))

	now = time.Date(2026, time.March, 10, 9, 30, 0, 0, jakarta)
	assert.Equal(t, EffectivePending, ResolveStatus(BookingStatusPending, bookingDate, "10:00", now))
}

func TestResolveStatus_MalformedEndTimeStaysPending(t *testing.T) {
	now := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, EffectivePending, ResolveStatus(BookingStatusPending, day(2026, time.March, 10), "ten o'clock", now))
}

func TestCombineDateTime(t *testing.T) {
	loc := time.FixedZone("WIB", 7*60*60)

	got, err := CombineDateTime(day(2026, time.March, 10), "14:30", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 10, 14, 30, 0, 0, loc), got)

	got, err = CombineDateTime(day(2026, time.March, 10), "08:15:30", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 10, 8, 15, 30, 0, time.UTC), got)

	_, err = CombineDateTime(day(2026, time.March, 10), "25:00", loc)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = CombineDateTime(day(2026, time.March, 10), "", loc)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNormalizeClock(t *testing.T) {
	tests := map[string]string{
		"9:30":     "09:30",
		"09:30":    "09:30",
		" 7:05 ":   "07:05",
		"14:00:00": "14:00",
		"8:15:30":  "08:15:30",
	}
	for in, want := range tests {
		got, err := NormalizeClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := NormalizeClock("half nine")
	assert.ErrorIs(t, err, ErrValidation)

	early, _ := NormalizeClock("9:30")
	late, _ := NormalizeClock("10:00")
	assert.Less(t, early, late)
}

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, BookingStatusPending.CanTransitionTo(BookingStatusApproved))
	assert.True(t, BookingStatusPending.CanTransitionTo(BookingStatusRejected))
	assert.True(t, BookingStatusPending.CanTransitionTo(BookingStatusCancelled))
	assert.False(t, BookingStatusPending.CanTransitionTo(BookingStatusPending))

	for _, from := range []BookingStatus{BookingStatusApproved, BookingStatusRejected, BookingStatusCancelled} {
		for _, to := range []BookingStatus{BookingStatusPending, BookingStatusApproved, BookingStatusRejected, BookingStatusCancelled} {
			assert.False(t, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestBooking_Resolve(t *testing.T) {
	b := &Booking{
		Status:      BookingStatusPending,
		BookingDate: day(2026, time.March, 10),
		StartTime:   "09:00",
		EndTime:     "10:00",
	}

	got := b.Resolve(time.Date(2026, time.March, 10, 11, 0, 0, 0, time.UTC))
	assert.Equal(t, EffectiveExpired, got)
	assert.Equal(t, EffectiveExpired, b.Effective)
	assert.Equal(t, BookingStatusPending, b.Status)
}

func TestResourceKind(t *testing.T) {
	assert.True(t, ResourceRoom.Valid())
	assert.True(t, ResourceTransport.Valid())
	assert.False(t, ResourceKind("boat").Valid())
	assert.Equal(t, "Room", ResourceRoom.Label())
	assert.Equal(t, "Transport", ResourceTransport.Label())
	assert.ErrorIs(t, ResourceNotFound(ResourceTransport), ErrTransportNotFound)
	assert.ErrorIs(t, ResourceNotFound(ResourceRoom), ErrRoomNotFound)
}
