package domain

import "time"

type ResourceKind string

const (
	ResourceRoom      ResourceKind = "room"
	ResourceTransport ResourceKind = "transport"
)

var ResourceKinds = []ResourceKind{ResourceRoom, ResourceTransport}

func (k ResourceKind) Valid() bool {
	return k == ResourceRoom || k == ResourceTransport
}

// Label is the capitalised name used in notification subjects.
func (k ResourceKind) Label() string {
	switch k {
	case ResourceRoom:
		return "Room"
	case ResourceTransport:
		return "Transport"
	default:
		return string(k)
	}
}

// BookingStatus is the stored status. It never holds an expired value.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusApproved  BookingStatus = "approved"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusApproved, BookingStatusRejected, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a stored status may move to next.
// Only pending bookings move, and never back to pending.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s != BookingStatusPending {
		return false
	}
	switch next {
	case BookingStatusApproved, BookingStatusRejected, BookingStatusCancelled:
		return true
	}
	return false
}

type Booking struct {
	ID          int64
	Kind        ResourceKind
	UserID      int64
	ResourceID  int64
	BookingDate time.Time
	StartTime   string
	EndTime     string
	Status      BookingStatus
	ApproverID  *int64
	ApprovedAt  *time.Time
	PIC         string
	Section     string
	Agenda      string
	Destination string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	UserEmail      string
	ResourceName   string
	ResourceDetail string

	Effective EffectiveStatus
}

// Resolve fills Effective from the stored status and now.
func (b *Booking) Resolve(now time.Time) EffectiveStatus {
	b.Effective = ResolveStatus(b.Status, b.BookingDate, b.EndTime, now)
	return b.Effective
}

func (b *Booking) StartAt(loc *time.Location) (time.Time, error) {
	return CombineDateTime(b.BookingDate, b.StartTime, loc)
}

func (b *Booking) EndAt(loc *time.Location) (time.Time, error) {
	return CombineDateTime(b.BookingDate, b.EndTime, loc)
}

type BookingFilter struct {
	UserID   *int64
	Status   BookingStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// ReminderType identifies one of the reminders sent before a booking starts.
type ReminderType string

const (
	ReminderUpcoming ReminderType = "upcoming"
	ReminderStarting ReminderType = "starting"
)
