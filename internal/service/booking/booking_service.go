package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FikranSE/bookingapp/internal/auth"
	"github.com/FikranSE/bookingapp/internal/clock"
	"github.com/FikranSE/bookingapp/internal/domain"
	"github.com/FikranSE/bookingapp/internal/kafka"
	"github.com/FikranSE/bookingapp/internal/metrics"
	"github.com/FikranSE/bookingapp/internal/repository"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, caller auth.Principal, kind domain.ResourceKind, id int64) (*domain.Booking, error)
	ListBookings(ctx context.Context, caller auth.Principal, kind domain.ResourceKind, input ListInput) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, adminID int64, kind domain.ResourceKind, id int64, status domain.BookingStatus) (*UpdateResult, error)
	CancelBooking(ctx context.Context, caller auth.Principal, kind domain.ResourceKind, id int64) (*UpdateResult, error)
	DeleteBooking(ctx context.Context, kind domain.ResourceKind, id int64) error
}

type Notifier interface {
	NotifyCreated(ctx context.Context, b *domain.Booking, adminEmails []string)
	NotifyStatusChanged(ctx context.Context, b *domain.Booking) bool
}

type AdminDirectory interface {
	ListEmails(ctx context.Context) ([]string, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type CreateBookingInput struct {
	Kind        domain.ResourceKind
	UserID      int64
	ResourceID  int64
	BookingDate string
	StartTime   string
	EndTime     string
	PIC         string
	Section     string
	Agenda      string
	Destination string
	Notes       string
}

// ListInput filters a listing. Status is matched against the effective
// status, so "expired" and "pending" are both valid.
type ListInput struct {
	Status   string
	DateFrom *time.Time
	DateTo   *time.Time
}

type UpdateResult struct {
	Booking   *domain.Booking
	EmailSent bool
}

type BookingService struct {
	bookings    repository.BookingRepository
	admins      AdminDirectory
	notifier    Notifier
	producer    Producer
	clock       clock.Clock
	log         *slog.Logger
	eventsTopic string
}

type BookingServiceOption func(*BookingService)

func WithEvents(producer Producer, topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.eventsTopic = topic
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	admins AdminDirectory,
	notifier Notifier,
	clk clock.Clock,
	log *slog.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings: bookings,
		admins:   admins,
		notifier: notifier,
		clock:    clk,
		log:      log,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	booking, err := s.validateCreate(input)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	booking.Resolve(now)
	metrics.IncBookingCreated(string(booking.Kind))
	s.log.Info("booking created", "kind", booking.Kind, "booking_id", booking.ID, "user_id", booking.UserID)

	adminEmails, err := s.admins.ListEmails(ctx)
	if err != nil {
		s.log.Error("list admin emails", "error", err)
	}
	s.notifier.NotifyCreated(ctx, booking, adminEmails)
	s.publish(ctx, "booking_created", booking, now)

	return booking, nil
}

func (s *BookingService) validateCreate(input CreateBookingInput) (*domain.Booking, error) {
	if !input.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown resource kind %q", domain.ErrValidation, input.Kind)
	}
	if input.ResourceID <= 0 {
		return nil, fmt.Errorf("%w: resource id is required", domain.ErrValidation)
	}

	date, err := time.Parse(domain.DateLayout, strings.TrimSpace(input.BookingDate))
	if err != nil {
		return nil, fmt.Errorf("%w: booking date must be YYYY-MM-DD", domain.ErrValidation)
	}

	startTime, err := domain.NormalizeClock(input.StartTime)
	if err != nil {
		return nil, fmt.Errorf("start time: %w", err)
	}
	endTime, err := domain.NormalizeClock(input.EndTime)
	if err != nil {
		return nil, fmt.Errorf("end time: %w", err)
	}

	loc := s.clock.Now().Location()
	start, _ := domain.CombineDateTime(date, startTime, loc)
	end, _ := domain.CombineDateTime(date, endTime, loc)
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end time must be after start time", domain.ErrValidation)
	}
	if !end.After(s.clock.Now()) {
		return nil, fmt.Errorf("%w: booking ends in the past", domain.ErrValidation)
	}

	return &domain.Booking{
		Kind:        input.Kind,
		UserID:      input.UserID,
		ResourceID:  input.ResourceID,
		BookingDate: date,
		StartTime:   startTime,
		EndTime:     endTime,
		Status:      domain.BookingStatusPending,
		PIC:         input.PIC,
		Section:     input.Section,
		Agenda:      input.Agenda,
		Destination: input.Destination,
		Notes:       input.Notes,
	}, nil
}

func (s *BookingService) GetBooking(ctx context.Context, caller auth.Principal, kind domain.ResourceKind, id int64) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && booking.UserID != caller.ID {
		return nil, domain.ErrForbidden
	}
	booking.Resolve(s.clock.Now())
	return booking, nil
}

// ListBookings returns every booking for admins and only the caller's own
// bookings for users.
func (s *BookingService) ListBookings(ctx context.Context, caller auth.Principal, kind domain.ResourceKind, input ListInput) ([]domain.Booking, error) {
	filter := domain.BookingFilter{DateFrom: input.DateFrom, DateTo: input.DateTo}
	if !caller.IsAdmin() {
		id := caller.ID
		filter.UserID = &id
	}

	var want domain.EffectiveStatus
	if input.Status != "" {
		want = domain.EffectiveStatus(strings.ToUpper(input.Status))
		switch want {
		case domain.EffectivePending, domain.EffectiveExpired:
			filter.Status = domain.BookingStatusPending
		case domain.EffectiveApproved, domain.EffectiveRejected, domain.EffectiveCancelled:
			filter.Status = domain.BookingStatus(strings.ToLower(input.Status))
		default:
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, input.Status)
		}
	}

	bookings, err := s.bookings.List(ctx, kind, filter)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	out := bookings[:0]
	for i := range bookings {
		if got := bookings[i].Resolve(now); want != "" && got != want {
			continue
		}
		out = append(out, bookings[i])
	}
	return out, nil
}

// UpdateStatus approves or rejects a pending booking on behalf of an admin.
// The owner is notified and the result reports whether the email went out.
func (s *BookingService) UpdateStatus(ctx context.Context, adminID int64, kind domain.ResourceKind, id int64, status domain.BookingStatus) (*UpdateResult, error) {
	if status != domain.BookingStatusApproved && status != domain.BookingStatusRejected {
		return nil, fmt.Errorf("%w: status must be approved or rejected", domain.ErrValidation)
	}
	now := s.clock.Now()
	return s.transition(ctx, kind, id, status, &adminID, &now, nil)
}

// CancelBooking cancels a pending booking. Only its owner may cancel it.
func (s *BookingService) CancelBooking(ctx context.Context, caller auth.Principal, kind domain.ResourceKind, id int64) (*UpdateResult, error) {
	return s.transition(ctx, kind, id, domain.BookingStatusCancelled, nil, nil, func(b *domain.Booking) error {
		if b.UserID != caller.ID {
			return domain.ErrForbidden
		}
		return nil
	})
}

func (s *BookingService) transition(
	ctx context.Context,
	kind domain.ResourceKind,
	id int64,
	to domain.BookingStatus,
	approverID *int64,
	at *time.Time,
	authorize func(*domain.Booking) error,
) (*UpdateResult, error) {
	current, err := s.bookings.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if authorize != nil {
		if err := authorize(current); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	switch current.Resolve(now) {
	case domain.EffectiveExpired:
		return nil, domain.ErrBookingExpired
	case domain.EffectivePending:
	default:
		return nil, fmt.Errorf("%w: booking is %s", domain.ErrInvalidTransition, current.Effective)
	}

	updated, err := s.bookings.TransitionStatus(ctx, kind, id, to, approverID, at)
	if err != nil {
		return nil, err
	}
	updated.Resolve(now)
	metrics.IncStatusChange(string(kind), string(to))
	s.log.Info("booking status changed", "kind", kind, "booking_id", id, "status", to)

	emailSent := s.notifier.NotifyStatusChanged(ctx, updated)
	s.publish(ctx, "booking_"+string(to), updated, now)

	return &UpdateResult{Booking: updated, EmailSent: emailSent}, nil
}

func (s *BookingService) DeleteBooking(ctx context.Context, kind domain.ResourceKind, id int64) error {
	booking, err := s.bookings.GetByID(ctx, kind, id)
	if err != nil {
		return err
	}
	if err := s.bookings.Delete(ctx, kind, id); err != nil {
		return err
	}
	s.log.Info("booking deleted", "kind", kind, "booking_id", id)
	s.publish(ctx, "booking_deleted", booking, s.clock.Now())
	return nil
}

// publish emits a lifecycle event. Failures are logged and never fail the
// calling operation.
func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, at time.Time) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		EventID:     uuid.NewString(),
		Type:        eventType,
		Kind:        string(booking.Kind),
		BookingID:   booking.ID,
		UserID:      booking.UserID,
		ResourceID:  booking.ResourceID,
		Status:      string(booking.Effective),
		BookingDate: booking.BookingDate.Format(domain.DateLayout),
		StartTime:   booking.StartTime,
		EndTime:     booking.EndTime,
		OccurredAt:  at,
	}
	key := fmt.Sprintf("%s-%d", booking.Kind, booking.ID)
	if err := s.producer.Publish(ctx, s.eventsTopic, key, event); err != nil {
		s.log.Warn("failed to publish booking event", "type", eventType, "key", key, "error", err)
	}
}

var _ BookingUseCase = (*BookingService)(nil)
