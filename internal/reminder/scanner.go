package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/FikranSE/bookingapp/internal/clock"
	"github.com/FikranSE/bookingapp/internal/domain"
	"github.com/FikranSE/bookingapp/internal/kafka"
	"github.com/FikranSE/bookingapp/internal/metrics"
	"github.com/google/uuid"
)

type BookingSource interface {
	ListApprovedBetween(ctx context.Context, kind domain.ResourceKind, from, to time.Time) ([]domain.Booking, error)
}

type MarkerStore interface {
	Claim(ctx context.Context, kind domain.ResourceKind, bookingID int64, reminderType string) (bool, error)
	Release(ctx context.Context, kind domain.ResourceKind, bookingID int64, reminderType string) error
}

type Notifier interface {
	NotifyReminder(ctx context.Context, b *domain.Booking, reminder domain.ReminderType) bool
}

// Report counts the outcome of one scan.
type Report struct {
	Upcoming  int
	Starting  int
	Skipped   int
	Failed    int
	Malformed int
}

func (r Report) Sent() int {
	return r.Upcoming + r.Starting
}

type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type Option func(*Scanner)

// WithEvents publishes a booking_reminder_<type> event for every reminder
// that went out.
func WithEvents(publisher EventPublisher, topic string) Option {
	return func(s *Scanner) {
		s.events = publisher
		s.eventsTopic = topic
	}
}

type Scanner struct {
	bookings    BookingSource
	markers     MarkerStore
	notifier    Notifier
	clock       clock.Clock
	log         *slog.Logger
	window      time.Duration
	interval    time.Duration
	events      EventPublisher
	eventsTopic string
}

// NewScanner builds a scanner. window is the upcoming horizon and also bounds
// how late a starting-now reminder may go out. interval is the scheduling
// period, used as the starting window when a booking's end time is unreadable.
func NewScanner(bookings BookingSource, markers MarkerStore, notifier Notifier, clk clock.Clock, log *slog.Logger, window, interval time.Duration, opts ...Option) *Scanner {
	s := &Scanner{
		bookings: bookings,
		markers:  markers,
		notifier: notifier,
		clock:    clk,
		log:      log,
		window:   window,
		interval: interval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan runs one pass over both resource kinds. Failures for one booking or one
// kind never stop the rest; they are joined into the returned error.
func (s *Scanner) Scan(ctx context.Context) (Report, error) {
	started := time.Now()
	now := s.clock.Now()

	var (
		report Report
		errs   []error
	)
	for _, kind := range domain.ResourceKinds {
		if err := s.scanKind(ctx, kind, now, &report); err != nil {
			errs = append(errs, fmt.Errorf("scan %s bookings: %w", kind, err))
		}
	}

	err := errors.Join(errs...)
	metrics.ObserveScan(time.Since(started), err == nil)
	s.log.Info("reminder scan finished",
		"upcoming", report.Upcoming,
		"starting", report.Starting,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"malformed", report.Malformed,
	)
	return report, err
}

func (s *Scanner) scanKind(ctx context.Context, kind domain.ResourceKind, now time.Time, report *Report) error {
	from := domain.DayOf(now.Add(-s.window))
	to := domain.DayOf(now.Add(s.window))

	bookings, err := s.bookings.ListApprovedBetween(ctx, kind, from, to)
	if err != nil {
		return err
	}

	var errs []error
	for i := range bookings {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		b := &bookings[i]
		reminder, ok, err := s.classify(b, now)
		if err != nil {
			report.Malformed++
			s.log.Warn("skipping booking with malformed start time",
				"kind", kind, "booking_id", b.ID, "start_time", b.StartTime, "error", err)
			continue
		}
		if !ok {
			continue
		}

		b.Resolve(now)
		if err := s.remind(ctx, b, reminder, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// classify picks the reminder due for b at now, if any. A booking that has
// started stays due for its starting reminder until it ends or the window
// passes, so a skipped tick does not lose it; the marker keeps it to one.
func (s *Scanner) classify(b *domain.Booking, now time.Time) (domain.ReminderType, bool, error) {
	start, err := b.StartAt(now.Location())
	if err != nil {
		return "", false, err
	}

	if start.After(now) {
		if !start.After(now.Add(s.window)) {
			return domain.ReminderUpcoming, true, nil
		}
		return "", false, nil
	}

	until := start.Add(s.window)
	if end, err := b.EndAt(now.Location()); err != nil {
		until = start.Add(s.interval)
	} else if end.Before(until) {
		until = end
	}
	if now.Before(until) {
		return domain.ReminderStarting, true, nil
	}
	return "", false, nil
}

// remind claims the marker and dispatches. The marker is released only when
// the reminder reached no channel at all, so a later tick can retry it.
func (s *Scanner) remind(ctx context.Context, b *domain.Booking, reminder domain.ReminderType, report *Report) (err error) {
	log := s.log.With("kind", b.Kind, "booking_id", b.ID, "reminder", reminder)

	claimed, err := s.markers.Claim(ctx, b.Kind, b.ID, string(reminder))
	if err != nil {
		report.Failed++
		metrics.IncReminder(string(reminder), false)
		log.Error("claim reminder marker", "error", err)
		return err
	}
	if !claimed {
		report.Skipped++
		return nil
	}

	if !s.dispatch(ctx, b, reminder, log) {
		report.Failed++
		metrics.IncReminder(string(reminder), false)
		if relErr := s.markers.Release(ctx, b.Kind, b.ID, string(reminder)); relErr != nil {
			log.Error("release reminder marker", "error", relErr)
			return relErr
		}
		return nil
	}

	metrics.IncReminder(string(reminder), true)
	if reminder == domain.ReminderStarting {
		report.Starting++
	} else {
		report.Upcoming++
	}
	log.Info("reminder sent", "to", b.UserEmail)
	s.publish(ctx, b, reminder, log)
	return nil
}

func (s *Scanner) publish(ctx context.Context, b *domain.Booking, reminder domain.ReminderType, log *slog.Logger) {
	if s.events == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		EventID:     uuid.NewString(),
		Type:        "booking_reminder_" + string(reminder),
		Kind:        string(b.Kind),
		BookingID:   b.ID,
		UserID:      b.UserID,
		ResourceID:  b.ResourceID,
		Status:      string(b.Effective),
		BookingDate: b.BookingDate.Format(domain.DateLayout),
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		OccurredAt:  s.clock.Now(),
	}
	if err := s.events.Publish(ctx, s.eventsTopic, fmt.Sprintf("%s-%d", b.Kind, b.ID), event); err != nil {
		log.Warn("failed to publish reminder event", "error", err)
	}
}

func (s *Scanner) dispatch(ctx context.Context, b *domain.Booking, reminder domain.ReminderType, log *slog.Logger) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("reminder dispatch panicked", "panic", fmt.Sprint(r))
			ok = false
		}
	}()
	return s.notifier.NotifyReminder(ctx, b, reminder)
}
