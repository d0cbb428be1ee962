package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/FikranSE/bookingapp/internal/clock"
	"github.com/FikranSE/bookingapp/internal/domain"
	"github.com/FikranSE/bookingapp/internal/email"
	"github.com/FikranSE/bookingapp/internal/metrics"
	"github.com/FikranSE/bookingapp/internal/push"
)

type EmailSender interface {
	Send(ctx context.Context, msg email.Message) error
}

type PushSender interface {
	Send(ctx context.Context, token string, msg push.Message) error
}

type TokenStore interface {
	GetPushToken(ctx context.Context, userID int64) (string, error)
}

// Dispatcher sends booking notifications on a best-effort basis. Delivery
// failures are logged and reported as false, never returned or raised.
type Dispatcher struct {
	email  EmailSender
	push   PushSender
	tokens TokenStore
	clock  clock.Clock
	log    *slog.Logger
}

// NewDispatcher builds a dispatcher. push and tokens may be nil, in which
// case push notifications are skipped. clk resolves the status shown in a
// message when the caller has not resolved it already.
func NewDispatcher(emailSender EmailSender, pushSender PushSender, tokens TokenStore, clk clock.Clock, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		email:  emailSender,
		push:   pushSender,
		tokens: tokens,
		clock:  clk,
		log:    log,
	}
}

func (d *Dispatcher) resolve(b *domain.Booking) domain.EffectiveStatus {
	if b.Effective == "" {
		b.Resolve(d.clock.Now())
	}
	return b.Effective
}

func (d *Dispatcher) SendEmail(ctx context.Context, to, subject, text, html string) (ok bool) {
	log := d.log.With("channel", "email", "to", to, "subject", subject)
	defer func() {
		if r := recover(); r != nil {
			log.Error("email sender panicked", "panic", fmt.Sprint(r))
			ok = false
		}
		metrics.IncNotification("email", ok)
	}()

	if d.email == nil {
		log.Warn("email skipped: no sender configured")
		return false
	}
	if to == "" {
		log.Warn("email skipped: empty recipient")
		return false
	}
	if err := d.email.Send(ctx, email.Message{To: to, Subject: subject, Text: text, HTML: html}); err != nil {
		log.Error("email delivery failed", "error", err)
		return false
	}
	log.Info("email sent")
	return true
}

// SendPush looks up the user's device token and sends msg. A user without a
// registered token is a logged skip.
func (d *Dispatcher) SendPush(ctx context.Context, userID int64, msg push.Message) (ok bool) {
	log := d.log.With("channel", "push", "user_id", userID, "title", msg.Title)
	defer func() {
		if r := recover(); r != nil {
			log.Error("push sender panicked", "panic", fmt.Sprint(r))
			ok = false
		}
	}()

	if d.push == nil || d.tokens == nil {
		return false
	}

	token, err := d.tokens.GetPushToken(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			log.Warn("push skipped: user not found")
		} else {
			log.Error("push token lookup failed", "error", err)
		}
		return false
	}
	if token == "" {
		log.Debug("push skipped: no device token")
		return false
	}

	if err := d.push.Send(ctx, token, msg); err != nil {
		log.Error("push delivery failed", "error", err)
		metrics.IncNotification("push", false)
		return false
	}
	metrics.IncNotification("push", true)
	return true
}

// NotifyCreated tells every admin about a new pending request and confirms
// the submission to the owner.
func (d *Dispatcher) NotifyCreated(ctx context.Context, b *domain.Booking, adminEmails []string) {
	d.resolve(b)
	view := newView(b, createdSubject(b.Kind), fmt.Sprintf("%s submitted a new %s booking request that is waiting for approval.", b.UserEmail, b.Kind))
	text, html, err := render(view)
	if err != nil {
		d.log.Error("render created notification", "booking_id", b.ID, "error", err)
		return
	}

	for _, to := range adminEmails {
		d.SendEmail(ctx, to, createdSubject(b.Kind), text, html)
	}

	d.SendPush(ctx, b.UserID, push.Message{
		Title: fmt.Sprintf("%s booking submitted", b.Kind.Label()),
		Body:  fmt.Sprintf("%s on %s is waiting for approval.", b.ResourceName, view.Date),
		Data:  pushData(b),
	})
}

// NotifyStatusChanged emails the owner about a stored status change and
// reports whether the email went out.
func (d *Dispatcher) NotifyStatusChanged(ctx context.Context, b *domain.Booking) bool {
	status := d.resolve(b)
	subject := statusSubject(b.Kind, status)
	view := newView(b, subject, fmt.Sprintf("Your %s booking is now %s.", b.Kind, status))

	text, html, err := render(view)
	if err != nil {
		d.log.Error("render status notification", "booking_id", b.ID, "error", err)
		return false
	}

	sent := d.SendEmail(ctx, b.UserEmail, subject, text, html)
	d.SendPush(ctx, b.UserID, push.Message{
		Title: subject,
		Body:  fmt.Sprintf("%s on %s, %s", b.ResourceName, view.Date, view.TimeRange),
		Data:  pushData(b),
	})
	return sent
}

// NotifyReminder emails and pushes a reminder to the owner. It reports whether
// the reminder reached the owner on at least one channel; a caller that
// retries on false never repeats a delivery that already happened.
func (d *Dispatcher) NotifyReminder(ctx context.Context, b *domain.Booking, reminder domain.ReminderType) bool {
	d.resolve(b)
	subject := reminderSubject(b.Kind, reminder, b.StartTime)
	intro := fmt.Sprintf("Your %s booking starts at %s.", b.Kind, shortClock(b.StartTime))
	if reminder == domain.ReminderStarting {
		intro = fmt.Sprintf("Your %s booking is starting now.", b.Kind)
	}

	text, html, err := render(newView(b, subject, intro))
	if err != nil {
		d.log.Error("render reminder", "booking_id", b.ID, "error", err)
		return false
	}

	mailed := d.SendEmail(ctx, b.UserEmail, subject, text, html)
	data := pushData(b)
	data["reminder"] = string(reminder)
	pushed := d.SendPush(ctx, b.UserID, push.Message{Title: subject, Body: intro, Data: data})
	return mailed || pushed
}

func pushData(b *domain.Booking) map[string]string {
	return map[string]string{
		"kind":       string(b.Kind),
		"booking_id": strconv.FormatInt(b.ID, 10),
		"status":     string(b.Effective),
	}
}
