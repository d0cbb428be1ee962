package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "booking"

var (
	once sync.Once

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Count of bookings created by resource kind.",
		},
		[]string{"kind"},
	)

	statusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_changes_total",
			Help:      "Count of stored status transitions.",
		},
		[]string{"kind", "status"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Count of notification attempts by channel and result.",
		},
		[]string{"channel", "result"},
	)

	remindersSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_total",
			Help:      "Count of reminder outcomes by type.",
		},
		[]string{"type", "result"},
	)

	scanRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_scans_total",
			Help:      "Count of reminder scan runs by result.",
		},
		[]string{"result"},
	)

	ticksSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_ticks_skipped_total",
			Help:      "Count of scheduler ticks skipped because a run was still in flight.",
		},
	)

	scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reminder_scan_duration_seconds",
			Help:      "Duration of reminder scan runs.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingsCreated, statusChanges, notifications, remindersSent, scanRuns, ticksSkipped, scanDuration)
	})
}

func IncBookingCreated(kind string) {
	bookingsCreated.WithLabelValues(kind).Inc()
}

func IncStatusChange(kind, status string) {
	statusChanges.WithLabelValues(kind, status).Inc()
}

func IncNotification(channel string, ok bool) {
	notifications.WithLabelValues(channel, result(ok)).Inc()
}

func IncReminder(reminderType string, ok bool) {
	remindersSent.WithLabelValues(reminderType, result(ok)).Inc()
}

func ObserveScan(d time.Duration, ok bool) {
	scanRuns.WithLabelValues(result(ok)).Inc()
	scanDuration.Observe(d.Seconds())
}

func IncTickSkipped() {
	ticksSkipped.Inc()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
