package repository

import (
	"context"
	"fmt"

	"github.com/FikranSE/bookingapp/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReminderRepository records which reminders were dispatched so each
// (kind, booking, type) is sent at most once.
type ReminderRepository interface {
	Claim(ctx context.Context, kind domain.ResourceKind, bookingID int64, reminderType string) (bool, error)
	Release(ctx context.Context, kind domain.ResourceKind, bookingID int64, reminderType string) error
}

type PGReminderRepository struct {
	db *pgxpool.Pool
}

func NewReminderRepository(db *pgxpool.Pool) ReminderRepository {
	return &PGReminderRepository{db: db}
}

// Claim inserts the marker. It returns false if the marker already existed.
func (r *PGReminderRepository) Claim(ctx context.Context, kind domain.ResourceKind, bookingID int64, reminderType string) (bool, error) {
	res, err := r.db.Exec(ctx, `INSERT INTO booking_reminders (kind, booking_id, reminder_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind, booking_id, reminder_type) DO NOTHING`, kind, bookingID, reminderType)
	if err != nil {
		return false, fmt.Errorf("claim reminder %s/%d/%s: %w", kind, bookingID, reminderType, err)
	}
	return res.RowsAffected() == 1, nil
}

func (r *PGReminderRepository) Release(ctx context.Context, kind domain.ResourceKind, bookingID int64, reminderType string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM booking_reminders WHERE kind = $1 AND booking_id = $2 AND reminder_type = $3`, kind, bookingID, reminderType)
	if err != nil {
		return fmt.Errorf("release reminder %s/%d/%s: %w", kind, bookingID, reminderType, err)
	}
	return nil
}

var _ ReminderRepository = (*PGReminderRepository)(nil)
