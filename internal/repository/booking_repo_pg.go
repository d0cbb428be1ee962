package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FikranSE/bookingapp/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgForeignKeyViolation = "23503"

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, kind domain.ResourceKind, id int64) (*domain.Booking, error)
	List(ctx context.Context, kind domain.ResourceKind, filter domain.BookingFilter) ([]domain.Booking, error)
	TransitionStatus(ctx context.Context, kind domain.ResourceKind, id int64, to domain.BookingStatus, approverID *int64, at *time.Time) (*domain.Booking, error)
	Delete(ctx context.Context, kind domain.ResourceKind, id int64) error
	ListApprovedBetween(ctx context.Context, kind domain.ResourceKind, from, to time.Time) ([]domain.Booking, error)
}

// bookingTable maps a resource kind onto its table and the columns that differ
// between the room and transport variants.
type bookingTable struct {
	name          string
	resourceTable string
	resourceCol   string
	purposeCol    string
	detailCol     string
}

var bookingTables = map[domain.ResourceKind]bookingTable{
	domain.ResourceRoom: {
		name:          "room_bookings",
		resourceTable: "rooms",
		resourceCol:   "room_id",
		purposeCol:    "agenda",
		detailCol:     "room_type",
	},
	domain.ResourceTransport: {
		name:          "transport_bookings",
		resourceTable: "transports",
		resourceCol:   "transport_id",
		purposeCol:    "destination",
		detailCol:     "driver_name",
	},
}

func tableFor(kind domain.ResourceKind) (bookingTable, error) {
	t, ok := bookingTables[kind]
	if !ok {
		return bookingTable{}, fmt.Errorf("%w: unknown resource kind %q", domain.ErrValidation, kind)
	}
	return t, nil
}

func (t bookingTable) selectSQL() string {
	return fmt.Sprintf(`SELECT b.id, b.user_id, b.%[1]s, b.booking_date, b.start_time, b.end_time, b.status,
		b.approver_id, b.approved_at, b.pic, b.section, b.%[2]s, b.notes, b.created_at, b.updated_at,
		u.email, r.name, r.%[3]s
	FROM %[4]s b
	JOIN users u ON u.id = b.user_id
	JOIN %[5]s r ON r.id = b.%[1]s`, t.resourceCol, t.purposeCol, t.detailCol, t.name, t.resourceTable)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	t, err := tableFor(booking.Kind)
	if err != nil {
		return err
	}

	booking.Status = domain.BookingStatusPending
	query := fmt.Sprintf(`INSERT INTO %s (user_id, %s, booking_date, start_time, end_time, status, pic, section, %s, notes)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`, t.name, t.resourceCol, t.purposeCol)

	var id int64
	err = r.db.QueryRow(ctx, query,
		booking.UserID, booking.ResourceID, booking.BookingDate.Format(domain.DateLayout),
		booking.StartTime, booking.EndTime, booking.Status,
		booking.PIC, booking.Section, purposeOf(booking), booking.Notes,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			if strings.Contains(pgErr.ConstraintName, t.resourceCol) {
				return domain.ResourceNotFound(booking.Kind)
			}
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("insert %s: %w", t.name, err)
	}

	created, err := r.GetByID(ctx, booking.Kind, id)
	if err != nil {
		return err
	}
	*booking = *created
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, kind domain.ResourceKind, id int64) (*domain.Booking, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRow(ctx, t.selectSQL()+` WHERE b.id = $1`, id)
	b, err := scanBooking(row, kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("get %s %d: %w", t.name, id, err)
	}
	return b, nil
}

func (r *PGBookingRepository) List(ctx context.Context, kind domain.ResourceKind, filter domain.BookingFilter) ([]domain.Booking, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	query, args := buildListQuery(t, filter)
	return r.query(ctx, kind, query, args...)
}

// TransitionStatus moves a pending booking to the given status in a single
// guarded statement. A zero-row update is reported as not found or as an
// invalid transition depending on whether the row exists.
func (r *PGBookingRepository) TransitionStatus(ctx context.Context, kind domain.ResourceKind, id int64, to domain.BookingStatus, approverID *int64, at *time.Time) (*domain.Booking, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	if !domain.BookingStatusPending.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: pending -> %s", domain.ErrInvalidTransition, to)
	}

	query := fmt.Sprintf(`UPDATE %s
		SET status = $1,
			approver_id = COALESCE($2, approver_id),
			approved_at = COALESCE($3, approved_at),
			updated_at = now()
		WHERE id = $4 AND status = $5
		RETURNING id`, t.name)

	var updatedID int64
	err = r.db.QueryRow(ctx, query, to, approverID, at, id, domain.BookingStatusPending).Scan(&updatedID)
	if err == nil {
		return r.GetByID(ctx, kind, updatedID)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update %s %d: %w", t.name, id, err)
	}

	var current domain.BookingStatus
	err = r.db.QueryRow(ctx, fmt.Sprintf(`SELECT status FROM %s WHERE id = $1`, t.name), id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s %d status: %w", t.name, id, err)
	}
	return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current, to)
}

func (r *PGBookingRepository) Delete(ctx context.Context, kind domain.ResourceKind, id int64) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM booking_reminders WHERE kind = $1 AND booking_id = $2`, kind, id); err != nil {
		return fmt.Errorf("delete reminders: %w", err)
	}
	res, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t.name), id)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", t.name, id, err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return tx.Commit(ctx)
}

// ListApprovedBetween returns approved bookings whose date lies within the
// calendar days of from and to, inclusive.
func (r *PGBookingRepository) ListApprovedBetween(ctx context.Context, kind domain.ResourceKind, from, to time.Time) ([]domain.Booking, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	query := t.selectSQL() + `
	WHERE b.status = $1 AND b.booking_date BETWEEN $2::date AND $3::date
	ORDER BY b.booking_date, b.start_time`
	return r.query(ctx, kind, query, domain.BookingStatusApproved, from.Format(domain.DateLayout), to.Format(domain.DateLayout))
}

func (r *PGBookingRepository) query(ctx context.Context, kind domain.ResourceKind, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows, kind)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func buildListQuery(t bookingTable, filter domain.BookingFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != nil {
		add("b.user_id = $%d", *filter.UserID)
	}
	if filter.Status != "" {
		add("b.status = $%d", filter.Status)
	}
	if filter.DateFrom != nil {
		add("b.booking_date >= $%d::date", filter.DateFrom.Format(domain.DateLayout))
	}
	if filter.DateTo != nil {
		add("b.booking_date <= $%d::date", filter.DateTo.Format(domain.DateLayout))
	}

	query := t.selectSQL()
	if len(conds) > 0 {
		query += "\n\tWHERE " + strings.Join(conds, " AND ")
	}
	query += "\n\tORDER BY b.booking_date DESC, b.start_time DESC, b.id DESC"
	return query, args
}

func scanBooking(row pgx.Row, kind domain.ResourceKind) (*domain.Booking, error) {
	b := domain.Booking{Kind: kind}
	var purpose string
	if err := row.Scan(
		&b.ID, &b.UserID, &b.ResourceID, &b.BookingDate, &b.StartTime, &b.EndTime, &b.Status,
		&b.ApproverID, &b.ApprovedAt, &b.PIC, &b.Section, &purpose, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
		&b.UserEmail, &b.ResourceName, &b.ResourceDetail,
	); err != nil {
		return nil, err
	}
	if kind == domain.ResourceTransport {
		b.Destination = purpose
	} else {
		b.Agenda = purpose
	}
	return &b, nil
}

func purposeOf(b *domain.Booking) string {
	if b.Kind == domain.ResourceTransport {
		return b.Destination
	}
	return b.Agenda
}

var _ BookingRepository = (*PGBookingRepository)(nil)
