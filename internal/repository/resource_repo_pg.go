package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/FikranSE/bookingapp/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepository interface {
	List(ctx context.Context) ([]domain.Room, error)
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
	Create(ctx context.Context, room *domain.Room) error
	Update(ctx context.Context, room *domain.Room) error
	Delete(ctx context.Context, id int64) error
}

type TransportRepository interface {
	List(ctx context.Context) ([]domain.Transport, error)
	GetByID(ctx context.Context, id int64) (*domain.Transport, error)
	Create(ctx context.Context, transport *domain.Transport) error
	Update(ctx context.Context, transport *domain.Transport) error
	Delete(ctx context.Context, id int64) error
}

type PGRoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) RoomRepository {
	return &PGRoomRepository{db: db}
}

func (r *PGRoomRepository) List(ctx context.Context) ([]domain.Room, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, room_type, capacity, facilities, image, created_at, updated_at FROM rooms ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]domain.Room, 0)
	for rows.Next() {
		var m domain.Room
		if err := rows.Scan(&m.ID, &m.Name, &m.RoomType, &m.Capacity, &m.Facilities, &m.Image, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, m)
	}
	return rooms, rows.Err()
}

func (r *PGRoomRepository) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, room_type, capacity, facilities, image, created_at, updated_at FROM rooms WHERE id=$1`, id)
	var m domain.Room
	if err := row.Scan(&m.ID, &m.Name, &m.RoomType, &m.Capacity, &m.Facilities, &m.Image, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *PGRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	return r.db.QueryRow(ctx, `INSERT INTO rooms (name, room_type, capacity, facilities, image)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`, room.Name, room.RoomType, room.Capacity, room.Facilities, room.Image).
		Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt)
}

func (r *PGRoomRepository) Update(ctx context.Context, room *domain.Room) error {
	err := r.db.QueryRow(ctx, `UPDATE rooms SET name=$1, room_type=$2, capacity=$3, facilities=$4, image=$5, updated_at=now()
		WHERE id=$6 RETURNING created_at, updated_at`, room.Name, room.RoomType, room.Capacity, room.Facilities, room.Image, room.ID).
		Scan(&room.CreatedAt, &room.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrRoomNotFound
	}
	return err
}

func (r *PGRoomRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM rooms WHERE id=$1`, id)
	if err != nil {
		return deleteError("room", id, err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

type PGTransportRepository struct {
	db *pgxpool.Pool
}

func NewTransportRepository(db *pgxpool.Pool) TransportRepository {
	return &PGTransportRepository{db: db}
}

func (r *PGTransportRepository) List(ctx context.Context) ([]domain.Transport, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, driver_name, capacity, plate_number, image, created_at, updated_at FROM transports ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transports := make([]domain.Transport, 0)
	for rows.Next() {
		var t domain.Transport
		if err := rows.Scan(&t.ID, &t.Name, &t.DriverName, &t.Capacity, &t.PlateNumber, &t.Image, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		transports = append(transports, t)
	}
	return transports, rows.Err()
}

func (r *PGTransportRepository) GetByID(ctx context.Context, id int64) (*domain.Transport, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, driver_name, capacity, plate_number, image, created_at, updated_at FROM transports WHERE id=$1`, id)
	var t domain.Transport
	if err := row.Scan(&t.ID, &t.Name, &t.DriverName, &t.Capacity, &t.PlateNumber, &t.Image, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransportNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *PGTransportRepository) Create(ctx context.Context, transport *domain.Transport) error {
	return r.db.QueryRow(ctx, `INSERT INTO transports (name, driver_name, capacity, plate_number, image)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`, transport.Name, transport.DriverName, transport.Capacity, transport.PlateNumber, transport.Image).
		Scan(&transport.ID, &transport.CreatedAt, &transport.UpdatedAt)
}

func (r *PGTransportRepository) Update(ctx context.Context, transport *domain.Transport) error {
	err := r.db.QueryRow(ctx, `UPDATE transports SET name=$1, driver_name=$2, capacity=$3, plate_number=$4, image=$5, updated_at=now()
		WHERE id=$6 RETURNING created_at, updated_at`, transport.Name, transport.DriverName, transport.Capacity, transport.PlateNumber, transport.Image, transport.ID).
		Scan(&transport.CreatedAt, &transport.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrTransportNotFound
	}
	return err
}

func (r *PGTransportRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM transports WHERE id=$1`, id)
	if err != nil {
		return deleteError("transport", id, err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrTransportNotFound
	}
	return nil
}

// deleteError maps a foreign-key violation to ErrResourceInUse. Bookings
// reference their resource with ON DELETE RESTRICT, so a booked resource
// cannot be removed from under its bookings.
func deleteError(what string, id int64, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("delete %s %d: %w", what, id, domain.ErrResourceInUse)
	}
	return fmt.Errorf("delete %s %d: %w", what, id, err)
}

var (
	_ RoomRepository      = (*PGRoomRepository)(nil)
	_ TransportRepository = (*PGTransportRepository)(nil)
)
