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

const pgUniqueViolation = "23505"

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePushToken(ctx context.Context, id int64, token string) error
	GetPushToken(ctx context.Context, id int64) (string, error)
}

type AdminRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.Admin, error)
	ListEmails(ctx context.Context) ([]string, error)
	Ensure(ctx context.Context, admin *domain.Admin) error
}

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

func (r *PGUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.QueryRow(ctx, `INSERT INTO users (name, email, phone, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`, user.Name, user.Email, user.Phone, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PGUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.get(ctx, `WHERE id=$1`, id)
}

func (r *PGUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, `WHERE lower(email)=lower($1)`, email)
}

func (r *PGUserRepository) get(ctx context.Context, where string, arg any) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, email, phone, password_hash, push_token, created_at, updated_at FROM users `+where, arg)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.PushToken, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PGUserRepository) UpdatePushToken(ctx context.Context, id int64, token string) error {
	res, err := r.db.Exec(ctx, `UPDATE users SET push_token=$1, updated_at=now() WHERE id=$2`, token, id)
	if err != nil {
		return fmt.Errorf("update push token: %w", err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *PGUserRepository) GetPushToken(ctx context.Context, id int64) (string, error) {
	var token string
	err := r.db.QueryRow(ctx, `SELECT push_token FROM users WHERE id=$1`, id).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrUserNotFound
	}
	return token, err
}

type PGAdminRepository struct {
	db *pgxpool.Pool
}

func NewAdminRepository(db *pgxpool.Pool) AdminRepository {
	return &PGAdminRepository{db: db}
}

func (r *PGAdminRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	row := r.db.QueryRow(ctx, `SELECT id, username, email, password_hash, created_at FROM admins WHERE username=$1`, username)
	var a domain.Admin
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAdminNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PGAdminRepository) ListEmails(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT email FROM admins WHERE email <> '' ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := make([]string, 0)
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

// Ensure inserts the admin unless the username already exists.
func (r *PGAdminRepository) Ensure(ctx context.Context, admin *domain.Admin) error {
	err := r.db.QueryRow(ctx, `INSERT INTO admins (username, email, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, created_at`, admin.Username, admin.Email, admin.PasswordHash).
		Scan(&admin.ID, &admin.CreatedAt)
	if err != nil {
		return fmt.Errorf("ensure admin %s: %w", admin.Username, err)
	}
	return nil
}

var (
	_ UserRepository  = (*PGUserRepository)(nil)
	_ AdminRepository = (*PGAdminRepository)(nil)
)
