package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/FikranSE/bookingapp/internal/auth"
	"github.com/FikranSE/bookingapp/internal/domain"
	"github.com/FikranSE/bookingapp/internal/push"
	"github.com/FikranSE/bookingapp/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type AccountUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	AdminLogin(ctx context.Context, username, password string) (*Session, error)
	UpdatePushToken(ctx context.Context, userID int64, token string) error
}

type TokenIssuer interface {
	Issue(p auth.Principal) (string, error)
}

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Session is returned by every successful login.
type Session struct {
	Token string
	User  *domain.User
	Admin *domain.Admin
}

type AccountService struct {
	users  repository.UserRepository
	admins repository.AdminRepository
	issuer TokenIssuer
	log    *slog.Logger
}

func NewAccountService(users repository.UserRepository, admins repository.AdminRepository, issuer TokenIssuer, log *slog.Logger) *AccountService {
	return &AccountService{users: users, admins: admins, issuer: issuer, log: log}
}

func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}
	if len(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{Name: input.Name, Email: input.Email, Phone: input.Phone, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user registered", "user_id", user.ID)

	return s.userSession(user)
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return s.userSession(user)
}

func (s *AccountService) AdminLogin(ctx context.Context, username, password string) (*Session, error) {
	admin, err := s.admins.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrAdminNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(auth.Principal{ID: admin.ID, Role: domain.RoleAdmin})
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Admin: admin}, nil
}

// EnsureAdmin creates the bootstrap admin account if it does not exist.
func (s *AccountService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if username == "" || password == "" {
		s.log.Warn("bootstrap admin not configured")
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := &domain.Admin{Username: username, Email: email, PasswordHash: string(hash)}
	if err := s.admins.Ensure(ctx, admin); err != nil {
		return err
	}
	s.log.Info("bootstrap admin ensured", "admin_id", admin.ID, "username", username)
	return nil
}

// UpdatePushToken stores the device token. An empty token clears it.
func (s *AccountService) UpdatePushToken(ctx context.Context, userID int64, token string) error {
	token = strings.TrimSpace(token)
	if token != "" && !push.ValidToken(token) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, push.ErrInvalidToken)
	}
	return s.users.UpdatePushToken(ctx, userID, token)
}

func (s *AccountService) userSession(user *domain.User) (*Session, error) {
	token, err := s.issuer.Issue(auth.Principal{ID: user.ID, Role: domain.RoleUser})
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

var _ AccountUseCase = (*AccountService)(nil)
