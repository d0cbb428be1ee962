package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/FikranSE/bookingapp/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Principal is the authenticated caller.
type Principal struct {
	ID   int64
	Role domain.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == domain.RoleAdmin
}

type claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 bearer tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) Issue(p Principal) (string, error) {
	now := i.now()
	c := claims{
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (i *Issuer) Parse(raw string) (Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	if c.Role != domain.RoleUser && c.Role != domain.RoleAdmin {
		return Principal{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, c.Role)
	}
	return Principal{ID: id, Role: c.Role}, nil
}
