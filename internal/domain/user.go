package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	PushToken    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Admin struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
