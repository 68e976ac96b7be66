package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleUser  UserRole = "USER"
)

func (r UserRole) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

type UserStatus string

const (
	UserPending UserStatus = "PENDING"
	UserActive  UserStatus = "ACTIVE"
)

func (s UserStatus) IsValid() bool {
	return s == UserPending || s == UserActive
}

type User struct {
	ID                int
	UUID              uuid.UUID
	Username          string `validate:"required,min=3,max=100"`
	EncryptedPassword string `validate:"required"`
	Role              UserRole
	Status            UserStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (u *User) IsActive() bool {
	return u.Status == UserActive
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
