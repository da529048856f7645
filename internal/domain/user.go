package domain

import (
	"context"
	"strings"
	"time"
)

// Role is the authorization role stored on the user record.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	// RoleAdmin is recognised by the history store but never granted by sign-up.
	RoleAdmin Role = "admin"
)

// CanSelfAssign reports whether a role may be requested at sign-up.
func (r Role) CanSelfAssign() bool {
	return r == RolePatient || r == RoleDoctor
}

// CanViewAllHistory reports whether the role may list entries across owners.
func (r Role) CanViewAllHistory() bool {
	return r == RoleDoctor || r == RoleAdmin
}

// User represents a domain user object
type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	GoogleID     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// NewUser creates a new User instance
func NewUser(id, email, name string, role Role) *User {
	now := time.Now().UTC()
	return &User{
		ID:        id,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Name:      name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DisplayName falls back to the local part of the email, then to "User".
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return "User"
}

// UserRepository defines the interface for user data persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, userID string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
}
