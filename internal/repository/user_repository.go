package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"uti-assess/internal/domain"
	"uti-assess/internal/repository/models"
	"uti-assess/internal/util"

	"github.com/jmoiron/sqlx"
)

// sqlxUserRepository implements domain.UserRepository using sqlx.
type sqlxUserRepository struct {
	db *sqlx.DB
}

// NewSQLXUserRepository creates a new instance of sqlxUserRepository.
func NewSQLXUserRepository(db *sqlx.DB) domain.UserRepository {
	return &sqlxUserRepository{db: db}
}

// isUniqueViolation recognises duplicate-key errors from sqlite and Oracle (ORA-00001).
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "ORA-00001")
}

// CreateUser inserts a new user into the database.
func (r *sqlxUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, email, name, role, password_hash, google_id, created_at, updated_at, deleted_at)
	          VALUES (:id, :email, :name, :role, :password_hash, :google_id, :created_at, :updated_at, :deleted_at)`

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := r.db.NamedExecContext(ctx, query, fromDomainUser(user)); err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("an account with this email already exists")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *sqlxUserRepository) getOne(ctx context.Context, where string, arg interface{}) (*domain.User, error) {
	query := r.db.Rebind(`SELECT ` + models.UserColumns + ` FROM users WHERE ` + where + ` AND deleted_at IS NULL`)

	var m models.User
	if err := r.db.QueryRowxContext(ctx, query, arg).Scan(m.ScanTargets()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // services decide what a missing user means
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toDomainUser(&m), nil
}

// GetUserByID retrieves a user by their internal ID.
func (r *sqlxUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.getOne(ctx, "id = ?", userID)
}

// GetUserByEmail matches case-insensitively; emails are stored lower-cased.
func (r *sqlxUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

// GetUserByGoogleID retrieves a user by their Google ID.
func (r *sqlxUserRepository) GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return r.getOne(ctx, "google_id = ?", googleID)
}

// UpdateUser writes the mutable profile columns. The service decides which fields change.
func (r *sqlxUserRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()

	query := `UPDATE users SET
	            email = :email,
	            name = :name,
	            role = :role,
	            password_hash = :password_hash,
	            google_id = :google_id,
	            updated_at = :updated_at
	          WHERE id = :id AND deleted_at IS NULL`

	result, err := r.db.NamedExecContext(ctx, query, fromDomainUser(user))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("email or Google account is already linked to another user")
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("user %s not found", user.ID))
	}
	return nil
}

func toDomainUser(m *models.User) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name.String,
		Role:         domain.Role(m.Role),
		PasswordHash: m.PasswordHash.String,
		GoogleID:     m.GoogleID.String,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		DeletedAt:    util.NullTimeToPtr(m.DeletedAt),
	}
}

func fromDomainUser(u *domain.User) *models.User {
	if u == nil {
		return nil
	}
	role := u.Role
	if role == "" {
		role = domain.RolePatient
	}
	m := &models.User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         util.StringToNullString(u.Name),
		Role:         string(role),
		PasswordHash: util.StringToNullString(u.PasswordHash),
		GoogleID:     util.StringToNullString(u.GoogleID),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.DeletedAt != nil {
		m.DeletedAt = util.TimeToNullTime(*u.DeletedAt)
	}
	return m
}
