package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"uti-assess/internal/domain"
	"uti-assess/internal/repository/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a new sqlx.DB instance and sqlmock for repository testing.
func setupTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	sqlxDB := sqlx.NewDb(mockDB, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })
	return sqlxDB, mock
}

var userColumnNames = []string{"id", "email", "name", "role", "password_hash", "google_id", "created_at", "updated_at", "deleted_at"}

// --- Tests for Converter Functions ---

func TestToDomainUser(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	modelUser := &models.User{
		ID:           "user1",
		Email:        "doc@example.com",
		Name:         sql.NullString{String: "Dr. Test", Valid: true},
		Role:         "doctor",
		PasswordHash: sql.NullString{String: "$2a$10$hash", Valid: true},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	u := toDomainUser(modelUser)
	require.NotNil(t, u)
	assert.Equal(t, "user1", u.ID)
	assert.Equal(t, "doc@example.com", u.Email)
	assert.Equal(t, "Dr. Test", u.Name)
	assert.Equal(t, domain.RoleDoctor, u.Role)
	assert.Equal(t, "$2a$10$hash", u.PasswordHash)
	assert.Empty(t, u.GoogleID)
	assert.Nil(t, u.DeletedAt)

	deleted := now.Add(-time.Hour)
	modelUser.DeletedAt = sql.NullTime{Time: deleted, Valid: true}
	u = toDomainUser(modelUser)
	require.NotNil(t, u.DeletedAt)
	assert.True(t, deleted.Equal(*u.DeletedAt))

	assert.Nil(t, toDomainUser(nil))
}

func TestFromDomainUser(t *testing.T) {
	u := &domain.User{ID: "user1", Email: "pat@example.com"}

	m := fromDomainUser(u)
	require.NotNil(t, m)
	assert.Equal(t, "patient", m.Role, "empty role is stored as patient")
	assert.False(t, m.Name.Valid)
	assert.False(t, m.PasswordHash.Valid)
	assert.False(t, m.GoogleID.Valid)
	assert.False(t, m.DeletedAt.Valid)

	u.GoogleID = "g-1"
	u.Role = domain.RoleAdmin
	m = fromDomainUser(u)
	assert.True(t, m.GoogleID.Valid)
	assert.Equal(t, "admin", m.Role)

	assert.Nil(t, fromDomainUser(nil))
}

// --- Tests for Adapter Methods ---

func TestSQLXUserRepository_GetUserByID_Success(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userColumnNames).
		AddRow("user-1", "doc@example.com", "Dr. Who", "doctor", "$2a$10$hash", nil, now, now, nil)

	mock.ExpectQuery(`SELECT id, email, name, role, password_hash, google_id, created_at, updated_at, deleted_at FROM users WHERE id = \? AND deleted_at IS NULL`).
		WithArgs("user-1").
		WillReturnRows(rows)

	u, err := repo.GetUserByID(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, domain.RoleDoctor, u.Role)
	assert.Equal(t, "Dr. Who", u.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXUserRepository_GetUserByID_NotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE id = \?`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	u, err := repo.GetUserByID(context.Background(), "missing")
	assert.NoError(t, err, "not found is not an error at this layer")
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXUserRepository_GetUserByEmail_Normalizes(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(`FROM users WHERE email = \?`).
		WithArgs("pat@example.com").
		WillReturnRows(sqlmock.NewRows(userColumnNames).
			AddRow("user-2", "pat@example.com", nil, "patient", "$2a$10$hash", nil, now, now, nil))

	u, err := repo.GetUserByEmail(context.Background(), "  Pat@Example.com ")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "user-2", u.ID)
	assert.Empty(t, u.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXUserRepository_GetUserByGoogleID_DBError(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE google_id = \?`).
		WithArgs("g-1").
		WillReturnError(errors.New("connection reset"))

	u, err := repo.GetUserByGoogleID(context.Background(), "g-1")
	assert.Error(t, err)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXUserRepository_CreateUser(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXUserRepository(db)
	ctx := context.Background()

	u := domain.NewUser("user-3", "new@example.com", "New", domain.RolePatient)
	u.PasswordHash = "$2a$10$hash"

	mock.ExpectExec(`INSERT INTO users \(id, email, name, role, password_hash, google_id, created_at, updated_at, deleted_at\)`).
		WithArgs("user-3", "new@example.com", "New", "patient", "$2a$10$hash", nil, sqlmock.AnyArg(), sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	assert.NoError(t, repo.CreateUser(ctx, u))

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(errors.New("UNIQUE constraint failed: users.email"))
	err := repo.CreateUser(ctx, u)
	assert.True(t, domain.HasCode(err, domain.CodeConflict))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXUserRepository_UpdateUser(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXUserRepository(db)
	ctx := context.Background()

	u := &domain.User{ID: "user-1", Email: "doc@example.com", Name: "Renamed", Role: domain.RoleDoctor}

	mock.ExpectExec(`UPDATE users SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdateUser(ctx, u))
	assert.False(t, u.UpdatedAt.IsZero())

	mock.ExpectExec(`UPDATE users SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateUser(ctx, u)
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}
