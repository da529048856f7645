package models

import (
	"database/sql"
	"time"
)

// User is a row of the users table.
type User struct {
	ID           string         `db:"id"`            // ULID
	Email        string         `db:"email"`         // lower-cased, unique
	Name         sql.NullString `db:"name"`          // display name
	Role         string         `db:"role"`          // patient, doctor or admin
	PasswordHash sql.NullString `db:"password_hash"` // bcrypt; NULL for Google-only accounts
	GoogleID     sql.NullString `db:"google_id"`     // Google's subject id
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	DeletedAt    sql.NullTime   `db:"deleted_at"`
}

// UserColumns is the select list matching User.ScanTargets.
const UserColumns = `id, email, name, role, password_hash, google_id, created_at, updated_at, deleted_at`

func (u *User) ScanTargets() []interface{} {
	return []interface{}{
		&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.GoogleID, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	}
}
