package postgres

import (
	"database/sql"
	"time"

	"github.com/authlane/auth-server/internal/domain"
)

// userRow mirrors the users table.
type userRow struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	RefreshToken sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const userColumns = `id, username, email, password_hash, refresh_token, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserRow(row rowScanner) (userRow, error) {
	var ur userRow
	err := row.Scan(
		&ur.ID,
		&ur.Username,
		&ur.Email,
		&ur.PasswordHash,
		&ur.RefreshToken,
		&ur.CreatedAt,
		&ur.UpdatedAt,
	)
	return ur, err
}

func (ur userRow) toDomain() domain.User {
	return domain.User{
		ID:           ur.ID,
		Username:     ur.Username,
		Email:        ur.Email,
		PasswordHash: ur.PasswordHash,
		RefreshToken: ur.RefreshToken.String,
		CreatedAt:    ur.CreatedAt.UTC(),
		UpdatedAt:    ur.UpdatedAt.UTC(),
	}
}
