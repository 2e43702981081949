package domain

import (
	"strings"
	"time"
)

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	RefreshToken string // empty when absent
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sanitized returns a copy without secret-bearing fields.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.RefreshToken = ""
	return u
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserPatch is a partial update applied atomically to one user record.
// Nil fields are left untouched.
type UserPatch struct {
	// RefreshToken replaces the stored refresh token; "" clears it.
	RefreshToken *string
}

func SetRefreshToken(token string) UserPatch {
	return UserPatch{RefreshToken: &token}
}

func ClearRefreshToken() UserPatch {
	empty := ""
	return UserPatch{RefreshToken: &empty}
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.RefreshToken == nil
}
