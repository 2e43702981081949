package dto

import (
	"time"

	"github.com/authlane/auth-server/internal/application/auth"
	"github.com/authlane/auth-server/internal/domain"
)

// UserView is the sanitized user payload. It has no secret-bearing fields.
type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewUserView(u domain.User) UserView {
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// LoginData is returned by login.
type LoginData struct {
	User         UserView `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
}

func NewLoginData(res auth.LoginResult) LoginData {
	return LoginData{
		User:         NewUserView(res.User),
		AccessToken:  res.Session.AccessToken,
		RefreshToken: res.Session.RefreshToken,
	}
}

// UserData wraps a single user for register and /me.
type UserData struct {
	User UserView `json:"user"`
}
