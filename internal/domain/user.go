package domain

import "time"

type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	LoginToken  *string    `json:"-"`
	TokenExpiry *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
}

// HasPendingLogin indica si el usuario tiene un token de login vigente.
func (u User) HasPendingLogin(now time.Time) bool {
	return u.LoginToken != nil && u.TokenExpiry != nil && now.Before(*u.TokenExpiry)
}
