package models

import (
	"time"
)

// Users are keyed by their GitHub account id.
type User struct {
	ID int64 `db:"id"`

	Login     string `db:"login"`
	Name      string `db:"name"`
	AvatarUrl string `db:"avatar_url"`
	Bio       string `db:"bio"`

	XP    int `db:"xp"`
	Level int `db:"level"`

	DateJoined time.Time  `db:"date_joined"`
	LastLogin  *time.Time `db:"last_login"`
}

func (u *User) BestName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Login
}
