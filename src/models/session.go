package models

import "time"

type Session struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	CSRFToken string    `db:"csrf_token"`
	ExpiresAt time.Time `db:"expires_at"`
}

// Created when a visitor is sent to GitHub; the ID doubles as the OAuth state.
type PendingLogin struct {
	ID             string    `db:"id"`
	DestinationUrl string    `db:"destination_url"`
	ExpiresAt      time.Time `db:"expires_at"`
}
