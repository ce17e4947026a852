package models

import (
	"time"
)

type Article struct {
	ID       string `db:"id"`
	Title    string `db:"title"`
	Body     string `db:"body"`
	AuthorID int64  `db:"author_id"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	// Stored exactly as submitted. See the announce checkbox handling in
	// the article form parser before "fixing" what looks like inverted logic.
	Discord bool `db:"discord"`
}

func (a *Article) CanEdit(userID int64, editorIDs []int64) bool {
	if a.AuthorID == userID {
		return true
	}
	for _, id := range editorIDs {
		if id == userID {
			return true
		}
	}
	return false
}
