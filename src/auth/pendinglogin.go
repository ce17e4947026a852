package auth

import (
	"context"
	"errors"
	"time"

	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/models"
	"github.com/quillpress/quill/src/oops"
)

// How long a visitor has to come back from GitHub.
const pendingLoginDuration = 10 * time.Minute

var ErrNoPendingLogin = errors.New("no pending login found")

func CreatePendingLogin(ctx context.Context, conn db.ConnOrTx, destinationUrl string, now time.Time) (*models.PendingLogin, error) {
	pending := models.PendingLogin{
		ID:             makeToken(),
		DestinationUrl: destinationUrl,
		ExpiresAt:      now.Add(pendingLoginDuration),
	}
	_, err := conn.Exec(ctx,
		`INSERT INTO pending_login (id, destination_url, expires_at) VALUES ($1, $2, $3)`,
		pending.ID, pending.DestinationUrl, pending.ExpiresAt,
	)
	if err != nil {
		return nil, oops.New(err, "failed to save pending login")
	}
	return &pending, nil
}

// Looks up and deletes the pending login in one step, so an OAuth state can
// only ever be used once.
func ConsumePendingLogin(ctx context.Context, conn db.ConnOrTx, id string, now time.Time) (*models.PendingLogin, error) {
	pending, err := db.QueryOne[models.PendingLogin](ctx, conn,
		`
		DELETE FROM pending_login
		WHERE id = $1
		RETURNING $columns
		`,
		id,
	)
	if err != nil {
		if errors.Is(err, db.NotFound) {
			return nil, ErrNoPendingLogin
		}
		return nil, oops.New(err, "failed to consume pending login")
	}
	if !pending.ExpiresAt.After(now) {
		return nil, ErrNoPendingLogin
	}
	return pending, nil
}
