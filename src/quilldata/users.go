package quilldata

import (
	"context"
	"time"

	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/models"
	"github.com/quillpress/quill/src/oops"
	"github.com/quillpress/quill/src/xp"
)

func FetchUser(ctx context.Context, dbConn db.ConnOrTx, userID int64) (*models.User, error) {
	user, err := db.QueryOne[models.User](ctx, dbConn,
		`SELECT $columns FROM quill_user WHERE id = $1`,
		userID,
	)
	if err != nil {
		if err == db.NotFound {
			return nil, db.NotFound
		}
		return nil, oops.New(err, "failed to fetch user")
	}
	return user, nil
}

func FetchUsers(ctx context.Context, dbConn db.ConnOrTx, userIDs []int64) ([]*models.User, error) {
	users, err := db.Query[models.User](ctx, dbConn,
		`SELECT $columns FROM quill_user WHERE id = ANY ($1) ORDER BY login`,
		userIDs,
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch users")
	}
	return users, nil
}

type GitHubProfile struct {
	ID        int64
	Login     string
	Name      string
	AvatarUrl string
	Bio       string
}

/*
Creates the user on first sign-in and refreshes their profile on every
later one. XP and level are never touched here.
*/
func UpsertGitHubUser(ctx context.Context, dbConn db.ConnOrTx, profile GitHubProfile, now time.Time) (*models.User, error) {
	user, err := db.QueryOne[models.User](ctx, dbConn,
		`
		INSERT INTO quill_user (id, login, name, avatar_url, bio, date_joined, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (id) DO UPDATE SET
			login = EXCLUDED.login,
			name = EXCLUDED.name,
			avatar_url = EXCLUDED.avatar_url,
			bio = EXCLUDED.bio,
			last_login = EXCLUDED.last_login
		RETURNING $columns
		`,
		profile.ID,
		profile.Login,
		profile.Name,
		profile.AvatarUrl,
		profile.Bio,
		now,
	)
	if err != nil {
		return nil, oops.New(err, "failed to save user %s", profile.Login)
	}
	return user, nil
}

/*
Adds the XP earned by a submitted body. The new total and the matching
level are written by the same statement, and the row is locked first so two
submits by one user cannot both read the old total.
*/
func AwardXP(ctx context.Context, tx db.ConnOrTx, userID int64, strategy xp.Strategy, body string) (newXP int, level int, err error) {
	current, err := db.QueryOneScalar[int32](ctx, tx,
		`SELECT xp FROM quill_user WHERE id = $1 FOR UPDATE`,
		userID,
	)
	if err != nil {
		return 0, 0, oops.New(err, "failed to read xp for user %d", userID)
	}

	newXP, level = strategy.Apply(int(current), body)
	_, err = tx.Exec(ctx,
		`UPDATE quill_user SET xp = $2, level = $3 WHERE id = $1`,
		userID,
		newXP,
		level,
	)
	if err != nil {
		return 0, 0, oops.New(err, "failed to award xp to user %d", userID)
	}
	return newXP, level, nil
}
