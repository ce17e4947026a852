package auth

import (
	"context"
	"time"

	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/jobs"
	"github.com/quillpress/quill/src/logging"
	"github.com/quillpress/quill/src/oops"
)

func DeleteExpiredSessions(ctx context.Context, conn db.ConnOrTx, now time.Time) (int64, error) {
	tag, err := conn.Exec(ctx, "DELETE FROM session WHERE expires_at <= $1", now)
	if err != nil {
		return 0, oops.New(err, "failed to delete expired sessions")
	}
	return tag.RowsAffected(), nil
}

func DeleteExpiredPendingLogins(ctx context.Context, conn db.ConnOrTx, now time.Time) (int64, error) {
	tag, err := conn.Exec(ctx, "DELETE FROM pending_login WHERE expires_at <= $1", now)
	if err != nil {
		return 0, oops.New(err, "failed to delete expired pending logins")
	}
	return tag.RowsAffected(), nil
}

func PeriodicallyDeleteExpiredStuff(conn db.ConnOrTx) *jobs.Job {
	return jobs.Periodic("delete expired sessions", time.Minute, func(ctx context.Context) error {
		logger := logging.ExtractLogger(ctx)
		now := time.Now()

		n, err := DeleteExpiredSessions(ctx, conn, now)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info().Int64("num deleted sessions", n).Msg("Deleted expired sessions")
		}

		n, err = DeleteExpiredPendingLogins(ctx, conn, now)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info().Int64("num deleted pending logins", n).Msg("Deleted expired pending logins")
		}
		return nil
	})
}
