package migrations

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/quillpress/quill/src/migration/types"
)

func init() {
	registerMigration(Initial{})
}

type Initial struct{}

func (m Initial) Version() types.MigrationVersion {
	return types.MigrationVersion(time.Date(2026, 1, 10, 18, 30, 12, 0, time.UTC))
}

func (m Initial) Name() string {
	return "Initial"
}

func (m Initial) Description() string {
	return "Users, sessions, keys, articles and tags"
}

func (m Initial) Up(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		CREATE TABLE quill_user (
			id BIGINT PRIMARY KEY,
			login VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			xp INT NOT NULL DEFAULT 0,
			level INT NOT NULL DEFAULT 1,
			date_joined TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			last_login TIMESTAMP WITH TIME ZONE,
			CONSTRAINT level_matches_xp CHECK (level = xp / 100 + 1)
		);
		CREATE UNIQUE INDEX quill_user_login ON quill_user (LOWER(login));

		CREATE TABLE session (
			id VARCHAR(40) PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES quill_user (id) ON DELETE CASCADE,
			csrf_token VARCHAR(40) NOT NULL,
			expires_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE TABLE pending_login (
			id VARCHAR(40) PRIMARY KEY,
			destination_url TEXT NOT NULL,
			expires_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE TABLE keys (
			name VARCHAR(255) PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE article (
			id VARCHAR(32) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			body TEXT NOT NULL,
			author_id BIGINT NOT NULL REFERENCES quill_user (id) ON DELETE CASCADE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			discord BOOLEAN NOT NULL DEFAULT FALSE
		);
		CREATE INDEX article_author ON article (author_id);
		CREATE INDEX article_created_at ON article (created_at DESC);

		CREATE TABLE article_editor (
			article_id VARCHAR(32) NOT NULL REFERENCES article (id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL REFERENCES quill_user (id) ON DELETE CASCADE,
			PRIMARY KEY (article_id, user_id)
		);

		CREATE TABLE tag (
			name VARCHAR(30) PRIMARY KEY
		);

		CREATE TABLE article_tag (
			article_id VARCHAR(32) NOT NULL REFERENCES article (id) ON DELETE CASCADE,
			tag_name VARCHAR(30) NOT NULL REFERENCES tag (name),
			PRIMARY KEY (article_id, tag_name)
		);
		CREATE INDEX article_tag_by_tag ON article_tag (tag_name);
		`,
	)
	return err
}

func (m Initial) Down(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		DROP TABLE article_tag;
		DROP TABLE tag;
		DROP TABLE article_editor;
		DROP TABLE article;
		DROP TABLE keys;
		DROP TABLE pending_login;
		DROP TABLE session;
		DROP TABLE quill_user;
		`,
	)
	return err
}
