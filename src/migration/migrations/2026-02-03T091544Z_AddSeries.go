package migrations

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/quillpress/quill/src/migration/types"
)

func init() {
	registerMigration(AddSeries{})
}

type AddSeries struct{}

func (m AddSeries) Version() types.MigrationVersion {
	return types.MigrationVersion(time.Date(2026, 2, 3, 9, 15, 44, 0, time.UTC))
}

func (m AddSeries) Name() string {
	return "AddSeries"
}

func (m AddSeries) Description() string {
	return "Add ordered article series"
}

func (m AddSeries) Up(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		CREATE TABLE series (
			id SERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE series_article (
			series_id INT NOT NULL REFERENCES series (id) ON DELETE CASCADE,
			article_id VARCHAR(32) NOT NULL REFERENCES article (id) ON DELETE CASCADE,
			ord INT NOT NULL,
			title VARCHAR(255) NOT NULL,
			PRIMARY KEY (series_id, article_id)
		);
		`,
	)
	return err
}

func (m AddSeries) Down(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		DROP TABLE series_article;
		DROP TABLE series;
		`,
	)
	return err
}
