package migration

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	lorem "github.com/HandmadeNetwork/golorem"
	"github.com/quillpress/quill/src/config"
	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/models"
	"github.com/quillpress/quill/src/oops"
	"github.com/quillpress/quill/src/quilldata"
	"github.com/quillpress/quill/src/xp"
)

var seedTags = []string{"go", "postgres", "markdown", "c++", "gamedev", "web"}

/*
Migrates to the latest version and fills the database with a few users,
articles and a series. The GitHub ids used here are made up, so these users
can't actually sign in.
*/
func SampleSeed(ctx context.Context) error {
	if err := Migrate(ctx, LatestVersion()); err != nil {
		return err
	}

	conn, err := db.NewConnWithConfig(ctx, config.PostgresConfig{LogLevel: "warn"})
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return oops.New(err, "failed to start seed transaction")
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	fmt.Println("Creating users...")
	var users []*models.User
	for i, login := range []string{"alice", "bob", "charlie"} {
		user, err := quilldata.UpsertGitHubUser(ctx, tx, quilldata.GitHubProfile{
			ID:    int64(1000 + i),
			Login: login,
			Name:  strings.Title(login),
			Bio:   lorem.Paragraph(0, 2),
		}, now)
		if err != nil {
			return err
		}
		users = append(users, user)
	}

	fmt.Println("Creating articles...")
	var seriesArticles []models.SeriesArticle
	for i := 0; i < 8; i++ {
		author := users[i%len(users)]
		body := seedBody()
		sub := quilldata.ArticleSubmission{
			Title: strings.TrimSuffix(lorem.Sentence(3, 8), "."),
			Body:  body,
			Tags:  pickTags(),
		}
		if i%3 == 0 {
			sub.EditorIDs = []int64{users[(i+1)%len(users)].ID}
		}

		created := now.Add(-time.Duration(8-i) * 24 * time.Hour)
		article, err := quilldata.CreateArticle(ctx, tx, author.ID, sub, created)
		if err != nil {
			return err
		}
		if _, _, err := quilldata.AwardXP(ctx, tx, author.ID, xp.CreateStrategy, body); err != nil {
			return err
		}

		if i < 3 {
			seriesArticles = append(seriesArticles, models.SeriesArticle{
				ArticleID: article.ID,
				Ord:       i + 1,
				Title:     fmt.Sprintf("Part %d: %s", i+1, sub.Title),
			})
		}
	}

	fmt.Println("Creating a series...")
	if _, err := quilldata.CreateSeries(ctx, tx, "Getting started", lorem.Sentence(8, 16), seriesArticles); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.New(err, "failed to commit seed data")
	}
	fmt.Println("Done!")
	return nil
}

func seedBody() string {
	var b strings.Builder
	for i := 0; i < 2+rand.Intn(4); i++ {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if rand.Intn(3) == 0 {
			b.WriteString("## ")
			b.WriteString(strings.TrimSuffix(lorem.Sentence(2, 5), "."))
			b.WriteString("\n\n")
		}
		b.WriteString(lorem.Paragraph(2, 5))
	}
	b.WriteString("\n\n```go\nfmt.Println(\"hello\")\n```\n")
	return b.String()
}

func pickTags() []string {
	n := rand.Intn(3)
	tags := make([]string, 0, n)
	for i := 0; i < n; i++ {
		tags = append(tags, seedTags[rand.Intn(len(seedTags))])
	}
	return tags
}
