package admintools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/quillpress/quill/src/config"
	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/models"
	"github.com/quillpress/quill/src/quilldata"
	"github.com/quillpress/quill/src/website"
	"github.com/spf13/cobra"
)

func init() {
	adminCommand := &cobra.Command{
		Use:   "admin",
		Short: "Miscellaneous admin commands",
	}
	website.WebsiteCommand.AddCommand(adminCommand)

	setKeyCommand := &cobra.Command{
		Use:   "setkey [name] [value]",
		Short: "Store a credential in the keys table",
		Long:  fmt.Sprintf("Store a credential in the keys table. The image upload token lives under %q.", config.Config.GitHub.CredentialKey),
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 2 {
				fmt.Printf("You must provide a name and a value.\n\n")
				cmd.Usage()
				os.Exit(1)
			}

			ctx := context.Background()
			conn := mustConn(ctx)
			defer conn.Close(ctx)

			if err := quilldata.SetKey(ctx, conn, args[0], args[1]); err != nil {
				panic(err)
			}
			fmt.Printf("Stored key '%s'\n", args[0])
		},
	}
	adminCommand.AddCommand(setKeyCommand)

	getKeyCommand := &cobra.Command{
		Use:   "getkey [name]",
		Short: "Print a credential from the keys table",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 {
				fmt.Printf("You must provide a name.\n\n")
				cmd.Usage()
				os.Exit(1)
			}

			ctx := context.Background()
			conn := mustConn(ctx)
			defer conn.Close(ctx)

			value, err := quilldata.GetKey(ctx, conn, args[0])
			if err != nil {
				if errors.Is(err, db.NotFound) {
					fmt.Printf("Key '%s' not found\n", args[0])
					os.Exit(1)
				}
				panic(err)
			}
			fmt.Println(value)
		},
	}
	adminCommand.AddCommand(getKeyCommand)

	addEditorCommand := &cobra.Command{
		Use:   "addeditor [article id] [user id]...",
		Short: "Let users edit someone else's article",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 2 {
				fmt.Printf("You must provide an article id and at least one user id.\n\n")
				cmd.Usage()
				os.Exit(1)
			}
			userIDs, err := parseUserIDs(args[1:])
			if err != nil {
				fmt.Printf("%v\n", err)
				os.Exit(1)
			}

			ctx := context.Background()
			conn := mustConn(ctx)
			defer conn.Close(ctx)

			tx, err := conn.Begin(ctx)
			if err != nil {
				panic(err)
			}
			defer tx.Rollback(ctx)

			article, err := quilldata.FetchArticle(ctx, tx, args[0])
			if err != nil {
				if errors.Is(err, db.NotFound) {
					fmt.Printf("Article '%s' not found\n", args[0])
					os.Exit(1)
				}
				panic(err)
			}

			existing, err := quilldata.FetchEditorIDs(ctx, tx, article.Article.ID)
			if err != nil {
				panic(err)
			}
			_, err = quilldata.UpdateArticle(ctx, tx, &article.Article, quilldata.ArticleSubmission{
				Title:     article.Article.Title,
				Body:      article.Article.Body,
				Tags:      article.Tags,
				EditorIDs: append(existing, userIDs...),
			}, article.Article.UpdatedAt)
			if err != nil {
				panic(err)
			}
			if err := tx.Commit(ctx); err != nil {
				panic(err)
			}
			fmt.Printf("Updated editors of '%s'\n", article.Article.Title)
		},
	}
	adminCommand.AddCommand(addEditorCommand)

	createSeriesCommand := &cobra.Command{
		Use:   "createseries [article id]...",
		Short: "Group articles into a series, in the order given",
		Run: func(cmd *cobra.Command, args []string) {
			title, _ := cmd.Flags().GetString("title")
			description, _ := cmd.Flags().GetString("description")

			ctx := context.Background()
			conn := mustConn(ctx)
			defer conn.Close(ctx)

			tx, err := conn.Begin(ctx)
			if err != nil {
				panic(err)
			}
			defer tx.Rollback(ctx)

			var entries []models.SeriesArticle
			for i, id := range args {
				article, err := quilldata.FetchArticle(ctx, tx, id)
				if err != nil {
					if errors.Is(err, db.NotFound) {
						fmt.Printf("Article '%s' not found\n", id)
						os.Exit(1)
					}
					panic(err)
				}
				entries = append(entries, models.SeriesArticle{
					ArticleID: article.Article.ID,
					Ord:       i + 1,
					Title:     article.Article.Title,
				})
			}

			seriesID, err := quilldata.CreateSeries(ctx, tx, title, description, entries)
			if err != nil {
				panic(err)
			}
			if err := tx.Commit(ctx); err != nil {
				panic(err)
			}
			fmt.Printf("Created series %d with %d articles\n", seriesID, len(entries))
		},
	}
	createSeriesCommand.Flags().String("title", "", "")
	createSeriesCommand.Flags().String("description", "", "")
	createSeriesCommand.MarkFlagRequired("title")
	adminCommand.AddCommand(createSeriesCommand)
}

func parseUserIDs(args []string) ([]int64, error) {
	var ids []int64
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("'%s' is not a user id", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
