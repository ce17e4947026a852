package migration

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/migration/migrations"
	"github.com/quillpress/quill/src/migration/types"
	"github.com/quillpress/quill/src/oops"
	"github.com/quillpress/quill/src/website"
	"github.com/spf13/cobra"
)

func init() {
	var listMigrations bool
	migrateCommand := &cobra.Command{
		Use:   "migrate [target migration id]",
		Short: "Run database migrations",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			if listMigrations {
				ListMigrations(ctx)
				return
			}

			var target types.MigrationVersion
			if len(args) > 0 {
				t, err := time.Parse(time.RFC3339, args[0])
				if err != nil {
					fmt.Printf("ERROR: bad version string: %v\n", err)
					os.Exit(1)
				}
				target = types.MigrationVersion(t)
			}
			if err := Migrate(ctx, target); err != nil {
				fmt.Printf("ERROR: %v\n", err)
				os.Exit(1)
			}
		},
	}
	migrateCommand.Flags().BoolVar(&listMigrations, "list", false, "List available migrations")

	makeMigrationCommand := &cobra.Command{
		Use:   "makemigration <name> <description>...",
		Short: "Create a new database migration file",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 2 {
				fmt.Printf("You must provide a name and a description.\n\n")
				cmd.Usage()
				os.Exit(1)
			}
			if err := MakeMigration(args[0], strings.Join(args[1:], " ")); err != nil {
				fmt.Printf("ERROR: %v\n", err)
				os.Exit(1)
			}
		},
	}

	seedCommand := &cobra.Command{
		Use:   "seed",
		Short: "Migrate to the latest version and fill the database with sample data",
		Run: func(cmd *cobra.Command, args []string) {
			if err := SampleSeed(context.Background()); err != nil {
				fmt.Printf("ERROR: %v\n", err)
				os.Exit(1)
			}
		},
	}

	website.WebsiteCommand.AddCommand(migrateCommand)
	website.WebsiteCommand.AddCommand(makeMigrationCommand)
	website.WebsiteCommand.AddCommand(seedCommand)
}

func getSortedMigrationVersions() []types.MigrationVersion {
	var allVersions []types.MigrationVersion
	for version := range migrations.All {
		allVersions = append(allVersions, version)
	}
	sort.Slice(allVersions, func(i, j int) bool {
		return allVersions[i].Before(allVersions[j])
	})
	return allVersions
}

func LatestVersion() types.MigrationVersion {
	allVersions := getSortedMigrationVersions()
	return allVersions[len(allVersions)-1]
}

func getCurrentVersion(ctx context.Context, conn db.ConnOrTx) (types.MigrationVersion, error) {
	current, err := db.QueryOneScalar[time.Time](ctx, conn, `SELECT version FROM quill_migration`)
	if err != nil {
		return types.MigrationVersion{}, err
	}
	return types.MigrationVersion(current.UTC()), nil
}

func ListMigrations(ctx context.Context) {
	var currentVersion types.MigrationVersion
	if conn, err := db.NewConn(ctx); err == nil {
		currentVersion, _ = getCurrentVersion(ctx, conn)
		conn.Close(ctx)
	}

	for _, version := range getSortedMigrationVersions() {
		migration := migrations.All[version]
		indicator := "  "
		if version.Equal(currentVersion) {
			indicator = "✔ "
		}
		fmt.Printf("%s%v (%s: %s)\n", indicator, version, migration.Name(), migration.Description())
	}
}

/*
Moves the database to the target version, rolling forward or back as needed.
A zero target means the latest migration. Each migration runs in its own
transaction together with the version bump.
*/
func Migrate(ctx context.Context, targetVersion types.MigrationVersion) error {
	conn, err := db.NewConn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS quill_migration (
			version TIMESTAMP WITH TIME ZONE
		)
	`)
	if err != nil {
		return oops.New(err, "failed to create migration table")
	}

	numRows, err := db.QueryOneScalar[int64](ctx, conn, `SELECT COUNT(*) FROM quill_migration`)
	if err != nil {
		return oops.New(err, "failed to count migration rows")
	}
	if numRows < 1 {
		_, err := conn.Exec(ctx, `INSERT INTO quill_migration (version) VALUES ($1)`, time.Time{})
		if err != nil {
			return oops.New(err, "failed to insert initial migration row")
		}
	}

	currentVersion, err := getCurrentVersion(ctx, conn)
	if err != nil {
		return oops.New(err, "failed to get current version")
	}
	if currentVersion.IsZero() {
		fmt.Println("This is the first time you have run database migrations.")
	} else {
		fmt.Printf("Current version: %s\n", currentVersion)
	}

	allVersions := getSortedMigrationVersions()
	if targetVersion.IsZero() {
		targetVersion = allVersions[len(allVersions)-1]
	}

	currentIndex := -1
	targetIndex := -1
	for i, version := range allVersions {
		if currentVersion.Equal(version) {
			currentIndex = i
		}
		if targetVersion.Equal(version) {
			targetIndex = i
		}
	}
	if targetIndex < 0 {
		return oops.New(nil, "could not find migration with version %v", targetVersion)
	}

	switch {
	case currentIndex < targetIndex:
		for i := currentIndex + 1; i <= targetIndex; i++ {
			version := allVersions[i]
			migration := migrations.All[version]
			fmt.Printf("Applying migration %v (%v)\n", version, migration.Name())
			if err := runStep(ctx, conn, migration.Up, version); err != nil {
				return oops.New(err, "migration %v failed", version)
			}
		}
	case currentIndex > targetIndex:
		for i := currentIndex; i > targetIndex; i-- {
			version := allVersions[i]
			var previousVersion types.MigrationVersion
			if i > 0 {
				previousVersion = allVersions[i-1]
			}
			fmt.Printf("Rolling back migration %v\n", version)
			if err := runStep(ctx, conn, migrations.All[version].Down, previousVersion); err != nil {
				return oops.New(err, "rollback of %v failed", version)
			}
		}
	default:
		fmt.Println("Already migrated; nothing to do.")
	}
	return nil
}

func runStep(ctx context.Context, conn *pgx.Conn, step func(context.Context, pgx.Tx) error, newVersion types.MigrationVersion) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return oops.New(err, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	if err := step(ctx, tx); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `UPDATE quill_migration SET version = $1`, time.Time(newVersion))
	if err != nil {
		return oops.New(err, "failed to update version in migrations table")
	}

	return tx.Commit(ctx)
}

//go:embed migrationTemplate.txt
var migrationTemplate string

func MakeMigration(name, description string) error {
	now := time.Now().UTC()
	result := migrationTemplate
	result = strings.ReplaceAll(result, "%NAME%", name)
	result = strings.ReplaceAll(result, "%DESCRIPTION%", fmt.Sprintf("%#v", description))
	result = strings.ReplaceAll(result, "%DATE%", fmt.Sprintf("time.Date(%d, %d, %d, %d, %d, %d, 0, time.UTC)",
		now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second()))

	safeVersion := strings.ReplaceAll(types.MigrationVersion(now).String(), ":", "")
	path := filepath.Join("src", "migration", "migrations", fmt.Sprintf("%v_%v.go", safeVersion, name))

	if err := os.WriteFile(path, []byte(result), 0644); err != nil {
		return oops.New(err, "failed to write migration file")
	}

	fmt.Println("Successfully created migration file:")
	fmt.Println(path)
	return nil
}
