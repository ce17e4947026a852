package website

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/quillpress/quill/src/assets"
	"github.com/quillpress/quill/src/auth"
	"github.com/quillpress/quill/src/config"
	"github.com/quillpress/quill/src/db"
	"github.com/quillpress/quill/src/github"
	"github.com/quillpress/quill/src/imagepipe"
	"github.com/quillpress/quill/src/jobs"
	"github.com/quillpress/quill/src/logging"
	"github.com/quillpress/quill/src/oops"
	"github.com/quillpress/quill/src/quilldata"
	"github.com/quillpress/quill/src/quillurl"
	"github.com/quillpress/quill/src/templates"
	"github.com/spf13/cobra"
)

const editSessionEvictionInterval = 5 * time.Minute

var configPath string

var WebsiteCommand = &cobra.Command{
	Use:   "quill",
	Short: "Run the Quill website",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := config.Load(configPath); err != nil {
			logging.Fatal().Err(err).Msg("failed to load config")
		}
		logging.SetLevel(config.Config.ZerologLevel())
		quillurl.SetGlobalBaseUrl(config.Config.BaseUrl)
	},
	Run: func(cmd *cobra.Command, args []string) {
		defer logging.LogPanics(nil)
		logging.Info().Str("env", string(config.Config.Env)).Msg("Hello, Quill!")

		templates.Init()

		var wg sync.WaitGroup

		conn, err := db.NewConnPool(context.Background())
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to connect to the database")
		}
		defer conn.Close()

		images, err := newImagePipeline(context.Background(), conn)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to set up image storage")
		}
		editSessions := imagepipe.NewSessions(config.Config.Images.SessionTTL)

		site := &Site{
			Conn:         conn,
			Images:       images,
			EditSessions: editSessions,
			Submits:      NewSubmitGuard(),
			MaxImageSize: config.Config.Images.MaxSize,
			Now:          time.Now,
		}

		// Start background jobs
		wg.Add(1)
		backgroundJobs := jobs.Jobs{
			auth.PeriodicallyDeleteExpiredStuff(conn),
			editSessions.StartEvictionJob(editSessionEvictionInterval),
		}

		// Create HTTP server
		wg.Add(1)
		server := http.Server{
			Addr:    config.Config.Addr,
			Handler: NewWebsiteRoutes(site),
		}
		go func() {
			logging.Info().Str("addr", config.Config.Addr).Msg("Serving the website")
			serverErr := server.ListenAndServe()
			if !errors.Is(serverErr, http.ErrServerClosed) {
				logging.Error().Err(serverErr).Msg("Server shut down unexpectedly")
			}
			// The wg.Done() happens in the shutdown logic below.
		}()

		// Wait for SIGINT in the background and trigger graceful shutdown
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt)
		go func() {
			<-signals // First SIGINT (start shutdown)
			logging.Info().Msg("Shutting down the website")

			const timeout = 10 * time.Second

			go func() {
				logging.Info().Msg("Shutting down background jobs...")
				unfinished := backgroundJobs.CancelAndWait(timeout)
				if len(unfinished) == 0 {
					logging.Info().Msg("Background jobs closed gracefully")
				} else {
					logging.Warn().Strs("Unfinished", unfinished).Msg("Background jobs did not finish by the deadline")
				}
				wg.Done()
			}()

			// Gracefully shut down the HTTP server
			go func() {
				timeoutCtx, cancel := context.WithTimeout(context.Background(), timeout)
				defer cancel()
				err := server.Shutdown(timeoutCtx)
				if err != nil {
					logging.Warn().Err(err).Msg("Server did not shut down gracefully")
				}
				wg.Done()
			}()

			<-signals // Second SIGINT (force quit)
			logging.Warn().Strs("Unfinished background jobs", backgroundJobs.ListUnfinished()).Msg("Forcibly killed the website")
			os.Exit(1)
		}()

		// Wait for all of the above to finish, then exit
		wg.Wait()
	},
}

func init() {
	WebsiteCommand.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default ./quill.yaml)")
}

// The GitHub backend authenticates with a token kept in the keys table. S3
// credentials come from the config, so that store needs no credential lookup.
func newImagePipeline(ctx context.Context, conn db.ConnOrTx) (*imagepipe.Pipeline, error) {
	cfg := config.Config
	switch cfg.Images.Backend {
	case config.ImageBackendGitHub:
		return &imagepipe.Pipeline{
			Store:       github.NewContentStore(cfg.GitHub),
			Grammar:     imagepipe.EditorGrammar,
			Credentials: quilldata.ImageCredential(conn, cfg.GitHub.CredentialKey),
		}, nil
	case config.ImageBackendS3:
		store, err := assets.NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return &imagepipe.Pipeline{
			Store:   store,
			Grammar: imagepipe.EditorGrammar,
		}, nil
	default:
		return nil, oops.New(nil, "unknown image backend '%s'", cfg.Images.Backend)
	}
}
