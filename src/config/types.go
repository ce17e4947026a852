package config

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

type Environment string

const (
	Live Environment = "live"
	Beta Environment = "beta"
	Dev  Environment = "dev"
)

type QuillConfig struct {
	Env      Environment
	Addr     string
	BaseUrl  string
	LogLevel string
	Postgres PostgresConfig
	Auth     AuthConfig
	GitHub   GitHubConfig
	Images   ImagesConfig
	S3       S3Config
	Discord  DiscordConfig
}

// Parsed form of LogLevel. Unknown values fall back to info.
func (c QuillConfig) ZerologLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return level
}

type PostgresConfig struct {
	User     string
	Password string
	Hostname string
	Port     int
	DbName   string
	LogLevel string
	MinConn  int32
	MaxConn  int32
}

func (info PostgresConfig) DSN() string {
	return fmt.Sprintf("user=%s password=%s host=%s port=%d dbname=%s", info.User, info.Password, info.Hostname, info.Port, info.DbName)
}

func (info PostgresConfig) TraceLogLevel() tracelog.LogLevel {
	level, err := tracelog.LogLevelFromString(info.LogLevel)
	if err != nil {
		return tracelog.LogLevelWarn
	}
	return level
}

type AuthConfig struct {
	CookieDomain string
	CookieSecure bool
}

type GitHubConfig struct {
	ClientID     string
	ClientSecret string

	// Only members of this organization may sign in.
	Org string

	// Where externalized article images are committed.
	ImageRepoOwner string
	ImageRepo      string
	ImageBranch    string
	ImageDir       string

	// Name of the row in the keys table holding the upload token.
	CredentialKey string
}

type ImageBackend string

const (
	ImageBackendGitHub ImageBackend = "github"
	ImageBackendS3     ImageBackend = "s3"
)

type ImagesConfig struct {
	Backend ImageBackend

	// Largest single image accepted into an edit session, in bytes.
	MaxSize int

	// Edit sessions idle for longer than this are discarded.
	SessionTTL time.Duration
}

type S3Config struct {
	Key        string
	Secret     string
	Region     string
	Endpoint   string
	Bucket     string
	PublicBase string
}

type DiscordConfig struct {
	// Article announcements are posted here. Empty disables announcements.
	WebhookURL string
}
