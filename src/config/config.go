package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is populated with defaults at startup and overwritten by Load.
var Config = QuillConfig{
	Env:      Dev,
	Addr:     ":9001",
	BaseUrl:  "http://localhost:9001",
	LogLevel: "debug",
	Postgres: PostgresConfig{
		User:     "quill",
		Password: "password",
		Hostname: "localhost",
		Port:     5432,
		DbName:   "quill",
		LogLevel: "warn",
		MinConn:  2,
		MaxConn:  10,
	},
	Auth: AuthConfig{
		CookieDomain: "localhost",
		CookieSecure: false,
	},
	GitHub: GitHubConfig{
		ImageBranch:   "main",
		ImageDir:      "images",
		CredentialKey: "github",
	},
	Images: ImagesConfig{
		Backend:    ImageBackendGitHub,
		MaxSize:    10 * 1024 * 1024,
		SessionTTL: 6 * time.Hour,
	},
	S3: S3Config{
		Region:     "us-east-1",
		Endpoint:   "http://localhost:9003",
		Bucket:     "quill-images",
		PublicBase: "http://localhost:9003",
	},
}

/*
Load reads configuration from a YAML file and from QUILL_* environment
variables, layered on top of the defaults in Config. Nested keys use
underscores in the environment, e.g. QUILL_POSTGRES_HOSTNAME.

If path is empty, quill.yaml is looked up in the working directory and a
missing file is not an error.
*/
func Load(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("quill")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("QUILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Config)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return err
		}
	}

	var loaded QuillConfig
	if err := v.Unmarshal(&loaded); err != nil {
		return err
	}
	Config = loaded
	return nil
}

// Viper only consults the environment for keys it already knows about, so
// every key gets registered with its current value as the default.
func setDefaults(v *viper.Viper, c QuillConfig) {
	v.SetDefault("env", string(c.Env))
	v.SetDefault("addr", c.Addr)
	v.SetDefault("baseurl", c.BaseUrl)
	v.SetDefault("loglevel", c.LogLevel)

	v.SetDefault("postgres.user", c.Postgres.User)
	v.SetDefault("postgres.password", c.Postgres.Password)
	v.SetDefault("postgres.hostname", c.Postgres.Hostname)
	v.SetDefault("postgres.port", c.Postgres.Port)
	v.SetDefault("postgres.dbname", c.Postgres.DbName)
	v.SetDefault("postgres.loglevel", c.Postgres.LogLevel)
	v.SetDefault("postgres.minconn", c.Postgres.MinConn)
	v.SetDefault("postgres.maxconn", c.Postgres.MaxConn)

	v.SetDefault("auth.cookiedomain", c.Auth.CookieDomain)
	v.SetDefault("auth.cookiesecure", c.Auth.CookieSecure)

	v.SetDefault("github.clientid", c.GitHub.ClientID)
	v.SetDefault("github.clientsecret", c.GitHub.ClientSecret)
	v.SetDefault("github.org", c.GitHub.Org)
	v.SetDefault("github.imagerepoowner", c.GitHub.ImageRepoOwner)
	v.SetDefault("github.imagerepo", c.GitHub.ImageRepo)
	v.SetDefault("github.imagebranch", c.GitHub.ImageBranch)
	v.SetDefault("github.imagedir", c.GitHub.ImageDir)
	v.SetDefault("github.credentialkey", c.GitHub.CredentialKey)

	v.SetDefault("images.backend", string(c.Images.Backend))
	v.SetDefault("images.maxsize", c.Images.MaxSize)
	v.SetDefault("images.sessionttl", c.Images.SessionTTL)

	v.SetDefault("s3.key", c.S3.Key)
	v.SetDefault("s3.secret", c.S3.Secret)
	v.SetDefault("s3.region", c.S3.Region)
	v.SetDefault("s3.endpoint", c.S3.Endpoint)
	v.SetDefault("s3.bucket", c.S3.Bucket)
	v.SetDefault("s3.publicbase", c.S3.PublicBase)

	v.SetDefault("discord.webhookurl", c.Discord.WebhookURL)
}
