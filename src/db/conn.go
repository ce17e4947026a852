package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	zerologadapter "github.com/jackc/pgx-zerolog"
	"github.com/quillpress/quill/src/config"
	"github.com/quillpress/quill/src/logging"
	"github.com/quillpress/quill/src/oops"
	"github.com/quillpress/quill/src/utils"
)

// Matches a pool, a single connection, or a transaction.
type ConnOrTx interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// On a transaction this starts a savepoint. See pgx.Tx.Begin.
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Opens a single connection, used by the CLI commands. Not safe for
// concurrent use.
func NewConn(ctx context.Context) (*pgx.Conn, error) {
	return NewConnWithConfig(ctx, config.PostgresConfig{})
}

func NewConnWithConfig(ctx context.Context, cfg config.PostgresConfig) (*pgx.Conn, error) {
	cfg = overrideDefaultConfig(cfg)

	pgcfg, err := pgx.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, oops.New(err, "invalid database config")
	}
	pgcfg.Tracer = newTracer(cfg)

	conn, err := pgx.ConnectConfig(ctx, pgcfg)
	if err != nil {
		return nil, oops.New(err, "failed to connect to database")
	}
	return conn, nil
}

// Creates the pool the web server runs on.
func NewConnPool(ctx context.Context) (*pgxpool.Pool, error) {
	return NewConnPoolWithConfig(ctx, config.PostgresConfig{})
}

func NewConnPoolWithConfig(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	cfg = overrideDefaultConfig(cfg)

	pgcfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, oops.New(err, "invalid database config")
	}
	pgcfg.MinConns = cfg.MinConn
	pgcfg.MaxConns = cfg.MaxConn
	pgcfg.ConnConfig.Tracer = newTracer(cfg)

	pool, err := pgxpool.NewWithConfig(ctx, pgcfg)
	if err != nil {
		return nil, oops.New(err, "failed to create database connection pool")
	}
	return pool, nil
}

func newTracer(cfg config.PostgresConfig) pgx.QueryTracer {
	return &tracelog.TraceLog{
		Logger:   zerologadapter.NewLogger(*logging.GlobalLogger()),
		LogLevel: cfg.TraceLogLevel(),
	}
}

func overrideDefaultConfig(cfg config.PostgresConfig) config.PostgresConfig {
	def := config.Config.Postgres
	return config.PostgresConfig{
		User:     utils.OrDefault(cfg.User, def.User),
		Password: utils.OrDefault(cfg.Password, def.Password),
		Hostname: utils.OrDefault(cfg.Hostname, def.Hostname),
		Port:     utils.OrDefault(cfg.Port, def.Port),
		DbName:   utils.OrDefault(cfg.DbName, def.DbName),
		LogLevel: utils.OrDefault(cfg.LogLevel, def.LogLevel),
		MinConn:  utils.OrDefault(cfg.MinConn, def.MinConn),
		MaxConn:  utils.OrDefault(cfg.MaxConn, def.MaxConn),
	}
}
