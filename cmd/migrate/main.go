package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"tokenhunter-event-gate/config"
	"tokenhunter-event-gate/db"
	pgmigrations "tokenhunter-event-gate/db/migrations/postgres"
	sqlitemigrations "tokenhunter-event-gate/db/migrations/sqlite"
	appfx "tokenhunter-event-gate/internal/app/fx"
	"tokenhunter-event-gate/internal/envutil"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

type MigrateCmd string

// MIGRATE_TARGET picks the database to migrate: "sqlite" (the Turso
// verdict log, default) or "postgres" (the events store).
func main() {
	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		appfx.CoreAppOptions,
		fx.Supply(MigrateCmd(cmd)),
		fx.Invoke(registerMigrateHook),
	)

	startCtx, startCancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

type migrateHookParams struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    *config.Config
	Logger *zap.SugaredLogger

	Cmd MigrateCmd
}

func registerMigrateHook(p migrateHookParams) {
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			target := strings.ToLower(envutil.String(os.Getenv, "MIGRATE_TARGET", "sqlite"))

			switch target {
			case "sqlite":
				return migrateSQLite(ctx, p)
			case "postgres":
				return migratePostgres(ctx, p)
			default:
				return fmt.Errorf("unknown MIGRATE_TARGET %q (want sqlite or postgres)", target)
			}
		},
	})
}

func migrateSQLite(ctx context.Context, p migrateHookParams) error {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetBaseFS(sqlitemigrations.FS)

	dsn := tursoDSNFromConfig(p.Cfg)
	if strings.TrimSpace(dsn) == "" {
		return errors.New("sqlite disabled: set TURSO_SQLITE_DSN and TURSO_SQLITE_TOKEN")
	}

	sqliteDB, err := sqlx.Open("libsql", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() {
		_ = sqliteDB.Close()
	}()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := sqliteDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	var one int
	if err := sqliteDB.QueryRowContext(pingCtx, "select 1").Scan(&one); err != nil {
		return fmt.Errorf("pong sqlite: %w", err)
	}
	p.Logger.Infow("✅ sqlite connection ok", tursoDSNLogFields(dsn)...)

	p.Logger.Infow("goose_run_start", "target", "sqlite", "cmd", string(p.Cmd))
	if err := goose.RunContext(ctx, string(p.Cmd), sqliteDB.DB, "."); err != nil {
		return fmt.Errorf("goose run %q: %w", p.Cmd, err)
	}
	p.Logger.Infow("goose_run_done", "target", "sqlite", "cmd", string(p.Cmd))
	return nil
}

func migratePostgres(ctx context.Context, p migrateHookParams) error {
	if strings.TrimSpace(p.Cfg.DBHost) == "" || strings.TrimSpace(p.Cfg.DBName) == "" {
		return errors.New("postgres disabled: set DB_HOST and DB_NAME")
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetBaseFS(pgmigrations.FS)

	pgDB, err := sqlx.Open("pgx", db.PostgresDSN(p.Cfg))
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer func() {
		_ = pgDB.Close()
	}()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pgDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	p.Logger.Infow("✅ postgres connection ok", "host", p.Cfg.DBHost, "db", p.Cfg.DBName)

	p.Logger.Infow("goose_run_start", "target", "postgres", "cmd", string(p.Cmd))
	if err := goose.RunContext(ctx, string(p.Cmd), pgDB.DB, "."); err != nil {
		return fmt.Errorf("goose run %q: %w", p.Cmd, err)
	}
	p.Logger.Infow("goose_run_done", "target", "postgres", "cmd", string(p.Cmd))
	return nil
}

func tursoDSNFromConfig(cfg *config.Config) string {
	dsn := strings.TrimSpace(cfg.Turso.DSN)
	if dsn == "" {
		dsn = strings.TrimSpace(cfg.Turso.Path)
	}
	return db.EnsureAuthTokenQuery(dsn, strings.TrimSpace(cfg.Turso.Token))
}

func tursoDSNLogFields(dsn string) []any {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return []any{"dsn", "unparseable"}
	}
	return []any{"scheme", u.Scheme, "host", u.Host}
}
