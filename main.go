// Command livechat-viewer resolves a YouTube video's live chat and keeps the
// 50 newest messages on screen. It:
//   - Loads configuration and initializes structured logging.
//   - Optionally connects to Postgres, archives every new message and prunes
//     old ones.
//   - Serves the widget over HTTP (HTML, JSON, SSE, WebSocket) or, with
//     UI_MODE=tui, runs it in the terminal.
//   - Submits VIDEO_ID/YT_API_KEY at startup when both are set.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/onnwee/livechat-viewer/chat"
	"github.com/onnwee/livechat-viewer/config"
	"github.com/onnwee/livechat-viewer/db"
	"github.com/onnwee/livechat-viewer/server"
	"github.com/onnwee/livechat-viewer/telemetry"
	"github.com/onnwee/livechat-viewer/tui"
	"github.com/onnwee/livechat-viewer/ui"
	"github.com/onnwee/livechat-viewer/youtubeapi"
)

const (
	serviceName    = "livechat-viewer"
	serviceVersion = "1.0.0"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	closeLog := setupLogging(cfg)
	defer closeLog()

	telemetry.Init()
	shutdown, err := telemetry.InitTracing(serviceName, serviceVersion)
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("exiting", slog.Any("err", err))
		stop()
		os.Exit(1)
	}
	slog.Info("shut down")
}

func run(ctx context.Context, cfg *config.Config) error {
	api, err := youtubeapi.New(ctx, cfg)
	if err != nil {
		return err
	}

	opts := chat.Options{API: api, PollInterval: cfg.PollInterval}
	deps := server.Deps{View: ui.Options{Location: cfg.Location, TimeLayout: cfg.TimeLayout}}
	if cfg.ArchiveEnabled() {
		database, err := openArchive(ctx, cfg.DBDsn)
		if err != nil {
			return err
		}
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
		go db.StartRetentionJob(ctx, database, db.LoadRetentionPolicy())
		archive := &db.Archive{DB: database}
		opts.Sink = archive
		deps.Archive = archive
	} else {
		slog.Info("message archive disabled (DB_DSN not set)")
	}

	session := chat.NewSession(ctx, opts)
	defer session.Close()
	deps.Session = session
	slog.Info("session created", slog.String("session_id", session.ID), slog.Duration("poll_interval", cfg.PollInterval))

	if err := cfg.ValidateAutoSubmit(); err == nil {
		go func() {
			st := session.Submit(ctx, cfg.VideoID, cfg.APIKey)
			slog.Info("startup submit finished", slog.String("status", string(st.Status())), slog.String("error", st.Error))
		}()
	}

	if cfg.UIMode == config.UIModeTUI {
		return tui.Run(ctx, session, deps.View)
	}

	return server.Start(ctx, server.NewMux(ctx, deps), cfg.HTTPAddr)
}

// openArchive connects and migrates. Versioned migrations are primary; the
// embedded schema is applied when they cannot run.
func openArchive(ctx context.Context, dsn string) (*sql.DB, error) {
	database, err := db.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	slog.Info("running database migrations", slog.String("component", "db_migrate"))
	if err := db.RunMigrations(database); err != nil {
		slog.Warn("versioned migrations failed, applying embedded schema", slog.Any("err", err), slog.String("component", "db_migrate"))
		if err := db.Migrate(ctx, database); err != nil {
			_ = database.Close()
			return nil, err
		}
	}
	return database, nil
}

// setupLogging installs the default logger. In tui mode the log goes to a file
// so it does not tear the screen.
func setupLogging(cfg *config.Config) func() {
	lvl, ok := telemetry.ParseLevel(cfg.LogLevel)
	var w io.Writer = os.Stdout
	closer := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			slog.Error("open log file failed, logging to stdout", slog.String("path", cfg.LogFile), slog.Any("err", err))
		} else {
			w = f
			closer = func() { _ = f.Close() }
		}
	}
	slog.SetDefault(telemetry.NewLogger(w, lvl, cfg.LogFormat))
	if !ok {
		slog.Warn("unknown LOG_LEVEL, using info", slog.String("value", cfg.LogLevel))
	}
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("mode", cfg.UIMode))
	return closer
}
