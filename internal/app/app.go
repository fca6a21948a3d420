// Package app wires the services together for the CLI entrypoints: the HTTP
// server and the operational subcommands that map onto manager operations.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/jzelenk/adminboard/internal/auditlog"
	"github.com/jzelenk/adminboard/internal/auth"
	"github.com/jzelenk/adminboard/internal/config"
	"github.com/jzelenk/adminboard/internal/db"
	internalhttp "github.com/jzelenk/adminboard/internal/http"
	"github.com/jzelenk/adminboard/internal/push"
	"github.com/jzelenk/adminboard/internal/ratelimit"
	"github.com/jzelenk/adminboard/internal/settings"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

// shutdownTimeout bounds the graceful drain on SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

// setupLogging configures logrus from config. With a log file set, output is
// rotated; otherwise everything goes to stderr.
func setupLogging(cfg config.LogConfig) {
	level, errParse := log.ParseLevel(cfg.Level)
	if errParse != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		log.SetOutput(io.MultiWriter(os.Stderr, rotated))
	}
}

// openDatabase loads config, opens the database, and runs migrations.
func openDatabase(configPath string) (config.Config, *gorm.DB, error) {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return config.Config{}, nil, errLoad
	}
	setupLogging(cfg.Log)

	conn, errOpen := db.Open(cfg.DB.DSN)
	if errOpen != nil {
		return config.Config{}, nil, errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return config.Config{}, nil, errMigrate
	}
	return cfg, conn, nil
}

// Migrate opens the database and runs migrations.
func Migrate(_ context.Context, configPath string) error {
	_, _, err := openDatabase(configPath)
	return err
}

// RunServer boots the admin platform HTTP server and blocks until the
// context is cancelled, then drains in-flight requests.
func RunServer(ctx context.Context, configPath string) error {
	cfg, conn, errOpen := openDatabase(configPath)
	if errOpen != nil {
		return errOpen
	}
	if errRefresh := settings.RefreshDBConfigSnapshot(ctx, conn); errRefresh != nil {
		return fmt.Errorf("load settings snapshot: %w", errRefresh)
	}

	deps := internalhttp.Deps{
		DB:         conn,
		Cfg:        cfg,
		Manager:    auth.NewManager(conn, cfg.Auth),
		Audit:      auditlog.NewService(conn),
		Dispatcher: push.NewDispatcher(conn, push.NewWebPushSender(cfg.Push), settings.PushEnabled, cfg.Push.Timeout()),
		Limiter: ratelimit.New(cfg.Redis, cfg.ExternalAPI.RateLimit,
			time.Duration(cfg.ExternalAPI.RateWindowSeconds)*time.Second),
	}
	engine := internalhttp.NewEngine(deps)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Bind, cfg.Server.Port),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info("shutting down")
	return server.Shutdown(drainCtx)
}

// RegenerateTokens bulk-rotates every user token, invalidating all
// remember-me cookies system-wide.
func RegenerateTokens(ctx context.Context, configPath string) error {
	cfg, conn, errOpen := openDatabase(configPath)
	if errOpen != nil {
		return errOpen
	}

	manager := auth.NewManager(conn, cfg.Auth)
	result := manager.RegenerateUsersTokens(ctx)
	if !result.Status {
		return errors.New(result.Message)
	}
	log.Info(result.Message)
	return nil
}

// Notify broadcasts one push notification to every active subscriber.
func Notify(ctx context.Context, configPath, title, message string) error {
	cfg, conn, errOpen := openDatabase(configPath)
	if errOpen != nil {
		return errOpen
	}
	if errRefresh := settings.RefreshDBConfigSnapshot(ctx, conn); errRefresh != nil {
		return fmt.Errorf("load settings snapshot: %w", errRefresh)
	}

	dispatcher := push.NewDispatcher(conn, push.NewWebPushSender(cfg.Push), settings.PushEnabled, cfg.Push.Timeout())
	report, errSend := dispatcher.SendNotification(ctx, title, message)
	if errSend != nil {
		if errors.Is(errSend, push.ErrDisabled) {
			return errors.New("push notifications are disabled")
		}
		return errSend
	}
	log.Infof("delivered=%d failed=%d deactivated=%d", report.Delivered, report.Failed, report.Deactivated)
	return nil
}

// ReadLogs prints audit log entries filtered by status.
func ReadLogs(ctx context.Context, configPath, status string, out io.Writer) error {
	_, conn, errOpen := openDatabase(configPath)
	if errOpen != nil {
		return errOpen
	}

	audit := auditlog.NewService(conn)
	entries, errList := audit.ListByStatus(ctx, status)
	if errList != nil {
		return errList
	}
	for _, entry := range entries {
		user := "-"
		if entry.UserID != nil {
			user = fmt.Sprintf("%d", *entry.UserID)
		}
		fmt.Fprintf(out, "%s\t%d\t%s\t%s\tuser=%s\t%s\n",
			entry.Time.Format(time.RFC3339), entry.Level, entry.Status, entry.Name, user, entry.Message)
	}
	return nil
}
