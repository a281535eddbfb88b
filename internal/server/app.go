// Package server assembles the application: database, migrations, the
// server signing key, and the workflow services.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/stringshare/ordervault/internal/logging"
	"github.com/stringshare/ordervault/internal/server/config"
	"github.com/stringshare/ordervault/internal/server/notify"
	"github.com/stringshare/ordervault/internal/server/repositories/repomanager"
	"github.com/stringshare/ordervault/internal/server/serverkey"
	"github.com/stringshare/ordervault/internal/server/services"
)

type App struct {
	Config      *config.Config
	Logger      logging.Logger
	Users       *services.UserService
	Orders      *services.OrderService
	Attachments *services.AttachmentService

	db *sql.DB
}

// NewApp opens the database, applies pending migrations, loads or
// provisions the server signing key, and wires the services.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	witness, err := serverkey.Load(ctx, db, rm, cfg.ServerKeyPassphrase)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("server key error: %w", err)
	}

	notifier := notify.NewSMTPNotifier(cfg.SMTPAddr, cfg.SMTPFrom)

	return &App{
		Config:      cfg,
		Logger:      logger,
		Users:       services.NewUserService(db, rm, cfg),
		Orders:      services.NewOrderService(db, rm, witness, notifier, logger),
		Attachments: services.NewAttachmentService(db, rm, cfg),
		db:          db,
	}, nil
}

// Close releases the database connection pool.
func (a *App) Close() error {
	return a.db.Close()
}
