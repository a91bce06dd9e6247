// Package server initializes and runs the transfer server. It wires the
// database, object storage, notification backend, the HTTP endpoint and the
// background lifecycle sweeper, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/encryptshare/encryptshare/internal/logging"
	"github.com/encryptshare/encryptshare/internal/server/config"
	"github.com/encryptshare/encryptshare/internal/server/httpapi"
	"github.com/encryptshare/encryptshare/internal/server/notify"
	"github.com/encryptshare/encryptshare/internal/server/repositories/repomanager"
	"github.com/encryptshare/encryptshare/internal/server/services"
	"github.com/encryptshare/encryptshare/internal/server/storage"
	"github.com/encryptshare/encryptshare/internal/server/sweeper"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	service *services.TransferService
	sweeper *sweeper.Sweeper
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewDefault()

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := storage.NewS3Store(ctx, storage.S3Config{
		RootUser:     c.S3RootUser,
		RootPassword: c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage init error: %w", err)
	}

	var notifier notify.Notifier = &notify.Noop{}
	if c.MailjetPublicKey != "" && c.MailjetPrivateKey != "" {
		notifier = notify.NewMailjet(notify.MailjetConfig{
			PublicKey:   c.MailjetPublicKey,
			PrivateKey:  c.MailjetPrivateKey,
			FromEmail:   c.MailFrom,
			DownloadURL: c.DownloadPageURL,
		})
	}

	svc := services.NewTransferService(db, repos, store, notifier, logger, services.Options{
		MaxUploadBytes:     c.MaxUploadBytes,
		MaxDeadlineMinutes: c.MaxDeadlineMinutes,
	})

	sw := sweeper.New(svc, c.SweepInterval, logger)

	return &App{config: c, logger: logger, db: db, service: svc, sweeper: sw}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	router := httpapi.NewRouter(app.service, app.logger,
		[]byte(app.config.SecretKey), app.config.MaxUploadBytes)

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown error", "error", err.Error())
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sweeper.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
