package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/joho/godotenv"

	"shootoutserver/internal/config"
	"shootoutserver/internal/email"
	"shootoutserver/internal/httpapi"
	"shootoutserver/internal/notifications"
	"shootoutserver/internal/service"
	"shootoutserver/internal/store/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	var (
		matchSvc  *service.MatchService
		statsSvc  *service.StatsService
		notifySvc *service.NotificationService
		dbPing    func(context.Context) error
	)

	if cfg.DBDSN != "" {
		pool, err := postgres.Open(context.Background(), cfg.DBDSN)
		if err != nil {
			logger.Error("db open failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := postgres.Migrate(context.Background(), pool); err != nil {
			logger.Error("db migrate failed", "err", err)
			os.Exit(1)
		}

		matches := postgres.NewMatchesStore(pool)
		users := postgres.NewUsersStore(pool)
		stats := postgres.NewStatsStore(pool)
		tokens := postgres.NewNotificationTokensStore(pool)

		var emailSender service.EmailSender
		if cfg.EmailEnabled() {
			emailSender = &email.SMTPSender{Settings: email.SMTPSettings{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				Username: cfg.SMTPUsername,
				Password: cfg.SMTPPassword,
				TLSMode:  cfg.SMTPTLSMode,
			}}
		} else {
			logger.Info("challenge emails disabled, APP_SMTP_HOST not set")
		}

		var pushSender service.PushSender
		if cfg.PushEnabled() {
			fcm, err := notifications.NewFCMSender(context.Background(), cfg.FCMProjectID, cfg.FCMCredentials)
			if err != nil {
				logger.Error("fcm setup failed", "err", err)
				os.Exit(1)
			}
			pushSender = fcm
		} else {
			logger.Info("challenge push disabled, APP_FCM_CREDENTIALS not set")
		}

		publicURL := ""
		if cfg.PublicURL != nil {
			publicURL = cfg.PublicURL.String()
		}

		notifySvc = &service.NotificationService{
			Tokens:    tokens,
			Users:     users,
			Push:      pushSender,
			Email:     emailSender,
			FromName:  cfg.EmailFromName,
			FromEmail: cfg.EmailFromEmail,
			PublicURL: publicURL,
			Logger:    logger,
		}
		statsSvc = &service.StatsService{
			Stats: stats,
			Users: users,
		}
		matchSvc = &service.MatchService{
			Matches:  matches,
			Users:    users,
			Stats:    statsSvc,
			Notifier: notifySvc,
			Logger:   logger,
		}
		dbPing = pool.Ping
	} else {
		logger.Warn("APP_DB_DSN not set, match endpoints disabled")
	}

	router := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:        logger,
		IsProd:        cfg.IsProd(),
		DBPing:        dbPing,
		Matches:       matchSvc,
		Stats:         statsSvc,
		Notifications: notifySvc,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
