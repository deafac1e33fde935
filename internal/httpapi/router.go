package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"shootoutserver/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	Matches       *service.MatchService
	Stats         *service.StatsService
	Notifications *service.NotificationService
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := &api{
		logger:    logger,
		isProd:    opts.IsProd,
		dbPing:    opts.DBPing,
		matchSvc:  opts.Matches,
		statsSvc:  opts.Stats,
		notifySvc: opts.Notifications,
	}

	publicMux := http.NewServeMux()
	apiMux := http.NewServeMux()

	publicMux.HandleFunc("GET /healthz", api.handleHealthz)

	if api.matchSvc == nil {
		apiMux.HandleFunc("POST /v1/match", handleNotConfigured)
		apiMux.HandleFunc("GET /v1/match", handleNotConfigured)
	} else {
		apiMux.HandleFunc("POST /v1/match", api.handleMatchAction)
		apiMux.HandleFunc("GET /v1/match", api.handleMatchGet)
	}
	if api.statsSvc != nil {
		apiMux.HandleFunc("GET /v1/stats", api.handleStatsGet)
	}
	if api.notifySvc != nil {
		apiMux.HandleFunc("POST /v1/notifications/tokens", api.handleTokenRegister)
		apiMux.HandleFunc("DELETE /v1/notifications/tokens", api.handleTokenDelete)
	}

	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := apiMux.Handler(r)
		if pattern == "" {
			handleV1NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || r.URL.Path == "/v1" {
			apiHandler.ServeHTTP(w, r)
			return
		}
		publicMux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleNotConfigured(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusServiceUnavailable, "unavailable", "service unavailable")
}

func handleV1NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "not found")
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing func(context.Context) error

	matchSvc  *service.MatchService
	statsSvc  *service.StatsService
	notifySvc *service.NotificationService
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
