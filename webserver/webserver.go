package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"NucleusBot/logger"
	"NucleusBot/models"
	"NucleusBot/poller"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

// StatusProvider is what the status endpoints report on.
type StatusProvider interface {
	Health() map[string]interface{}
	Stats() poller.Stats
}

type CommandStatsSource interface {
	CommandStats(ctx context.Context, day time.Time) ([]models.CommandStatistics, error)
}

// NewRouter builds the status routes. /stats and /commands are rate limited.
func NewRouter(provider StatusProvider, commands CommandStatsSource) *mux.Router {
	statsLimiter := rate.NewLimiter(rate.Every(time.Second), 5)

	r := mux.NewRouter()
	r.HandleFunc("/health", HealthHandler(provider)).Methods(http.MethodGet)
	r.HandleFunc("/stats", limit(statsLimiter, StatsHandler(provider))).Methods(http.MethodGet)
	r.HandleFunc("/commands", limit(statsLimiter, CommandsHandler(commands))).Methods(http.MethodGet)
	return r
}

// StartStatusServer serves the status routes on addr in the background.
// An empty addr disables it and returns nil.
func StartStatusServer(addr string, provider StatusProvider, commands CommandStatsSource) *http.Server {
	if addr == "" {
		logger.Log.Info("Status server disabled")
		return nil
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(provider, commands),
		ReadHeaderTimeout: 20 * time.Second,
	}

	go func() {
		logger.Log.Infof("Status server starting on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Error("Status server failed")
		}
	}()

	return server
}

func HealthHandler(provider StatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := provider.Health()
		status := http.StatusOK
		if health["status"] == "unhealthy" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, health)
	}
}

func StatsHandler(provider StatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, provider.Stats())
	}
}

// CommandsHandler reports command usage for ?day=YYYY-MM-DD, today by default.
func CommandsHandler(source CommandStatsSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day := time.Now().UTC()
		if raw := r.URL.Query().Get("day"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				http.Error(w, "day must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			day = parsed
		}

		stats, err := source.CommandStats(r.Context(), day)
		if err != nil {
			logger.Log.WithError(err).Error("Failed to load command statistics")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func limit(l *rate.Limiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow() {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Error("Failed to encode status response")
	}
}
