package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"telefetch/internal/api"
	"telefetch/internal/config"
	"telefetch/internal/logging"
	"telefetch/internal/scratch"
)

const defaultUsageDays = 30

// apiServer hosts the admin endpoints the CLI reads. It binds to a local
// address and carries no authentication, keep it off public interfaces.
type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	server   *http.Server
	listener net.Listener
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{bind: bind, logger: logger, daemon: d}

	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Recoverer)
	r.Get("/api/status", srv.handleStatus)
	r.Get("/api/jobs", srv.handleJobs)
	r.Get("/api/usage", srv.handleUsage)
	r.Get("/api/scratch", srv.handleScratch)

	srv.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start() error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen on %s: %w", s.bind, err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())

	counts := make(map[string]int, len(status.Queue))
	for st, n := range status.Queue {
		counts[string(st)] = n
	}

	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		Running:      status.Running,
		PID:          status.PID,
		WebhookSet:   status.WebhookSet,
		LockPath:     status.LockPath,
		Queue:        counts,
		Stages:       api.FromStageHealth(status.Stages),
		Database:     api.FromDatabaseHealth(status.Database),
		Dependencies: api.FromDependencies(status.Dependencies),
	})
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.FromSnapshot(s.daemon.queue.Snapshot()))
}

func (s *apiServer) handleUsage(w http.ResponseWriter, r *http.Request) {
	days := defaultUsageDays
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	rows, err := s.daemon.store.UsageSummary(r.Context(), since)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	downloads, bytes, err := s.daemon.store.UsageTotals(r.Context(), since)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, api.UsageResponse{
		Since:          since.Format("2006-01-02"),
		TotalDownloads: downloads,
		TotalBytes:     bytes,
		Rows:           api.FromUsageRows(rows),
	})
}

func (s *apiServer) handleScratch(w http.ResponseWriter, r *http.Request) {
	scratchDir := s.daemon.cfg.Paths.ScratchDir
	dirs, err := scratch.List(scratchDir)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := api.FromScratchDirs(dirs)
	// Capacity is best effort; a statfs failure still leaves the listing useful.
	if total, free, err := scratch.FreeSpace(scratchDir); err == nil {
		resp.DiskTotal = total
		resp.DiskFree = free
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("api response write failed", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
