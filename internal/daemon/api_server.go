package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"subremux/internal/api"
	"subremux/internal/config"
	"subremux/internal/logging"
	"subremux/internal/services"
)

// multipartOverhead is allowed on top of the subtitle size limit for form
// fields and boundaries.
const multipartOverhead = 1 << 20

type apiServer struct {
	bind    string
	token   string
	logger  *slog.Logger
	daemon  *Daemon
	handler http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		token:  strings.TrimSpace(cfg.Paths.APIToken),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", srv.handleStatus)
	mux.HandleFunc("GET /api/jobs", srv.handleJobs)
	mux.HandleFunc("POST /api/jobs", srv.handleSubmit)
	mux.HandleFunc("GET /api/jobs/{id}", srv.handleJob)
	mux.HandleFunc("GET /api/dir/{path...}", srv.handleDir)
	mux.HandleFunc("GET /api/info/{path...}", srv.handleInfo)
	mux.HandleFunc("POST /api/notifications/test", srv.handleTestNotification)
	mux.HandleFunc("GET /tl", srv.handleTaskList)

	srv.handler = requestIDMiddleware(srv.logRequests(authMiddleware(srv.token, mux)))
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

func (s *apiServer) addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	worker, counts := api.FromHealth(status.Jobs)
	payload := api.StatusResponse{
		Running:      status.Running,
		PID:          status.PID,
		LockFilePath: status.LockFilePath,
		MediaDir:     s.daemon.cfg.Paths.MediaDir,
		UploadDir:    s.daemon.cfg.Paths.UploadDir,
		Worker:       worker,
		JobCounts:    counts,
		TotalJobs:    status.Jobs.Total,
		Dependencies: api.FromDependencies(status.Dependencies),
		Checks:       api.FromChecks(status.Checks),
	}
	if !status.StartedAt.IsZero() {
		payload.StartedAt = status.StartedAt.UTC().Format(time.RFC3339)
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleJobs(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: api.FromSnapshots(s.daemon.jobs.Snapshots())})
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid job id", "validation")
		return
	}
	snap, ok := s.daemon.jobs.Job(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "job not found", "not_found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobResponse{Job: api.FromSnapshot(snap)})
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if limit := s.daemon.uploads.MaxBytes(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "upload too large", "validation")
			return
		}
		s.writeError(w, http.StatusBadRequest, "expected multipart form with file and mov fields", "validation")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "no subtitle file selected", "validation")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "read subtitle upload", "validation")
		return
	}

	snap, saved, err := s.daemon.Submit(r.Context(), strings.TrimSpace(r.FormValue("mov")), header.Filename, data)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	logging.WithContext(r.Context(), s.logger).Info("remux submitted",
		logging.Int64(logging.FieldJobID, snap.ID),
		logging.String("subtitle", saved.Name),
		logging.String("encoding", saved.Encoding),
	)
	s.writeJSON(w, http.StatusAccepted, api.SubmitResponse{
		Job:      api.FromSnapshot(snap),
		Subtitle: api.FromSaved(saved),
	})
}

func (s *apiServer) handleDir(w http.ResponseWriter, r *http.Request) {
	rel := r.PathValue("path")
	full, info, err := s.daemon.browser.Stat(rel)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !info.IsDir() {
		http.ServeFile(w, r, full)
		return
	}
	listing, err := s.daemon.browser.List(r.Context(), rel)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromListing(listing))
}

func (s *apiServer) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.daemon.inspector.Info(r.Context(), r.PathValue("path"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromFileInfo(info))
}

func (s *apiServer) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	sent, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	resp := api.NotificationTestResponse{Sent: sent}
	if !sent {
		resp.Message = "notifications disabled; set notifications.ntfy_topic"
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleTaskList(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	for _, line := range s.daemon.jobs.List() {
		_, _ = io.WriteString(w, line+"\n")
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message, kind string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message, Kind: kind})
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := services.Kind(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		logging.WithContext(r.Context(), s.logger).Error("request failed",
			logging.String("path", r.URL.Path),
			logging.Error(err),
		)
	}
	s.writeError(w, status, err.Error(), kind)
}

func statusForKind(kind string) int {
	switch kind {
	case "validation":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "external_tool":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
