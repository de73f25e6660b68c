package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/opscart/k8s-capacity-console/pkg/backend"
	"github.com/opscart/k8s-capacity-console/pkg/console"
	"github.com/opscart/k8s-capacity-console/pkg/models"
	"github.com/opscart/k8s-capacity-console/pkg/reporter"
	"github.com/opscart/k8s-capacity-console/pkg/sorting"
	"github.com/opscart/k8s-capacity-console/pkg/storage"
	"github.com/opscart/k8s-capacity-console/pkg/workflow"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the console over a JSON API
type Server struct {
	console  *console.Console
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	router   chi.Router
}

// New builds the router. A nil gatherer serves the default registry on /metrics.
func New(c *console.Console, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{console: c, gatherer: gatherer, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.apiView)
		r.Get("/commands", s.apiListCommands)
		r.Post("/commands", s.apiDispatch)

		r.Get("/snapshots", s.apiListSnapshots)
		r.Post("/snapshots/capture", s.apiCaptureSnapshot)
		r.Post("/snapshots/{id}/activate", s.apiActivateSnapshot)

		r.Get("/prices", s.apiPrices)
		r.Post("/prices/refresh", s.apiRefreshPrices)
		r.Get("/history", s.apiHistory)
		r.Get("/pools/report", s.apiPoolReport)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// healthz fails while a configured move journal is unreachable
func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.console.Ping(r.Context()); err != nil {
		s.logger.Warn("journal ping failed", zap.Error(err))
		http.Error(w, "journal unreachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps console errors onto HTTP status codes
func statusFor(err error) int {
	var inputErr *workflow.InputError
	var httpErr *backend.HTTPError
	switch {
	case errors.As(err, &inputErr),
		errors.Is(err, console.ErrUnknownCommand),
		errors.Is(err, sorting.ErrUnknownKey),
		errors.Is(err, workflow.ErrUnknownWorkload),
		errors.Is(err, workflow.ErrUnknownNode),
		errors.Is(err, workflow.ErrMissingPool):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrBusy),
		errors.Is(err, workflow.ErrStalePlan),
		errors.Is(err, workflow.ErrNotReviewing),
		errors.Is(err, workflow.ErrNotCommitting):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrUnsatisfiablePlan):
		return http.StatusUnprocessableEntity
	case errors.Is(err, console.ErrNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, console.ErrJournalDisabled):
		return http.StatusNotFound
	case errors.As(err, &httpErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func (s *Server) apiView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.console.View())
}

func (s *Server) apiListCommands(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"commands": console.Commands()})
}

type dispatchResponse struct {
	Error string `json:"error,omitempty"`
	View  any    `json:"view"`
}

func (s *Server) apiDispatch(w http.ResponseWriter, r *http.Request) {
	var cmd console.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	view, err := s.console.Dispatch(r.Context(), cmd)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Warn("command failed", zap.String("command", cmd.Name), zap.Error(err))
		}
		writeJSON(w, status, dispatchResponse{Error: err.Error(), View: view})
		return
	}
	writeJSON(w, http.StatusOK, dispatchResponse{View: view})
}

func (s *Server) apiListSnapshots(w http.ResponseWriter, r *http.Request) {
	list, err := s.console.Snapshots(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []models.SnapshotInfo{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) apiActivateSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.console.ActivateSnapshot(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.console.View())
}

func (s *Server) apiCaptureSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := s.console.CaptureSnapshot(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) apiRefreshPrices(w http.ResponseWriter, r *http.Request) {
	result, err := s.console.RefreshPrices(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) apiPrices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.console.Prices())
}

func (s *Server) apiHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.MoveFilter{
		Namespace: q.Get("namespace"),
		Status:    models.MoveStatus(q.Get("status")),
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		filter.Limit = limit
	}

	records, err := s.console.History(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if records == nil {
		records = []*models.MoveRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) apiPoolReport(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(reporter.FormatCSV)
	}
	f, err := reporter.ParseFormat(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view := s.console.View()
	if len(view.Nodes) == 0 {
		s.fail(w, r, console.ErrNotLoaded)
		return
	}

	rep := reporter.New(f)
	report := rep.Generate(view.Pools, s.activeSnapshot(r.Context()))

	switch f {
	case reporter.FormatHTML:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="pools.csv"`)
	}
	if err := rep.Write(report, w); err != nil {
		s.logger.Warn("failed to write pool report", zap.Error(err))
	}
}

func (s *Server) activeSnapshot(ctx context.Context) string {
	list, err := s.console.Snapshots(ctx)
	if err != nil {
		return "simulation"
	}
	for _, snap := range list {
		if snap.Active {
			return snap.ID
		}
	}
	return "simulation"
}
