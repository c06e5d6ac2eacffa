// Package httpapi exposes the repositories, the run engine, the metrics
// aggregator and snapshot export/import over REST for a presentation
// layer.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"testvault/internal/bootstrap/logging"
	"testvault/internal/errs"
	"testvault/internal/ports"
	"testvault/internal/usecase/insights"
	"testvault/internal/usecase/registry"
	"testvault/internal/usecase/runflow"
	"testvault/internal/usecase/snapshot"
)

type Server struct {
	registry *registry.Service
	runs     *runflow.Service
	metrics  *insights.Service
	snapshot *snapshot.Service
}

func NewServer(reg *registry.Service, runs *runflow.Service, metrics *insights.Service, snap *snapshot.Service) *Server {
	return &Server{
		registry: reg,
		runs:     runs,
		metrics:  metrics,
		snapshot: snap,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/testcases", func(r chi.Router) {
			r.Get("/", s.listTestCases)
			r.Post("/", s.saveTestCase)
			r.Get("/search", s.searchTestCases)
			r.Get("/{id}", s.getTestCase)
			r.Put("/{id}", s.saveTestCase)
			r.Delete("/{id}", s.deleteTestCase)
			r.Get("/{id}/history", s.listHistory)
			r.Post("/{id}/restore", s.restoreTestCase)
		})
		r.Route("/suites", func(r chi.Router) {
			r.Get("/", s.listSuites)
			r.Post("/", s.saveSuite)
			r.Get("/{id}", s.getSuite)
			r.Put("/{id}", s.saveSuite)
			r.Delete("/{id}", s.deleteSuite)
		})
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.listRuns)
			r.Post("/", s.saveRun)
			r.Get("/{id}", s.getRun)
			r.Put("/{id}", s.saveRun)
			r.Delete("/{id}", s.deleteRun)
			r.Post("/{id}/start", s.startRun)
			r.Post("/{id}/pause", s.pauseRun)
			r.Post("/{id}/stop", s.stopRun)
			r.Post("/{id}/record", s.recordExecution)
			r.Post("/{id}/rerun-failed", s.rerunFailed)
		})
		r.Route("/executions", func(r chi.Router) {
			r.Get("/", s.listExecutions)
			r.Post("/", s.saveExecution)
			r.Get("/{id}", s.getExecution)
			r.Delete("/{id}", s.deleteExecution)
		})
		r.Get("/audit", s.listAudit)
		r.Get("/metrics/dashboard", s.dashboardMetrics)
		r.Get("/metrics/report", s.reportMetrics)
		r.Get("/export", s.exportAll)
		r.Post("/import", s.importAll)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps the error taxonomy to status codes: not-found 404,
// validation 400, illegal transition 409, quota 507, snapshot format 400.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ports.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ports.ErrValidation), errors.Is(err, ports.ErrSnapshotFormat):
		status = http.StatusBadRequest
	case errors.Is(err, ports.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, ports.ErrQuotaExceeded):
		status = http.StatusInsufficientStorage
	}

	if status == http.StatusInternalServerError {
		logging.Error(r.Context(), "request failed",
			slog.String("component", "httpapi"),
			slog.String("path", r.URL.Path),
			slog.Any("err", errs.Loggable(err)))
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.Wrap(ports.ErrValidation, "decode request body: "+err.Error())
	}
	return nil
}
