package httpapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"testvault/internal/domain/qa"
	"testvault/internal/ports"
	"testvault/internal/usecase/insights"
	"testvault/internal/usecase/runflow"
)

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.registry.ListTestRuns(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.registry.GetTestRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) saveRun(w http.ResponseWriter, r *http.Request) {
	var input qa.TestRun
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		input.ID = id
	}

	saved, err := s.registry.SaveTestRun(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	found, err := s.registry.DeleteTestRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": found})
}

func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Start(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) pauseRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Pause(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) stopRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Stop(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type recordRequest struct {
	Status       qa.ExecutionCode    `json:"status"`
	CustomStatus string              `json:"customStatus,omitempty"`
	ActualResult string              `json:"actualResult,omitempty"`
	Comments     string              `json:"comments,omitempty"`
	StepResults  []qa.TestStepResult `json:"stepResults,omitempty"`
	Attachments  []string            `json:"attachments,omitempty"`
}

func (s *Server) recordExecution(w http.ResponseWriter, r *http.Request) {
	var input recordRequest
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	run, err := s.runs.RecordExecution(r.Context(), runflow.RecordInput{
		RunID:        chi.URLParam(r, "id"),
		Status:       input.Status,
		CustomStatus: input.CustomStatus,
		ActualResult: input.ActualResult,
		Comments:     input.Comments,
		StepResults:  input.StepResults,
		Attachments:  input.Attachments,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type rerunResponse struct {
	Rerun bool       `json:"rerun"`
	Run   qa.TestRun `json:"run"`
}

func (s *Server) rerunFailed(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.RerunFailed(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ports.ErrNothingToRerun) {
		writeJSON(w, http.StatusOK, rerunResponse{Rerun: false, Run: run})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rerunResponse{Rerun: true, Run: run})
}

func (s *Server) dashboardMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.metrics.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// reportMetrics accepts either days=7|30|90 or from/to as RFC 3339.
func (s *Server) reportMetrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var window insights.Window
	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			writeError(w, r, errors.Join(ports.ErrValidation, err))
			return
		}
		window.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			writeError(w, r, errors.Join(ports.ErrValidation, err))
			return
		}
		window.To = t
	}
	if window.From.IsZero() && window.To.IsZero() {
		window = insights.TrailingWindow(intQuery(q.Get("days"), 7), time.Now().UTC())
	}

	metrics, err := s.metrics.Report(r.Context(), window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) exportAll(w http.ResponseWriter, r *http.Request) {
	data, err := s.snapshot.ExportAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="testvault-snapshot.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) importAll(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.snapshot.ImportAll(r.Context(), data); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"imported": true})
}
