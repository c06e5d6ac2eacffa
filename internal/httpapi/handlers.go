package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"testvault/internal/domain/qa"
	"testvault/internal/usecase/registry"
)

func (s *Server) listTestCases(w http.ResponseWriter, r *http.Request) {
	cases, err := s.registry.ListTestCases(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

func (s *Server) getTestCase(w http.ResponseWriter, r *http.Request) {
	tc, err := s.registry.GetTestCase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tc)
}

func (s *Server) saveTestCase(w http.ResponseWriter, r *http.Request) {
	var input qa.TestCase
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		input.ID = id
	}

	saved, err := s.registry.SaveTestCase(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) deleteTestCase(w http.ResponseWriter, r *http.Request) {
	found, err := s.registry.DeleteTestCase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": found})
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.registry.ListHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type restoreRequest struct {
	Version int `json:"version"`
}

func (s *Server) restoreTestCase(w http.ResponseWriter, r *http.Request) {
	var input restoreRequest
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	restored, err := s.registry.RestoreTestCase(r.Context(), chi.URLParam(r, "id"), input.Version)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, restored)
}

// searchTestCases reads filters from query parameters:
// q, status (repeatable), priority (repeatable), tag (repeatable), suite,
// sort, order (asc|desc), page, limit.
func (s *Server) searchTestCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := registry.SearchFilters{
		Query:   q.Get("q"),
		SuiteID: q.Get("suite"),
		Tags:    q["tag"],
	}
	for _, v := range q["status"] {
		filters.Statuses = append(filters.Statuses, qa.CaseStatus(v))
	}
	for _, v := range q["priority"] {
		filters.Priorities = append(filters.Priorities, qa.Priority(v))
	}

	order := registry.SortOrder{
		Field:      registry.SortField(q.Get("sort")),
		Descending: strings.EqualFold(q.Get("order"), "desc"),
	}

	page := registry.Page{
		Number: intQuery(q.Get("page"), 1),
		Limit:  intQuery(q.Get("limit"), 20),
	}

	result, err := s.registry.SearchTestCases(r.Context(), filters, order, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func intQuery(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func (s *Server) listSuites(w http.ResponseWriter, r *http.Request) {
	suites, err := s.registry.ListTestSuites(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suites)
}

func (s *Server) getSuite(w http.ResponseWriter, r *http.Request) {
	suite, err := s.registry.GetTestSuite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suite)
}

func (s *Server) saveSuite(w http.ResponseWriter, r *http.Request) {
	var input qa.TestSuite
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		input.ID = id
	}

	saved, err := s.registry.SaveTestSuite(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) deleteSuite(w http.ResponseWriter, r *http.Request) {
	found, err := s.registry.DeleteTestSuite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": found})
}

func (s *Server) listExecutions(w http.ResponseWriter, r *http.Request) {
	execs, err := s.registry.ListExecutions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, execs)
}

func (s *Server) getExecution(w http.ResponseWriter, r *http.Request) {
	exec, err := s.registry.GetExecution(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exec)
}

func (s *Server) saveExecution(w http.ResponseWriter, r *http.Request) {
	var input qa.TestExecution
	if err := decodeBody(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	saved, err := s.registry.SaveExecution(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) deleteExecution(w http.ResponseWriter, r *http.Request) {
	found, err := s.registry.DeleteExecution(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": found})
}

func (s *Server) listAudit(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r.URL.Query().Get("limit"), 0)
	logs, err := s.registry.RecentAuditLogs(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
