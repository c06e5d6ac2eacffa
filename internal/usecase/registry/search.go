package registry

import (
	"context"
	"sort"
	"strings"

	"testvault/internal/domain/qa"
)

type SearchFilters struct {
	// Query matches case-insensitively against title, description, any tag,
	// or id.
	Query string
	// Statuses and Priorities are set-membership filters: OR within the
	// set, AND against the other dimensions.
	Statuses   []qa.CaseStatus
	Priorities []qa.Priority
	// Tags matches when any selected tag is present on the case.
	Tags []string
	// SuiteID filters to exact match when set.
	SuiteID string
}

type SortField string

const (
	SortByTitle     SortField = "title"
	SortByPriority  SortField = "priority"
	SortByStatus    SortField = "status"
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
)

type SortOrder struct {
	Field      SortField
	Descending bool
}

type Page struct {
	// Number is 1-based.
	Number int
	Limit  int
}

type SearchResult struct {
	Items      []qa.TestCase
	Total      int
	TotalPages int
}

// SearchTestCases filters with AND semantics across dimensions, sorts on a
// single field and slices the requested page. Repeating an identical call
// against an unchanged collection returns an identical result.
func (s *Service) SearchTestCases(ctx context.Context, filters SearchFilters, order SortOrder, page Page) (SearchResult, error) {
	cases, err := s.ListTestCases(ctx)
	if err != nil {
		return SearchResult{}, err
	}

	filtered := make([]qa.TestCase, 0, len(cases))
	for _, tc := range cases {
		if matchesFilters(tc, filters) {
			filtered = append(filtered, tc)
		}
	}

	sortTestCases(filtered, order)

	total := len(filtered)
	limit := page.Limit
	if limit < 1 {
		limit = total
		if limit < 1 {
			limit = 1
		}
	}
	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	number := page.Number
	if number < 1 {
		number = 1
	}
	start := (number - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return SearchResult{
		Items:      filtered[start:end],
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func matchesFilters(tc qa.TestCase, f SearchFilters) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !matchesQuery(tc, q) {
			return false
		}
	}

	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if tc.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(f.Priorities) > 0 {
		found := false
		for _, p := range f.Priorities {
			if tc.Priority == p {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(f.Tags) > 0 {
		found := false
		for _, want := range f.Tags {
			for _, have := range tc.Tags {
				if strings.EqualFold(have, want) {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.SuiteID != "" && tc.SuiteID != f.SuiteID {
		return false
	}

	return true
}

func matchesQuery(tc qa.TestCase, q string) bool {
	if strings.Contains(strings.ToLower(tc.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(tc.Description), q) {
		return true
	}
	if strings.Contains(strings.ToLower(tc.ID), q) {
		return true
	}
	for _, tag := range tc.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func sortTestCases(cases []qa.TestCase, order SortOrder) {
	field := order.Field
	if field == "" {
		field = SortByCreatedAt
	}

	sort.SliceStable(cases, func(i, j int) bool {
		a, b := sortKey(cases[i], field), sortKey(cases[j], field)
		if order.Descending {
			return a > b
		}
		return a < b
	})
}

// sortKey lowers string fields so comparisons are case-insensitive.
func sortKey(tc qa.TestCase, field SortField) string {
	switch field {
	case SortByTitle:
		return strings.ToLower(tc.Title)
	case SortByPriority:
		return strings.ToLower(string(tc.Priority))
	case SortByStatus:
		return strings.ToLower(string(tc.Status))
	case SortByUpdatedAt:
		return tc.UpdatedAt
	default:
		return tc.CreatedAt
	}
}
