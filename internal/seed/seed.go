// Package seed loads demo suites and test cases from a TOML fixture file
// and writes them through the registry, so seeded data goes through the
// same defaulting, audit and history paths as user writes.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"testvault/internal/domain/qa"
	"testvault/internal/errs"
	"testvault/internal/usecase/registry"
)

type stepFixture struct {
	Description    string `toml:"description"`
	ExpectedResult string `toml:"expected_result"`
}

type caseFixture struct {
	Title           string        `toml:"title"`
	Description     string        `toml:"description"`
	Preconditions   string        `toml:"preconditions"`
	ExpectedResults string        `toml:"expected_results"`
	Priority        string        `toml:"priority"`
	Status          string        `toml:"status"`
	Suite           string        `toml:"suite"`
	Tags            []string      `toml:"tags"`
	Steps           []stepFixture `toml:"steps"`
}

type suiteFixture struct {
	Name        string   `toml:"name"`
	Description string   `toml:"description"`
	Parent      string   `toml:"parent"`
	Tags        []string `toml:"tags"`
}

type fixtureFile struct {
	Version int            `toml:"version"`
	Suites  []suiteFixture `toml:"suites"`
	Cases   []caseFixture  `toml:"cases"`
}

func loadFixtureFile(path string) (fixtureFile, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return fixtureFile{}, errors.New("fixture file is required")
	}

	raw, err := os.ReadFile(trimmed)
	if err != nil {
		return fixtureFile{}, err
	}

	var f fixtureFile
	if err := toml.Unmarshal(raw, &f); err != nil {
		return fixtureFile{}, errs.Wrap(err, "parse fixture file")
	}
	if err := validateFixtureFile(f); err != nil {
		return fixtureFile{}, err
	}
	return f, nil
}

func validateFixtureFile(f fixtureFile) error {
	if f.Version != 1 {
		return fmt.Errorf("unsupported fixture version %d: expected version = 1", f.Version)
	}

	names := make(map[string]struct{}, len(f.Suites))
	for i, suite := range f.Suites {
		name := strings.TrimSpace(suite.Name)
		if name == "" {
			return fmt.Errorf("suites[%d].name is required", i)
		}
		if _, dup := names[name]; dup {
			return fmt.Errorf("duplicate suite name %q", name)
		}
		names[name] = struct{}{}
	}
	for _, suite := range f.Suites {
		if parent := strings.TrimSpace(suite.Parent); parent != "" {
			if _, ok := names[parent]; !ok {
				return fmt.Errorf("suite %q references unknown parent %q", suite.Name, parent)
			}
		}
	}

	for i, c := range f.Cases {
		if strings.TrimSpace(c.Title) == "" {
			return fmt.Errorf("cases[%d].title is required", i)
		}
		if suite := strings.TrimSpace(c.Suite); suite != "" {
			if _, ok := names[suite]; !ok {
				return fmt.Errorf("case %q references unknown suite %q", c.Title, suite)
			}
		}
		switch c.Priority {
		case "", string(qa.PriorityLow), string(qa.PriorityMedium), string(qa.PriorityHigh):
		default:
			return fmt.Errorf("case %q: unknown priority %q", c.Title, c.Priority)
		}
		switch c.Status {
		case "", string(qa.CaseDraft), string(qa.CaseActive), string(qa.CaseArchived):
		default:
			return fmt.Errorf("case %q: unknown status %q", c.Title, c.Status)
		}
	}

	return nil
}

// Apply loads the fixture file and writes its suites and cases. It returns
// how many of each were created.
func Apply(ctx context.Context, reg *registry.Service, path string) (suites int, cases int, err error) {
	f, err := loadFixtureFile(path)
	if err != nil {
		return 0, 0, err
	}

	// Parents resolve by fixture name; suites are written parents-first so
	// the id is known when a child references it.
	suiteIDs := make(map[string]string, len(f.Suites))
	pending := append([]suiteFixture(nil), f.Suites...)
	for len(pending) > 0 {
		progressed := false
		rest := pending[:0]
		for _, fixture := range pending {
			parent := strings.TrimSpace(fixture.Parent)
			parentID := ""
			if parent != "" {
				id, ok := suiteIDs[parent]
				if !ok {
					rest = append(rest, fixture)
					continue
				}
				parentID = id
			}

			saved, saveErr := reg.SaveTestSuite(ctx, qa.TestSuite{
				Name:        fixture.Name,
				Description: fixture.Description,
				ParentID:    parentID,
				Tags:        fixture.Tags,
			})
			if saveErr != nil {
				return suites, cases, errs.Wrapf(saveErr, "seed suite %q", fixture.Name)
			}
			suiteIDs[fixture.Name] = saved.ID
			suites++
			progressed = true
		}
		if !progressed {
			return suites, cases, errors.New("suite parent references form a cycle")
		}
		pending = rest
	}

	for _, fixture := range f.Cases {
		steps := make([]qa.TestStep, 0, len(fixture.Steps))
		for _, step := range fixture.Steps {
			steps = append(steps, qa.TestStep{
				Description:    step.Description,
				ExpectedResult: step.ExpectedResult,
			})
		}

		_, saveErr := reg.SaveTestCase(ctx, qa.TestCase{
			Title:           fixture.Title,
			Description:     fixture.Description,
			Preconditions:   fixture.Preconditions,
			ExpectedResults: fixture.ExpectedResults,
			Priority:        qa.Priority(fixture.Priority),
			Status:          qa.CaseStatus(fixture.Status),
			Tags:            fixture.Tags,
			Steps:           steps,
			SuiteID:         suiteIDs[strings.TrimSpace(fixture.Suite)],
		})
		if saveErr != nil {
			return suites, cases, errs.Wrapf(saveErr, "seed case %q", fixture.Title)
		}
		cases++
	}

	return suites, cases, nil
}
