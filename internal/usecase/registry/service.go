// Package registry is the data-access layer: it simulates a minimal
// document database over a synchronous key-value store. Each entity type
// lives in one JSON-serialized collection under a fixed key; every write is
// a read-modify-write of the whole collection within one call.
package registry

import (
	"time"

	"github.com/google/uuid"

	"testvault/internal/ports"
)

// Fixed keys, one per collection.
const (
	KeyTestCases  = "testvault:testcases"
	KeyTestSuites = "testvault:testsuites"
	KeyTestRuns   = "testvault:testruns"
	KeyExecutions = "testvault:executions"
	KeyAuditLogs  = "testvault:auditlogs"
	KeyHistory    = "testvault:history"
)

type Service struct {
	kv       ports.KVStore
	clock    ports.Clock
	identity ports.Identity
	newID    func() string
}

func NewService(kv ports.KVStore, clock ports.Clock, identity ports.Identity) *Service {
	return &Service{
		kv:       kv,
		clock:    clock,
		identity: identity,
		newID:    uuid.NewString,
	}
}

// WithIDGenerator overrides id synthesis; tests use counters for stable ids.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	if gen != nil {
		s.newID = gen
	}
	return s
}

// Store exposes the underlying key-value store for collaborators that
// operate on whole collections, such as snapshot export/import.
func (s *Service) Store() ports.KVStore { return s.kv }

func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

func (s *Service) timestamp() string {
	return s.now().Format(time.RFC3339)
}

func (s *Service) user() string {
	return s.identity.CurrentUser()
}
