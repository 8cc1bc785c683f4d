// Package memory holds an in-memory ledger used by tests and as a reference
// implementation of the store contract.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shambhavip19/CyberHope/internal/domain/evidence"
)

type Store struct {
	mu      sync.RWMutex
	nextID  uint64
	records map[uint64]*evidence.Record
}

func NewStore() *Store {
	return &Store{records: make(map[uint64]*evidence.Record)}
}

func (s *Store) Create(ctx context.Context, rec evidence.Record) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec.ID = s.nextID
	rec.Owner = evidence.NormalizeAddress(rec.Owner)
	clone := cloneRecord(&rec)
	s.records[rec.ID] = &clone
	return rec.ID, nil
}

func (s *Store) Get(ctx context.Context, id uint64) (evidence.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return evidence.Record{}, evidence.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *Store) ListByOwner(ctx context.Context, owner string) ([]evidence.Record, error) {
	owner = evidence.NormalizeAddress(owner)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []evidence.Record
	for _, rec := range s.records {
		if rec.Owner == owner {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Update(ctx context.Context, id uint64, fn func(rec *evidence.Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return evidence.ErrNotFound
	}

	working := cloneRecord(rec)
	if err := fn(&working); err != nil {
		return err
	}

	// Identity fields are not updatable through this path.
	working.ID = rec.ID
	working.Owner = rec.Owner
	working.ContentAddress = rec.ContentAddress
	working.CreatedAt = rec.CreatedAt

	s.records[id] = &working
	return nil
}

func (s *Store) Purge(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[uint64]*evidence.Record)
	s.nextID = 0
	return nil
}

func cloneRecord(rec *evidence.Record) evidence.Record {
	out := *rec
	out.AccessRequests = append([]evidence.AccessRequest(nil), rec.AccessRequests...)
	out.GrantedAccess = append([]evidence.GrantedAccess(nil), rec.GrantedAccess...)
	return out
}
