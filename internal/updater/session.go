package updater

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/distantorigin/mode-manager/internal/resolver"
	"github.com/distantorigin/mode-manager/internal/ruleset"
)

// ErrNotPending is returned when a selection names a record with no pending update
var ErrNotPending = errors.New("no pending update for record")

// Selection picks pending items by record index. All takes every pending item.
type Selection struct {
	All     bool
	Indices []int
}

// Session owns a record list and its pending updates. Only one Check or
// Apply runs at a time; a concurrent call fails with ErrBusy.
type Session struct {
	Resolver *resolver.Resolver
	Batch    *Batch

	busy sync.Mutex

	mu      sync.RWMutex
	records []ruleset.Record
	pending map[int]Pending
}

// NewSession creates a session over a copy of records
func NewSession(records []ruleset.Record, res *resolver.Resolver, batch *Batch) *Session {
	return &Session{
		Resolver: res,
		Batch:    batch,
		records:  slices.Clone(records),
		pending:  make(map[int]Pending),
	}
}

// Records returns a copy of the current records
func (s *Session) Records() []ruleset.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records)
}

// Pending returns the pending items in list order
func (s *Session) Pending() []Pending {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Pending, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Pending) int { return a.Index - b.Index })
	return out
}

// Check resolves every record, stores the statuses and rebuilds the pending set.
func (s *Session) Check(ctx context.Context) ([]resolver.Resolution, error) {
	if !s.busy.TryLock() {
		return nil, ErrBusy
	}
	defer s.busy.Unlock()

	s.mu.Lock()
	for i := range s.records {
		s.records[i] = s.records[i].Reset()
	}
	snapshot := slices.Clone(s.records)
	s.mu.Unlock()

	// Incomplete records stay Unchecked and are never looked up or installed
	results := make([]resolver.Resolution, len(snapshot))
	var valid []ruleset.Record
	var positions []int
	for i, rec := range snapshot {
		results[i] = resolver.Resolution{Index: i, Status: ruleset.Unchecked}
		if err := rec.Validate(); err != nil {
			s.Batch.logger().Warn("skipping invalid record", "index", i, "ruleset", rec.Slug(), "error", err)
			continue
		}
		valid = append(valid, rec)
		positions = append(positions, i)
	}
	for _, r := range s.Resolver.ResolveAll(ctx, valid, s.Batch.InstallDir) {
		r.Index = positions[r.Index]
		results[r.Index] = r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.pending)
	for _, r := range results {
		s.records[r.Index].Status = r.Status
		if r.Status.NeedsUpdate() && r.Latest != nil {
			s.pending[r.Index] = Pending{
				Index:   r.Index,
				Record:  s.records[r.Index],
				Release: *r.Latest,
			}
		}
	}
	return results, nil
}

// Apply installs the selected pending items. Records are written back only
// after the whole batch has finished; updated items leave the pending set.
// With ErrInstallDir the returned result holds the items finished before the stop.
func (s *Session) Apply(ctx context.Context, sel Selection) (*Result, error) {
	if !s.busy.TryLock() {
		return nil, ErrBusy
	}
	defer s.busy.Unlock()

	items, err := s.selected(sel)
	if err != nil {
		return nil, err
	}

	res, err := s.Batch.Run(ctx, items)
	if res == nil {
		return nil, err
	}

	s.mu.Lock()
	for _, o := range res.Items {
		if o.State != Updated {
			continue
		}
		s.records[o.Pending.Index] = o.Record
		delete(s.pending, o.Pending.Index)
	}
	s.mu.Unlock()

	return res, err
}

func (s *Session) selected(sel Selection) ([]Pending, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sel.All {
		out := make([]Pending, 0, len(s.pending))
		for i := range s.records {
			if p, ok := s.pending[i]; ok {
				out = append(out, p)
			}
		}
		return out, nil
	}

	indices := slices.Clone(sel.Indices)
	slices.Sort(indices)
	indices = slices.Compact(indices)

	out := make([]Pending, 0, len(indices))
	for _, i := range indices {
		p, ok := s.pending[i]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrNotPending, i)
		}
		out = append(out, p)
	}
	return out, nil
}
