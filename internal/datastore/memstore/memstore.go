// Package memstore is the reference in-memory implementation of
// datastore.Store: a candidate/running pair of diff.Tree per mount point,
// copy-on-write so callers never observe a partially-written tree. Grounded
// on the teacher's ChangeSet apply/verify split (pkg/network/changeset.go):
// Commit here plays the role of Apply+Verify collapsed into one step, since
// memstore's "device" is just the map itself rather than a remote Redis
// connection that could diverge from what was written.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/meridian-net/meridian/internal/datastore"
	"github.com/meridian-net/meridian/internal/diff"
)

type mountState struct {
	running   *diff.Tree
	candidate *diff.Tree
}

// Store is an in-memory datastore.Store, sufficient to drive the full
// pull/diff/push/commit cycle end to end in tests and in the bundled
// daemon (SPEC_FULL.md §4.7).
type Store struct {
	mu     sync.RWMutex
	mounts map[string]*mountState
}

var _ datastore.Store = (*Store)(nil)

// New returns an empty memstore.
func New() *Store {
	return &Store{mounts: make(map[string]*mountState)}
}

func (s *Store) stateFor(mount string) *mountState {
	st, ok := s.mounts[mount]
	if !ok {
		st = &mountState{running: diff.NewTree()}
		s.mounts[mount] = st
	}
	return st
}

func (s *Store) WriteCandidate(_ context.Context, mount string, tree *diff.Tree, mode datastore.WriteMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(mount)

	switch mode {
	case datastore.ModeReplace:
		st.candidate = diff.SubtreeCopy(tree, tree.Root)
	case datastore.ModeMerge:
		base := st.candidate
		if base == nil {
			base = st.running
		}
		script := diff.Diff(base, tree)
		script.Deletes = nil // layer onto base: nothing absent from tree is removed
		st.candidate = diff.Apply(base, script)
	default:
		return fmt.Errorf("memstore: unknown write mode %d", mode)
	}
	return nil
}

func (s *Store) DiscardCandidate(_ context.Context, mount string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(mount)
	st.candidate = nil
	return nil
}

// Validate is a structural no-op in memstore — there is no real schema
// grammar to reject against (spec.md Non-goals), so any staged candidate
// validates.
func (s *Store) Validate(_ context.Context, mount string, _ datastore.Level) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.mounts[mount]; !ok {
		return fmt.Errorf("memstore: mount %q not found", mount)
	}
	return nil
}

func (s *Store) Commit(_ context.Context, mount string, _ datastore.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateFor(mount)
	if st.candidate == nil {
		return fmt.Errorf("memstore: mount %q has no staged candidate to commit", mount)
	}
	st.running = st.candidate
	st.candidate = nil
	return nil
}

func (s *Store) Running(_ context.Context, mount string) (*diff.Tree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.mounts[mount]
	if !ok {
		return diff.NewTree(), nil
	}
	return diff.SubtreeCopy(st.running, st.running.Root), nil
}

func (s *Store) Candidate(_ context.Context, mount string) (*diff.Tree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.mounts[mount]
	if !ok || st.candidate == nil {
		return nil, nil
	}
	return diff.SubtreeCopy(st.candidate, st.candidate.Root), nil
}

func (s *Store) Diff(_ context.Context, mount, ref1, ref2 string) ([]datastore.DiffEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.mounts[mount]
	if !ok {
		return nil, fmt.Errorf("memstore: mount %q not found", mount)
	}

	t1, err := s.resolveRef(st, ref1)
	if err != nil {
		return nil, err
	}
	t2, err := s.resolveRef(st, ref2)
	if err != nil {
		return nil, err
	}

	script := diff.Diff(t1, t2)
	var out []datastore.DiffEntry
	for _, e := range script.All() {
		out = append(out, datastore.DiffEntry{Path: e.Path, Op: e.Op.String(), Value: e.Value})
	}
	return out, nil
}

func (s *Store) resolveRef(st *mountState, ref string) (*diff.Tree, error) {
	switch ref {
	case "running":
		return st.running, nil
	case "candidate":
		if st.candidate == nil {
			return diff.NewTree(), nil
		}
		return st.candidate, nil
	default:
		return nil, fmt.Errorf("memstore: unknown datastore reference %q", ref)
	}
}
