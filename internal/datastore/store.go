// Package datastore is the narrow interface the core consumes for the
// candidate/running datastore engine (spec.md §1: "the datastore engine
// ... consumed through a narrow interface"). The core never bypasses it
// (spec.md §5: "Shared resources ... accessed only through its own
// transactional interface and never bypassed").
package datastore

import (
	"context"

	"github.com/meridian-net/meridian/internal/diff"
)

// WriteMode selects how WriteCandidate combines tree with whatever is
// already staged in the candidate store.
type WriteMode int

const (
	// ModeReplace discards the existing candidate and installs tree whole
	// (spec.md §4.3 DEVICE_SYNC: "write-to-candidate with replace
	// semantics").
	ModeReplace WriteMode = iota
	// ModeMerge layers tree's leaves onto the existing candidate.
	ModeMerge
)

// Level selects how deep Validate/Commit push a candidate, mirroring a
// device handle's config_state (spec.md §3: {CLOSED, YANG-only, VALIDATE}).
type Level int

const (
	LevelNone Level = iota
	LevelYANGOnly
	LevelValidate
)

// DiffEntry is one row of a datastore-diff result (spec.md §6:
// "datastore-diff{...} -> returns list of <diff> bodies").
type DiffEntry struct {
	Path  string
	Op    string
	Value string
}

// Store is the candidate/running datastore engine's client contract. Every
// method is scoped to a mount point — the per-device subtree the schema
// service attached (spec.md §1: "mounting them under a per-device subtree
// of the global datastore").
type Store interface {
	// WriteCandidate stages tree into mount's candidate datastore.
	WriteCandidate(ctx context.Context, mount string, tree *diff.Tree, mode WriteMode) error
	// DiscardCandidate drops any staged candidate at mount without
	// committing it.
	DiscardCandidate(ctx context.Context, mount string) error
	// Validate checks the staged candidate at the given level without
	// committing it.
	Validate(ctx context.Context, mount string, level Level) error
	// Commit promotes the staged candidate at mount into running, at the
	// given validate level.
	Commit(ctx context.Context, mount string, level Level) error
	// Running returns the currently committed tree at mount.
	Running(ctx context.Context, mount string) (*diff.Tree, error)
	// Candidate returns the currently staged (uncommitted) tree at mount,
	// or nil if nothing is staged.
	Candidate(ctx context.Context, mount string) (*diff.Tree, error)
	// Diff computes the diff between two named references ("running" or
	// "candidate") at mount (spec.md §6 datastore-diff).
	Diff(ctx context.Context, mount, ref1, ref2 string) ([]DiffEntry, error)
}
