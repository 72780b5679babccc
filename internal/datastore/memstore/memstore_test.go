package memstore

import (
	"context"
	"testing"

	"github.com/meridian-net/meridian/internal/datastore"
	"github.com/meridian-net/meridian/internal/diff"
)

func ifTree(mtu string) *diff.Tree {
	t := diff.NewTree()
	ifaces := t.AddChild(t.Root, diff.Node{Name: "interfaces"})
	entry := t.AddChild(ifaces, diff.Node{Name: "if", Keys: []string{"name"}})
	t.AddChild(entry, diff.Node{Name: "name", IsLeaf: true, Value: "eth0"})
	t.AddChild(entry, diff.Node{Name: "mtu", IsLeaf: true, Value: mtu})
	return t
}

func TestWriteCommitRunning(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.WriteCandidate(ctx, "/devices/r1", ifTree("1500"), datastore.ModeReplace); err != nil {
		t.Fatalf("WriteCandidate: %v", err)
	}
	if err := s.Commit(ctx, "/devices/r1", datastore.LevelValidate); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	running, err := s.Running(ctx, "/devices/r1")
	if err != nil {
		t.Fatalf("Running: %v", err)
	}
	if !diff.Equal(running, ifTree("1500")) {
		t.Error("running tree does not match committed candidate")
	}

	cand, err := s.Candidate(ctx, "/devices/r1")
	if err != nil || cand != nil {
		t.Errorf("expected no staged candidate after commit, got %v, %v", cand, err)
	}
}

func TestCommitWithoutCandidateFails(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Commit(ctx, "/devices/r1", datastore.LevelValidate); err == nil {
		t.Fatal("expected error committing with no staged candidate")
	}
}

func TestDiscardCandidate(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.WriteCandidate(ctx, "/devices/r1", ifTree("9000"), datastore.ModeReplace)
	if err := s.DiscardCandidate(ctx, "/devices/r1"); err != nil {
		t.Fatalf("DiscardCandidate: %v", err)
	}
	cand, _ := s.Candidate(ctx, "/devices/r1")
	if cand != nil {
		t.Error("expected no candidate after discard")
	}
}

func TestDiffRunningVsCandidate(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.WriteCandidate(ctx, "/devices/r1", ifTree("1500"), datastore.ModeReplace)
	s.Commit(ctx, "/devices/r1", datastore.LevelValidate)
	s.WriteCandidate(ctx, "/devices/r1", ifTree("1400"), datastore.ModeReplace)

	entries, err := s.Diff(ctx, "/devices/r1", "running", "candidate")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(entries) != 1 || entries[0].Value != "1400" {
		t.Fatalf("unexpected diff: %+v", entries)
	}
}

func TestCommittedTreeIsIsolatedFromFurtherMutation(t *testing.T) {
	ctx := context.Background()
	s := New()
	src := ifTree("1500")
	s.WriteCandidate(ctx, "/devices/r1", src, datastore.ModeReplace)
	s.Commit(ctx, "/devices/r1", datastore.LevelValidate)

	// Mutating the original tree after commit must not affect the stored
	// running tree (copy-on-write).
	src.Nodes[len(src.Nodes)-1].Value = "9999"

	running, _ := s.Running(ctx, "/devices/r1")
	if !diff.Equal(running, ifTree("1500")) {
		t.Error("committed tree was not isolated from caller mutation")
	}
}
