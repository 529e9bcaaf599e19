package permission

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckSafeCommand(t *testing.T) {
	g := New(filepath.Join(t.TempDir(), "approvals.json"), nil, nil)
	if got := g.Check("git status"); got != Safe {
		t.Fatalf("expected Safe, got %v", got)
	}
}

func TestCheckNeedsApprovalByDefault(t *testing.T) {
	g := New(filepath.Join(t.TempDir(), "approvals.json"), nil, nil)
	if got := g.Check("rm -rf /tmp/x"); got != NeedsApproval {
		t.Fatalf("expected NeedsApproval, got %v", got)
	}
}

func TestRequestApprovalPersistsAndReclassifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "approvals.json")
	g := New(path, nil, func(cmd string) bool { return true })

	cmd := "rm -rf /tmp/x"
	if !g.RequestApproval(cmd) {
		t.Fatalf("expected RequestApproval to return true")
	}
	if got := g.Check(cmd); got != Approved {
		t.Fatalf("expected Approved after RequestApproval, got %v", got)
	}

	// A fresh Gate reading the same file should reproduce the classification.
	g2 := New(path, nil, nil)
	if got := g2.Check(cmd); got != Approved {
		t.Fatalf("expected Approved after reload, got %v", got)
	}
}

func TestRequestApprovalWithNilCallbackDenies(t *testing.T) {
	g := New(filepath.Join(t.TempDir(), "approvals.json"), nil, nil)
	if g.RequestApproval("rm -rf /") {
		t.Fatalf("expected nil callback to deny")
	}
}

func TestCorruptApprovalsFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "approvals.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}
	g := New(path, nil, nil)
	if got := g.Check("rm -rf /tmp/x"); got != NeedsApproval {
		t.Fatalf("expected corrupt file treated as empty, got %v", got)
	}
}

func TestMissingApprovalsFileTreatedAsEmpty(t *testing.T) {
	g := New(filepath.Join(t.TempDir(), "does-not-exist.json"), nil, nil)
	if got := g.Check("rm -rf /tmp/x"); got != NeedsApproval {
		t.Fatalf("expected missing file treated as empty, got %v", got)
	}
}
