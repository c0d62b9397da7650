package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnsureIgnored_CreatesAndIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".gitignore")
	added, err := EnsureIgnored(dir, "/.chartscout_audit.jsonl")
	if err != nil {
		t.Fatalf("EnsureIgnored: %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("expected one added pattern, got %v", added)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "/.chartscout_audit.jsonl\n" {
		t.Fatalf("unexpected content: %q", string(b))
	}

	added, err = EnsureIgnored(dir, "/.chartscout_audit.jsonl")
	if err != nil {
		t.Fatalf("EnsureIgnored second: %v", err)
	}
	if len(added) != 0 {
		t.Fatalf("expected nothing added, got %v", added)
	}
	b2, _ := os.ReadFile(p)
	if strings.Count(string(b2), "chartscout_audit") != 1 {
		t.Fatalf("expected single occurrence, got: %q", string(b2))
	}
}

func TestEnsureIgnored_FixesMissingTrailingNewline(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".gitignore")
	if err := os.WriteFile(p, []byte("node_modules/"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := EnsureIgnored(dir, "dist/", "dist/", " "); err != nil {
		t.Fatalf("EnsureIgnored: %v", err)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "node_modules/\ndist/\n" {
		t.Fatalf("unexpected content: %q", string(b))
	}
}

func TestLocalArtifacts(t *testing.T) {
	got := LocalArtifacts(".chartscout_audit.jsonl")
	if len(got) != 2 || got[1] != "/.chartscout_audit.jsonl" {
		t.Fatalf("unexpected artifacts: %#v", got)
	}
	if len(LocalArtifacts("")) != 1 {
		t.Fatalf("expected only the report glob without an audit log")
	}
}
