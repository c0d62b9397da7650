package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return p
}

func TestLoadFile_Basic(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "chartscout.yaml", "org: acme\nthreads: 4\nmax_bytes: 123\nskip_forks: true\nrequest_timeout: 5s\nextensions: [.yaml, .tpl]\n")
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Org == nil || *cfg.Org != "acme" {
		t.Fatalf("expected org=acme, got %#v", cfg.Org)
	}
	if cfg.Threads == nil || *cfg.Threads != 4 {
		t.Fatalf("expected threads=4, got %#v", cfg.Threads)
	}
	if cfg.MaxBytes == nil || *cfg.MaxBytes != 123 {
		t.Fatalf("expected max_bytes=123, got %#v", cfg.MaxBytes)
	}
	if cfg.SkipForks == nil || !*cfg.SkipForks {
		t.Fatalf("expected skip_forks=true")
	}
	if cfg.SkipArchived != nil {
		t.Fatalf("expected skip_archived unset, got %v", *cfg.SkipArchived)
	}
	if cfg.RequestTimeout == nil || *cfg.RequestTimeout != "5s" {
		t.Fatalf("expected request_timeout=5s, got %#v", cfg.RequestTimeout)
	}
	if len(cfg.Extensions) != 2 || cfg.Extensions[1] != ".tpl" {
		t.Fatalf("unexpected extensions: %v", cfg.Extensions)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "bad.yaml", "threads: [\n")
	if _, err := LoadFile(p); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadLocal_PrefersDotfile(t *testing.T) {
	dir := t.TempDir()
	// place both, expect the dotfile to be picked first by search order
	writeTemp(t, dir, "chartscout.yaml", "threads: 1\n")
	writeTemp(t, dir, ".chartscout.yaml", "threads: 7\n")
	cfg, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("LoadLocal: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 7 {
		t.Fatalf("expected threads=7 from .chartscout.yaml, got %#v", cfg.Threads)
	}
}

func TestLoadLocal_NoConfig(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadLocal(dir)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadGlobal_XDG_Config(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "chartscout")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeTemp(t, cfgDir, "config.yml", "threads: 9\n")
	t.Setenv("XDG_CONFIG_HOME", dir)
	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 9 {
		t.Fatalf("expected threads=9 from global config, got %#v", cfg.Threads)
	}
}

func TestLoadGlobal_NoConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "")
	if _, err := LoadGlobal(); err == nil {
		t.Fatal("expected error when no global config dir exists")
	}
}

func TestDefinitions(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "c.yaml", "patterns:\n  - name: quay\n    regex: 'quay\\.io/bitnami/([\\w\\-.]+)'\n  - name: plain\n    regex: 'bitnamilegacy'\n")
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	defs, err := cfg.Definitions()
	if err != nil {
		t.Fatalf("Definitions: %v", err)
	}
	if len(defs) != 2 || defs[0].Name != "quay" || !defs[0].HasGroup() || defs[1].HasGroup() {
		t.Fatalf("unexpected definitions: %+v", defs)
	}
}

func TestDefinitions_Invalid(t *testing.T) {
	cases := []FileConfig{
		{Pattern: []PatternConfig{{Name: "bad", Regex: "(unclosed"}}},
		{Pattern: []PatternConfig{{Regex: "x"}}},
	}
	for i, c := range cases {
		if _, err := c.Definitions(); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestWriteStarter(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".chartscout.yml")
	if err := WriteStarter(p, false); err != nil {
		t.Fatalf("WriteStarter: %v", err)
	}
	if err := WriteStarter(p, false); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
	if err := WriteStarter(p, true); err != nil {
		t.Fatalf("forced WriteStarter: %v", err)
	}
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("starter must parse: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 4 {
		t.Fatalf("starter threads: %#v", cfg.Threads)
	}
	if cfg.RawFallback == nil || !*cfg.RawFallback {
		t.Fatal("starter should enable raw_fallback")
	}
}
