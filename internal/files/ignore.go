// Package files holds small helpers for the local files chartscout writes
// next to a project: reports, baselines and the audit log.
package files

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// LocalArtifacts returns the per-project files chartscout may create that
// usually should not be committed.
func LocalArtifacts(auditLog string) []string {
	out := []string{"/chartscout-report.*"}
	if auditLog != "" {
		out = append(out, "/"+filepath.ToSlash(auditLog))
	}
	return out
}

// EnsureIgnored appends each missing pattern to repoRoot/.gitignore, creating
// the file when needed. It returns the patterns that were added.
func EnsureIgnored(repoRoot string, patterns ...string) ([]string, error) {
	path := filepath.Join(repoRoot, ".gitignore")
	existing := map[string]bool{}
	endsWithNewline := true
	if b, err := os.ReadFile(path); err == nil {
		sc := bufio.NewScanner(strings.NewReader(string(b)))
		for sc.Scan() {
			existing[strings.TrimSpace(sc.Text())] = true
		}
		endsWithNewline = len(b) == 0 || b[len(b)-1] == '\n'
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	var added []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || existing[p] {
			continue
		}
		existing[p] = true
		added = append(added, p)
	}
	if len(added) == 0 {
		return nil, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var sb strings.Builder
	if !endsWithNewline {
		sb.WriteByte('\n')
	}
	for _, p := range added {
		sb.WriteString(p)
		sb.WriteByte('\n')
	}
	if _, err := f.WriteString(sb.String()); err != nil {
		return nil, err
	}
	return added, nil
}
