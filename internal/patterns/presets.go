package patterns

import (
	"fmt"
	"sort"
	"strings"
)

// Preset names accepted by FromPreset.
const (
	PresetDefault = "default"
	PresetLegacy  = "legacy"
)

// Default returns the Bitnami reference patterns with capture groups for
// the artifact name where one is available.
func Default() *Set {
	return &Set{defs: []Definition{
		MustCompile("bitnami", `\bbitnami/([\w\-.]+)\b`),
		MustCompile("docker", `\bdocker\.io/bitnami/([\w\-.]+)\b`),
		MustCompile("charts", `https://charts\.bitnami\.com/bitnami`),
		MustCompile("oci", `oci://registry-1\.docker\.io/bitnamicharts(?:/([\w\-.]+))?`),
	}}
}

// Legacy returns the plain substring patterns of the first audit script.
// None of them captures, so every extracted value is empty.
func Legacy() *Set {
	return &Set{defs: []Definition{
		MustCompile("bitnami", `bitnami/`),
		MustCompile("charts", `https://charts\.bitnami\.com/bitnami`),
		MustCompile("oci", `oci://registry-1\.docker\.io/bitnamicharts`),
	}}
}

var presets = map[string]func() *Set{
	PresetDefault: Default,
	PresetLegacy:  Legacy,
}

// FromPreset returns the named preset. An empty name selects the default.
func FromPreset(name string) (*Set, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = PresetDefault
	}
	f, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown pattern preset %q (want one of %s)", name, strings.Join(PresetNames(), ", "))
	}
	return f(), nil
}

// PresetNames lists the available presets, sorted.
func PresetNames() []string {
	out := make([]string, 0, len(presets))
	for k := range presets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
