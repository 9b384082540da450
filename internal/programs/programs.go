// Package programs holds the allow-list of academic programs whose graduates
// appear on the carousel.
package programs

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed programs.yaml
var defaultPrograms []byte

type file struct {
	Programs []string `yaml:"programs"`
}

// AllowList answers whether a career label is one of the recognized programs.
// It is immutable once built.
type AllowList struct {
	normalize bool
	labels    map[string]struct{}
}

// New builds an allow-list from labels. With normalize set, labels and
// lookups are compared in canonical form (see Canonical); otherwise the
// comparison is exact.
func New(labels []string, normalize bool) *AllowList {
	a := &AllowList{normalize: normalize, labels: make(map[string]struct{}, len(labels))}
	for _, l := range labels {
		if strings.TrimSpace(l) == "" {
			continue
		}
		a.labels[a.key(l)] = struct{}{}
	}
	return a
}

// Default returns the embedded program list.
func Default(normalize bool) (*AllowList, error) {
	return parse(defaultPrograms, normalize)
}

// Load reads a YAML program list from path, or the embedded list when path
// is empty.
func Load(path string, normalize bool) (*AllowList, error) {
	if path == "" {
		return Default(normalize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read programs file: %w", err)
	}
	return parse(data, normalize)
}

func parse(data []byte, normalize bool) (*AllowList, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse programs: %w", err)
	}
	if len(f.Programs) == 0 {
		return nil, fmt.Errorf("parse programs: list is empty")
	}
	return New(f.Programs, normalize), nil
}

// Allowed reports whether career is on the list.
func (a *AllowList) Allowed(career string) bool {
	if career == "" {
		return false
	}
	_, ok := a.labels[a.key(career)]
	return ok
}

// Len returns the number of distinct entries after normalization.
func (a *AllowList) Len() int {
	return len(a.labels)
}

func (a *AllowList) key(label string) string {
	if a.normalize {
		return Canonical(label)
	}
	return label
}

// Canonical trims, collapses inner whitespace, strips diacritics and
// upper-cases a label: "  Ingeniería  de sistemas" -> "INGENIERIA DE SISTEMAS".
// Transformers and casers are stateful, so each call builds its own.
func Canonical(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, label)
	if err != nil {
		stripped = label
	}
	return cases.Upper(language.Spanish).String(strings.Join(strings.Fields(stripped), " "))
}
