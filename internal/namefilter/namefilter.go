// Package namefilter decides which account names may be registered.
package namefilter

import (
	"os"
	"strings"
	"unicode"

	"github.com/zyedidia/generic/mapset"
	"gopkg.in/yaml.v3"
)

// Config holds the name filter configuration
type Config struct {
	Enabled     bool     `yaml:"enabled"`
	BannedWords []string `yaml:"banned_words"`
	BannedNames []string `yaml:"banned_names"`
}

// Result contains the outcome of checking a name
type Result struct {
	Allowed bool
	Reason  string // Shown to the player when not allowed
}

// Filter checks names against banned words, banned names and names the
// dungeon itself uses. Comparisons ignore case and anything that is not a
// letter or digit, so "Old_Brannoc" matches "Old Brannoc".
type Filter struct {
	enabled  bool
	words    []string
	banned   mapset.Set[string]
	reserved mapset.Set[string]
}

// New creates a filter. Reserved names are refused even when the filter
// is disabled.
func New(cfg Config, reserved ...string) *Filter {
	f := &Filter{
		enabled:  cfg.Enabled,
		banned:   mapset.New[string](),
		reserved: mapset.New[string](),
	}
	for _, w := range cfg.BannedWords {
		if w = normalize(w); w != "" {
			f.words = append(f.words, w)
		}
	}
	for _, n := range cfg.BannedNames {
		if n = normalize(n); n != "" {
			f.banned.Put(n)
		}
	}
	for _, n := range reserved {
		if n = normalize(n); n != "" {
			f.reserved.Put(n)
		}
	}
	return f
}

// LoadConfig loads name filter configuration from a YAML file
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(data, &cfg)
	return cfg, err
}

func normalize(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Check validates a name against the filter rules
func (f *Filter) Check(name string) Result {
	n := normalize(name)
	if f.reserved.Has(n) {
		return Result{Reason: "That name belongs to someone who already walks the dungeon."}
	}
	if !f.enabled {
		return Result{Allowed: true}
	}
	if f.banned.Has(n) {
		return Result{Reason: "That name is not allowed."}
	}
	for _, w := range f.words {
		if strings.Contains(n, w) {
			return Result{Reason: "That name contains a word that is not allowed."}
		}
	}
	return Result{Allowed: true}
}

// Enabled reports whether banned words and names are checked.
func (f *Filter) Enabled() bool {
	return f.enabled
}
