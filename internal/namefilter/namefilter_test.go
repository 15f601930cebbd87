package namefilter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDisabledFilterAllowsAll(t *testing.T) {
	f := New(Config{Enabled: false, BannedWords: []string{"admin"}, BannedNames: []string{"root"}})

	if f.Enabled() {
		t.Error("filter should be disabled")
	}
	for _, name := range []string{"admin", "root", "Alice"} {
		if !f.Check(name).Allowed {
			t.Errorf("%q should be allowed when the filter is disabled", name)
		}
	}
}

func TestCheck(t *testing.T) {
	f := New(Config{
		Enabled:     true,
		BannedWords: []string{"admin", "Game-Master"},
		BannedNames: []string{"root", "system"},
	}, "Old Brannoc", "Varek the Grey")

	tests := []struct {
		name    string
		allowed bool
		reason  string
	}{
		{"alice", true, ""},
		{"admin", false, "That name contains a word that is not allowed."},
		{"SuperAdmin99", false, "That name contains a word that is not allowed."},
		{"ad_min", false, "That name contains a word that is not allowed."},
		{"gamemaster", false, "That name contains a word that is not allowed."},
		{"root", false, "That name is not allowed."},
		{"ROOT", false, "That name is not allowed."},
		{"rooted", true, ""},
		{"old_brannoc", false, "That name belongs to someone who already walks the dungeon."},
		{"VarekTheGrey", false, "That name belongs to someone who already walks the dungeon."},
		{"varek", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Check(tt.name)
			if got.Allowed != tt.allowed || got.Reason != tt.reason {
				t.Errorf("Check(%q) = %+v, want allowed=%v reason=%q", tt.name, got, tt.allowed, tt.reason)
			}
		})
	}
}

func TestReservedNamesApplyWhenDisabled(t *testing.T) {
	f := New(Config{}, "Sister Ysolde")
	if f.Check("sister-ysolde").Allowed {
		t.Error("reserved names should be refused even with the filter disabled")
	}
	if !f.Check("ysolde").Allowed {
		t.Error("only the whole reserved name is refused")
	}
}

func TestBlankEntriesIgnored(t *testing.T) {
	f := New(Config{Enabled: true, BannedWords: []string{"", "--"}, BannedNames: []string{""}}, "")
	if !f.Check("alice").Allowed {
		t.Error("blank entries should not ban every name")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.yaml")
	content := `enabled: true
banned_words:
  - admin
banned_names:
  - root
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !cfg.Enabled || len(cfg.BannedWords) != 1 || len(cfg.BannedNames) != 1 {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
