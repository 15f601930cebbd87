package text

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultText(t *testing.T) {
	txt := Default()

	if !strings.Contains(txt.GetWelcomeBanner(), "D E L V E K E E P") {
		t.Errorf("banner = %q", txt.GetWelcomeBanner())
	}
	if !strings.Contains(txt.GetLoginMenu(), "[L] Login") {
		t.Errorf("menu = %q", txt.GetLoginMenu())
	}
	if got := txt.GetIntro("Alice", false); !strings.HasPrefix(got, "Welcome, Alice.") {
		t.Errorf("new player intro = %q", got)
	}
	if got := txt.GetIntro("Alice", true); !strings.HasPrefix(got, "Welcome back, Alice.") {
		t.Errorf("returning intro = %q", got)
	}
	if got := txt.GetJoinedNotice("Bob"); got != "Bob enters the dungeon." {
		t.Errorf("joined = %q", got)
	}
	if got := txt.GetLeftNotice("Bob"); got != "Bob leaves the dungeon." {
		t.Errorf("left = %q", got)
	}
	if txt.GetShutdownNotice() == "" {
		t.Error("shutdown notice should not be empty")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	content := `
welcome:
  banner: |
    =====================================
        Welcome to Test Dungeon!
    =====================================
notices:
  joined: "%s arrives."
`
	path := filepath.Join(t.TempDir(), "text.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}

	txt, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load text: %v", err)
	}

	if !strings.Contains(txt.GetWelcomeBanner(), "Welcome to Test Dungeon") {
		t.Errorf("banner = %q", txt.GetWelcomeBanner())
	}
	if got := txt.GetJoinedNotice("Bob"); got != "Bob arrives." {
		t.Errorf("joined = %q", got)
	}
	// Blocks the file leaves out keep the built-in text.
	if got := txt.GetLeftNotice("Bob"); got != "Bob leaves the dungeon." {
		t.Errorf("left = %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load("/nonexistent/text.yaml"); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("welcome: ["), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid yaml")
	}
}
