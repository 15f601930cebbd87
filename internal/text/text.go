// Package text provides the session server's externalized text blocks.
package text

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed text.yaml
var defaultText []byte

// TextData represents the structure of the text.yaml file.
type TextData struct {
	Welcome WelcomeText `yaml:"welcome"`
	Intro   IntroText   `yaml:"intro"`
	Notices NoticeText  `yaml:"notices"`
}

// WelcomeText is shown before login.
type WelcomeText struct {
	Banner string `yaml:"banner"`
	Menu   string `yaml:"menu"`
}

// IntroText greets a player after login.
type IntroText struct {
	NewPlayer string `yaml:"new_player"`
	Returning string `yaml:"returning"`
}

// NoticeText holds server-wide announcements.
type NoticeText struct {
	Shutdown string `yaml:"shutdown"`
	Joined   string `yaml:"joined"`
	Left     string `yaml:"left"`
}

// Text provides text lookup functionality.
type Text struct {
	data TextData
}

// Default returns the text compiled into the binary.
func Default() *Text {
	t, err := Parse(defaultText)
	if err != nil {
		panic(fmt.Sprintf("text: embedded text.yaml: %v", err))
	}
	return t
}

// Load loads text data from a YAML file.
func Load(path string) (*Text, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}
	return Parse(data)
}

// Parse reads text data. Blocks missing from data keep their defaults.
func Parse(data []byte) (*Text, error) {
	var td TextData
	if len(defaultText) > 0 {
		if err := yaml.Unmarshal(defaultText, &td); err != nil {
			return nil, fmt.Errorf("failed to parse default text: %w", err)
		}
	}
	if err := yaml.Unmarshal(data, &td); err != nil {
		return nil, fmt.Errorf("failed to parse text file: %w", err)
	}
	return &Text{data: td}, nil
}

// GetWelcomeBanner returns the banner shown on connect.
func (t *Text) GetWelcomeBanner() string {
	return strings.TrimSpace(t.data.Welcome.Banner)
}

// GetLoginMenu returns the login/register choice menu.
func (t *Text) GetLoginMenu() string {
	return strings.TrimSpace(t.data.Welcome.Menu)
}

// GetIntro returns the greeting for name, depending on whether they have
// been into the dungeon before.
func (t *Text) GetIntro(name string, returning bool) string {
	tmpl := t.data.Intro.NewPlayer
	if returning {
		tmpl = t.data.Intro.Returning
	}
	return fmt.Sprintf(strings.TrimSpace(tmpl), name)
}

// GetShutdownNotice returns the message broadcast before the server stops.
func (t *Text) GetShutdownNotice() string {
	return strings.TrimSpace(t.data.Notices.Shutdown)
}

// GetJoinedNotice returns the "%s enters the dungeon" template filled in.
func (t *Text) GetJoinedNotice(name string) string {
	return fmt.Sprintf(strings.TrimSpace(t.data.Notices.Joined), name)
}

// GetLeftNotice returns the "%s leaves the dungeon" template filled in.
func (t *Text) GetLeftNotice(name string) string {
	return fmt.Sprintf(strings.TrimSpace(t.data.Notices.Left), name)
}
