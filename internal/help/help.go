// Package help provides help text loading and lookup from YAML files.
package help

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed help.yaml
var defaultHelp []byte

// Topic represents a single help topic with aliases and text.
type Topic struct {
	Aliases []string `yaml:"aliases"`
	Text    string   `yaml:"text"`
}

// HelpData represents the structure of a help file.
type HelpData struct {
	Topics      map[string]Topic `yaml:"topics"`
	GeneralHelp string           `yaml:"general_help"`
	AdminHelp   string           `yaml:"admin_help"`
}

// Help provides help text lookup. It is read-only after loading.
type Help struct {
	data        *HelpData
	aliasLookup map[string]string // maps alias -> topic name
}

// Default returns the help text built into the server.
func Default() *Help {
	h, err := Parse(defaultHelp)
	if err != nil {
		panic(fmt.Sprintf("built-in help is invalid: %v", err))
	}
	return h
}

// Load loads help data from a YAML file.
func Load(path string) (*Help, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read help file: %w", err)
	}
	return Parse(data)
}

// Parse builds help from YAML.
func Parse(data []byte) (*Help, error) {
	var helpData HelpData
	if err := yaml.Unmarshal(data, &helpData); err != nil {
		return nil, fmt.Errorf("failed to parse help file: %w", err)
	}

	h := &Help{
		data:        &helpData,
		aliasLookup: make(map[string]string),
	}

	// Build alias lookup map
	for topicName, topic := range helpData.Topics {
		h.aliasLookup[strings.ToLower(topicName)] = topicName
		for _, alias := range topic.Aliases {
			h.aliasLookup[strings.ToLower(alias)] = topicName
		}
	}

	return h, nil
}

// GetTopic returns help text for a given topic/alias.
// Returns empty string if topic not found.
func (h *Help) GetTopic(topic string) string {
	topicName, ok := h.aliasLookup[strings.ToLower(strings.TrimSpace(topic))]
	if !ok {
		return ""
	}
	t, ok := h.data.Topics[topicName]
	if !ok {
		return ""
	}
	return strings.TrimSpace(t.Text)
}

// Topics returns the topic names in order.
func (h *Help) Topics() []string {
	names := make([]string, 0, len(h.data.Topics))
	for name := range h.data.Topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetGeneralHelp returns the general help text.
func (h *Help) GetGeneralHelp() string {
	return strings.TrimSpace(h.data.GeneralHelp)
}

// GetAdminHelp returns the admin help section.
func (h *Help) GetAdminHelp() string {
	return strings.TrimSpace(h.data.AdminHelp)
}

// GetHelpText returns help for a topic, or general help if topic is empty.
// If isAdmin is true, admin commands are appended to general help.
func (h *Help) GetHelpText(topic string, isAdmin bool) string {
	if topic == "" {
		help := h.GetGeneralHelp()
		if isAdmin && h.GetAdminHelp() != "" {
			help += "\n" + h.GetAdminHelp()
		}
		return help
	}

	text := h.GetTopic(topic)
	if text == "" {
		return fmt.Sprintf("No help available for '%s'.\nType 'help' for a list of commands.", topic)
	}
	return text
}
