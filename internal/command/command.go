// Package command parses player input into commands.
package command

import (
	"errors"
	"strings"
)

// Command is one line of player input split into a verb and arguments.
type Command struct {
	Name string
	Args []string
}

// aliases maps shortcuts to the verb they stand for.
var aliases = map[string]string{
	"l":       "look",
	"examine": "look",
	"ex":      "look",
	"n":       "north",
	"e":       "east",
	"s":       "south",
	"w":       "west",
	"move":    "go",
	"walk":    "go",
	"fight":   "clear",
	"kill":    "clear",
	"take":    "loot",
	"touch":   "use",
	"read":    "use",
	"open":    "use",
	"path":    "guide",
	"route":   "guide",
	"m":       "map",
	"down":    "descend",
	"d":       "descend",
	"up":      "ascend",
	"u":       "ascend",
	"resets":  "floors",
	"duelist": "rival",
	"watch":   "follow",
	"online":  "who",
	"exit":    "quit",
	"logout":  "quit",
	"?":       "help",
}

// RequireArgs checks if the command has at least the minimum number of arguments
// Returns an error with the usage message if not enough arguments are provided
func (c *Command) RequireArgs(min int, usage string) error {
	if len(c.Args) < min {
		return errors.New(usage)
	}
	return nil
}

// GetTargetName joins all arguments into a single name (for multi-word targets)
func (c *Command) GetTargetName() string {
	return strings.Join(c.Args, " ")
}

// Arg returns the i-th argument or "" when there is none.
func (c *Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// Empty reports whether the input held nothing but whitespace.
func (c *Command) Empty() bool {
	return c.Name == ""
}

// ParseCommand splits input on whitespace. The verb is lowercased and any
// shortcut is expanded, so "N" becomes "north" and "d" becomes "descend".
func ParseCommand(input string) *Command {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return &Command{Name: "", Args: []string{}}
	}

	name := strings.ToLower(parts[0])
	if full, ok := aliases[name]; ok {
		name = full
	}
	return &Command{
		Name: name,
		Args: parts[1:],
	}
}

// Canonical returns the verb an alias stands for.
func Canonical(name string) string {
	name = strings.ToLower(name)
	if full, ok := aliases[name]; ok {
		return full
	}
	return name
}
