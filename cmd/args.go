package cmd

import "fmt"

// CommandArgs contains parsed command arguments
type CommandArgs struct {
	// Positional arguments (command-specific)
	Args []string

	// Parsed flags
	Flags map[string]any

	// Raw unparsed arguments (for custom parsing)
	Raw []string
}

// Arg returns the positional argument at index i, or fallback when absent.
func (ca *CommandArgs) Arg(i int, fallback string) string {
	if i < len(ca.Args) {
		return ca.Args[i]
	}
	return fallback
}

// Require fails unless between min and max positional arguments were given.
// A negative max means no upper bound.
func (ca *CommandArgs) Require(min, max int) error {
	if len(ca.Args) < min {
		return fmt.Errorf("%w: expected at least %d argument(s), got %d", ErrUsage, min, len(ca.Args))
	}
	if max >= 0 && len(ca.Args) > max {
		return fmt.Errorf("%w: expected at most %d argument(s), got %d", ErrUsage, max, len(ca.Args))
	}
	return nil
}

func (ca *CommandArgs) Bool(name string) bool {
	v, _ := ca.Flags[name].(bool)
	return v
}

func (ca *CommandArgs) String(name string) string {
	v, _ := ca.Flags[name].(string)
	return v
}

func (ca *CommandArgs) Int(name string) int64 {
	v, _ := ca.Flags[name].(int64)
	return v
}

// CommandFlagSet defines the expected flags for a command
type CommandFlagSet struct {
	Flags map[string]*CommandFlag
}

// CommandFlag represents a single command-line flag
type CommandFlag struct {
	Name        string `json:"name"`              // e.g., "type" or "t"
	Short       string `json:"short"`             // Single-char shorthand (e.g., "t")
	Type        string `json:"type"`              // "string", "bool", "int"
	Default     any    `json:"default,omitempty"` // Default value
	Required    bool   `json:"required"`          // Must be provided
	Description string `json:"description"`       // Help text
}
