package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/mwantia/contentfs/data"
)

var (
	ErrUsage          = errors.New("usage error")
	ErrUnknownCommand = errors.New("unknown command")
)

// Exit codes returned by Execute.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// CommandManager handles command registration, parsing, and execution
type CommandManager struct {
	mu   sync.RWMutex
	api  API
	cmds map[string]Command
}

func NewCommandManager(api API) *CommandManager {
	return &CommandManager{
		api:  api,
		cmds: make(map[string]Command),
	}
}

// Register registers a custom command
func (cm *CommandManager) Register(cmd Command) error {
	if cmd == nil {
		return fmt.Errorf("command cannot be nil")
	}

	name := cmd.Name()
	if name == "" {
		return fmt.Errorf("command name cannot be empty")
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.cmds[name]; exists {
		return fmt.Errorf("command already registered: %s", name)
	}

	cm.cmds[name] = cmd
	return nil
}

// Get returns a command by name
func (cm *CommandManager) Get(name string) (Command, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	cmd, exists := cm.cmds[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	return cmd, nil
}

// List returns all registered commands sorted by name
func (cm *CommandManager) List() []Command {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	commands := make([]Command, 0, len(cm.cmds))
	for _, cmd := range cm.cmds {
		commands = append(commands, cmd)
	}
	slices.SortFunc(commands, func(a, b Command) int {
		return strings.Compare(a.Name(), b.Name())
	})

	return commands
}

// Execute parses and executes a command
func (cm *CommandManager) Execute(ctx context.Context, writer io.Writer, args ...string) (int, error) {
	if len(args) == 0 {
		return ExitUsage, fmt.Errorf("%w: no command specified", ErrUsage)
	}

	cmd, err := cm.Get(args[0])
	if err != nil {
		return ExitUsage, err
	}

	flagSet := cmd.GetFlags()
	if flagSet == nil {
		flagSet = &CommandFlagSet{Flags: make(map[string]*CommandFlag)}
	}

	parsed, err := NewParser(flagSet).Parse(args[1:])
	if err != nil {
		return ExitUsage, fmt.Errorf("%w: %v\nusage: %s", ErrUsage, err, cmd.Usage())
	}

	code, err := cmd.Execute(ctx, cm.api, parsed, writer)
	if errors.Is(err, ErrUsage) {
		return ExitUsage, fmt.Errorf("%w\nusage: %s", err, cmd.Usage())
	}
	return code, err
}

// PrintHelp writes a summary of every registered command.
func (cm *CommandManager) PrintHelp(writer io.Writer) {
	for _, cmd := range cm.List() {
		fmt.Fprintf(writer, "  %-12s %s\n", cmd.Name(), cmd.Description())
	}
}

// Fail returns the exit code and error for a failed manager call.
func Fail(err error) (int, error) {
	if err == nil {
		return ExitOK, nil
	}
	if kind := data.KindOf(err); kind != data.KindUnknown {
		return ExitFailure, fmt.Errorf("%s: %w", kind, err)
	}
	return ExitFailure, err
}
