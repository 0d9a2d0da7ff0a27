package contentfs

import (
	"fmt"
	"time"

	"github.com/mwantia/contentfs/log"
)

const (
	DefaultCopyConcurrency  = 8
	DefaultOperationTimeout = 30 * time.Second
)

type ManagerOptions struct {
	Logger        *log.Logger
	LogLevel      log.LogLevel
	LogFile       string
	NoTerminalLog bool

	// OperationTimeout bounds every operation whose context carries no deadline
	OperationTimeout time.Duration
	// CopyConcurrency limits parallel file copies of recursive transfers
	CopyConcurrency int
	// MaxCheckpoints keeps only the newest checkpoints per document, 0 keeps all
	MaxCheckpoints int
}

type ManagerOption func(*ManagerOptions) error

func newDefaultManagerOptions() *ManagerOptions {
	return &ManagerOptions{
		LogLevel:         log.Info,
		OperationTimeout: DefaultOperationTimeout,
		CopyConcurrency:  DefaultCopyConcurrency,
	}
}

func WithLogLevel(logLevel log.LogLevel) ManagerOption {
	return func(opts *ManagerOptions) error {
		opts.LogLevel = logLevel
		return nil
	}
}

func WithoutTerminalLog() ManagerOption {
	return func(opts *ManagerOptions) error {
		opts.NoTerminalLog = true
		return nil
	}
}

func WithLogFile(logFile string) ManagerOption {
	return func(opts *ManagerOptions) error {
		opts.LogFile = logFile
		return nil
	}
}

// WithLogger replaces the logger built from the other log options.
func WithLogger(logger *log.Logger) ManagerOption {
	return func(opts *ManagerOptions) error {
		opts.Logger = logger
		return nil
	}
}

// WithOperationTimeout sets the deadline used when the caller supplied none.
// Zero disables it.
func WithOperationTimeout(timeout time.Duration) ManagerOption {
	return func(opts *ManagerOptions) error {
		if timeout < 0 {
			return fmt.Errorf("operation timeout must not be negative")
		}
		opts.OperationTimeout = timeout
		return nil
	}
}

func WithCopyConcurrency(limit int) ManagerOption {
	return func(opts *ManagerOptions) error {
		if limit < 1 {
			return fmt.Errorf("copy concurrency must be at least 1, got %d", limit)
		}
		opts.CopyConcurrency = limit
		return nil
	}
}

// WithMaxCheckpoints keeps the n newest checkpoints of every document.
func WithMaxCheckpoints(n int) ManagerOption {
	return func(opts *ManagerOptions) error {
		if n < 0 {
			return fmt.Errorf("max checkpoints must not be negative, got %d", n)
		}
		opts.MaxCheckpoints = n
		return nil
	}
}
