package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mwantia/contentfs"
	"github.com/mwantia/contentfs/cmd"
	"github.com/mwantia/contentfs/cmd/builtin"
	"github.com/mwantia/contentfs/config"
	flag "github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	flags := flag.NewFlagSet("contentfs", flag.ContinueOnError)
	flags.SetInterspersed(false)

	configPath := flags.StringP("config", "c", "", "Path to the configuration file")
	mounts := flags.StringArrayP("mount", "m", nil, "Additional mount as prefix=address, may be repeated")
	logLevel := flags.String("log-level", "", "Overrides the configured log level")

	commands := cmd.NewCommandManager(nil)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: contentfs [flags] <command> [args]\n\nflags:\n%s\ncommands:\n", flags.FlagUsages())
		if err := builtin.InitBuiltin(commands); err == nil {
			commands.PrintHelp(os.Stderr)
		}
	}

	if err := flags.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return cmd.ExitOK
		}
		return cmd.ExitUsage
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return cmd.ExitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(*configPath, *mounts, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "contentfs: %v\n", err)
		return cmd.ExitUsage
	}

	manager, err := contentfs.NewFromConfig(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "contentfs: %v\n", err)
		return cmd.ExitFailure
	}
	defer manager.Shutdown(context.Background())

	commands = cmd.NewCommandManager(manager)
	if err := builtin.InitBuiltin(commands); err != nil {
		fmt.Fprintf(os.Stderr, "contentfs: %v\n", err)
		return cmd.ExitFailure
	}

	code, err := commands.Execute(ctx, os.Stdout, flags.Args()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "contentfs: %v\n", err)
	}
	return code
}

// loadConfig reads the configuration file, if any, and appends the mounts
// given on the command line.
func loadConfig(path string, mounts []string, logLevel string) (*config.Config, error) {
	extra := make([]config.MountConfig, 0, len(mounts))
	for _, raw := range mounts {
		prefix, address, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("invalid mount '%s', expected prefix=address", raw)
		}
		extra = append(extra, config.MountConfig{
			Prefix:  prefix,
			Address: address,
		})
	}

	return config.Load(path, config.WithMounts(extra...), config.WithLogLevel(logLevel))
}
