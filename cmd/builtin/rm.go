package builtin

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mwantia/contentfs/cmd"
	"github.com/mwantia/contentfs/data"
)

type RmCommand struct {
}

func (r *RmCommand) Name() string {
	return "rm"
}

func (r *RmCommand) Description() string {
	return "Delete documents or directory trees"
}

func (r *RmCommand) Usage() string {
	return "rm [-f] <path>..."
}

func (r *RmCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Require(1, -1); err != nil {
		return cmd.ExitUsage, err
	}

	for _, path := range args.Args {
		err := api.Delete(ctx, path)
		if errors.Is(err, data.ErrNotFound) && args.Bool("force") {
			continue
		}
		if err != nil {
			var ce *data.ContentsError
			if errors.As(err, &ce) && ce.Child != "" {
				fmt.Fprintf(writer, "stopped at %s\n", ce.Child)
			}
			return cmd.Fail(err)
		}
		fmt.Fprintf(writer, "deleted %s\n", path)
	}
	return cmd.ExitOK, nil
}

func (r *RmCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"force": {Name: "force", Short: "f", Type: "bool", Description: "Ignore missing paths"},
		},
	}
}
