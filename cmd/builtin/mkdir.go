package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/mwantia/contentfs/cmd"
)

type MkdirCommand struct {
}

func (m *MkdirCommand) Name() string {
	return "mkdir"
}

func (m *MkdirCommand) Description() string {
	return "Create directories, including missing parents"
}

func (m *MkdirCommand) Usage() string {
	return "mkdir <path>..."
}

func (m *MkdirCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Require(1, -1); err != nil {
		return cmd.ExitUsage, err
	}

	for _, path := range args.Args {
		doc, err := api.MakeDirectory(ctx, path)
		if err != nil {
			return cmd.Fail(err)
		}
		fmt.Fprintf(writer, "created %s/\n", doc.Path)
	}
	return cmd.ExitOK, nil
}

func (m *MkdirCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}
