package builtin

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mwantia/contentfs/cmd"
	"github.com/mwantia/contentfs/data"
)

type MvCommand struct {
}

func (m *MvCommand) Name() string {
	return "mv"
}

func (m *MvCommand) Description() string {
	return "Rename or move a document, across mounts if needed"
}

func (m *MvCommand) Usage() string {
	return "mv <source> <destination>"
}

func (m *MvCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Require(2, 2); err != nil {
		return cmd.ExitUsage, err
	}

	doc, err := api.Rename(ctx, args.Args[0], args.Args[1])
	if errors.Is(err, data.ErrRenameLeftDuplicate) {
		fmt.Fprintf(writer, "copied to %s, but %s could not be removed\n", args.Args[1], args.Args[0])
	}
	if err != nil {
		return cmd.Fail(err)
	}

	fmt.Fprintf(writer, "moved %s -> %s\n", args.Args[0], doc.Path)
	return cmd.ExitOK, nil
}

func (m *MvCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}
