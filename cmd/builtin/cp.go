package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/mwantia/contentfs/cmd"
)

type CpCommand struct {
}

func (c *CpCommand) Name() string {
	return "cp"
}

func (c *CpCommand) Description() string {
	return "Copy a document into a directory under a free -Copy name"
}

func (c *CpCommand) Usage() string {
	return "cp <source> [directory]"
}

func (c *CpCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Require(1, 2); err != nil {
		return cmd.ExitUsage, err
	}

	src := args.Args[0]
	dir := args.Arg(1, "")
	if len(args.Args) == 1 {
		doc, err := api.Get(ctx, src, nil)
		if err != nil {
			return cmd.Fail(err)
		}
		dir = doc.Dir()
	}

	doc, err := api.Copy(ctx, src, dir)
	if err != nil {
		return cmd.Fail(err)
	}

	fmt.Fprintf(writer, "copied %s -> %s\n", src, doc.Path)
	return cmd.ExitOK, nil
}

func (c *CpCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}
