package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/mwantia/contentfs/cmd"
	"github.com/mwantia/contentfs/data"
)

type NewCommand struct {
}

func (n *NewCommand) Name() string {
	return "new"
}

func (n *NewCommand) Description() string {
	return "Create an untitled file, notebook or directory"
}

func (n *NewCommand) Usage() string {
	return "new [--type file|notebook|directory] [--ext .txt] [directory]"
}

func (n *NewCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Require(0, 1); err != nil {
		return cmd.ExitUsage, err
	}

	typ := data.DocumentType(args.String("type"))
	switch typ {
	case data.TypeFile, data.TypeNotebook, data.TypeDirectory:
	default:
		return cmd.ExitUsage, fmt.Errorf("%w: unknown type '%s'", cmd.ErrUsage, typ)
	}

	doc, err := api.NewUntitled(ctx, args.Arg(0, ""), typ, args.String("ext"))
	if err != nil {
		return cmd.Fail(err)
	}

	fmt.Fprintf(writer, "created %s\n", doc.Path)
	return cmd.ExitOK, nil
}

func (n *NewCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"type": {Name: "type", Short: "t", Type: "string", Default: string(data.TypeFile), Description: "Kind of document to create"},
			"ext":  {Name: "ext", Short: "e", Type: "string", Description: "Extension for untitled files"},
		},
	}
}
