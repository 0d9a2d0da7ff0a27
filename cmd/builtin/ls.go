package builtin

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mwantia/contentfs"
	"github.com/mwantia/contentfs/cmd"
	"github.com/mwantia/contentfs/data"
)

type LsCommand struct {
}

func (ls *LsCommand) Name() string {
	return "ls"
}

func (ls *LsCommand) Description() string {
	return "List a directory or describe a document"
}

func (ls *LsCommand) Usage() string {
	return "ls [-l] [path]"
}

func (ls *LsCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Require(0, 1); err != nil {
		return cmd.ExitUsage, err
	}

	doc, err := api.Get(ctx, args.Arg(0, ""), &contentfs.GetOptions{Content: true})
	if err != nil {
		return cmd.Fail(err)
	}

	entries := []*data.Document{doc}
	if doc.IsDir() {
		entries = doc.Children()
	}

	if !args.Bool("long") {
		for _, entry := range entries {
			fmt.Fprintln(writer, displayName(entry))
		}
		return cmd.ExitOK, nil
	}

	tw := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
	for _, entry := range entries {
		mode := "r-"
		if entry.Writable {
			mode = "rw"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", entry.Type, mode, entry.Size, timestamp(entry.LastModified), displayName(entry))
	}
	return cmd.ExitOK, tw.Flush()
}

func (ls *LsCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"long": {Name: "long", Short: "l", Type: "bool", Description: "Show type, size and modification time"},
		},
	}
}

func displayName(doc *data.Document) string {
	if doc.IsDir() {
		return doc.Name + "/"
	}
	return doc.Name
}
