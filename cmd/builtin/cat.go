package builtin

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/mwantia/contentfs"
	"github.com/mwantia/contentfs/cmd"
	"github.com/mwantia/contentfs/data"
)

type CatCommand struct {
}

func (c *CatCommand) Name() string {
	return "cat"
}

func (c *CatCommand) Description() string {
	return "Print the content of a document"
}

func (c *CatCommand) Usage() string {
	return "cat [--format text|base64] <path>"
}

func (c *CatCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Require(1, 1); err != nil {
		return cmd.ExitUsage, err
	}

	opts := &contentfs.GetOptions{
		Content: true,
		Format:  data.Format(args.String("format")),
	}
	doc, err := api.Get(ctx, args.Args[0], opts)
	if err != nil {
		return cmd.Fail(err)
	}

	switch {
	case doc.IsDir():
		return cmd.Fail(fmt.Errorf("%w: '%s' is a directory", data.ErrInvalidContent, doc.Path))
	case doc.Format == data.FormatJSON:
		nb, _ := doc.Notebook()
		raw, err := nb.Marshal()
		if err != nil {
			return cmd.Fail(err)
		}
		_, err = writer.Write(raw)
		return cmd.Fail(err)
	case doc.Format == data.FormatBase64 && opts.Format == "":
		// Binary content is written raw unless base64 was asked for
		encoded, _ := doc.Text()
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return cmd.Fail(err)
		}
		_, err = writer.Write(raw)
		return cmd.Fail(err)
	default:
		text, _ := doc.Text()
		_, err = io.WriteString(writer, text)
		return cmd.Fail(err)
	}
}

func (c *CatCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"format": {Name: "format", Short: "f", Type: "string", Description: "Force text or base64 encoding"},
		},
	}
}
