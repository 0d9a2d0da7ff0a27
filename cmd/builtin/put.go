package builtin

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/mwantia/contentfs/cmd"
	"github.com/mwantia/contentfs/data"
)

type PutCommand struct {
}

func (p *PutCommand) Name() string {
	return "put"
}

func (p *PutCommand) Description() string {
	return "Save a local file or inline text as a document"
}

func (p *PutCommand) Usage() string {
	return "put [--text content] <path> [local-file]"
}

func (p *PutCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Require(1, 2); err != nil {
		return cmd.ExitUsage, err
	}

	_, inline := args.Flags["text"]
	if inline == (len(args.Args) == 2) {
		return cmd.ExitUsage, fmt.Errorf("%w: either --text or a local file is required", cmd.ErrUsage)
	}

	target := args.Args[0]
	var doc *data.Document
	if inline {
		doc = data.NewTextDocument(args.String("text"))
	} else {
		raw, err := os.ReadFile(args.Args[1])
		if err != nil {
			return cmd.ExitFailure, err
		}
		if doc, err = documentFor(target, raw); err != nil {
			return cmd.Fail(err)
		}
	}

	saved, err := api.Save(ctx, doc, target)
	if err != nil {
		return cmd.Fail(err)
	}

	fmt.Fprintf(writer, "saved %s (%s, %d bytes)\n", saved.Path, saved.Type, saved.Size)
	return cmd.ExitOK, nil
}

func (p *PutCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"text": {Name: "text", Short: "t", Type: "string", Description: "Save this text instead of a local file"},
		},
	}
}

// documentFor picks the document model matching raw local content.
func documentFor(target string, raw []byte) (*data.Document, error) {
	if data.IsNotebookPath(target) {
		nb, err := data.ParseNotebook(raw)
		if err != nil {
			return nil, err
		}
		return data.NewNotebookDocument(nb), nil
	}
	if utf8.Valid(raw) {
		return data.NewTextDocument(string(raw)), nil
	}
	return data.NewBase64Document(base64.StdEncoding.EncodeToString(raw)), nil
}
