package builtin

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mwantia/contentfs/cmd"
)

// CheckpointCommand manages the checkpoints of a single document.
type CheckpointCommand struct {
}

func (c *CheckpointCommand) Name() string {
	return "checkpoint"
}

func (c *CheckpointCommand) Description() string {
	return "Create, list, restore or delete checkpoints of a document"
}

func (c *CheckpointCommand) Usage() string {
	return "checkpoint create|list <path> | checkpoint restore|delete <path> <id>"
}

func (c *CheckpointCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Require(2, 3); err != nil {
		return cmd.ExitUsage, err
	}

	action, path := args.Args[0], args.Args[1]
	switch action {
	case "create":
		checkpoint, err := api.CreateCheckpoint(ctx, path)
		if err != nil {
			return cmd.Fail(err)
		}
		fmt.Fprintln(writer, checkpoint.ID)

	case "list":
		checkpoints, err := api.ListCheckpoints(ctx, path)
		if err != nil {
			return cmd.Fail(err)
		}
		tw := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
		for _, checkpoint := range checkpoints {
			fmt.Fprintf(tw, "%s\t%s\n", checkpoint.ID, timestamp(checkpoint.LastModified))
		}
		return cmd.ExitOK, tw.Flush()

	case "restore", "delete":
		if len(args.Args) != 3 {
			return cmd.ExitUsage, fmt.Errorf("%w: %s requires a checkpoint id", cmd.ErrUsage, action)
		}
		id := args.Args[2]

		var err error
		if action == "restore" {
			_, err = api.RestoreCheckpoint(ctx, path, id)
		} else {
			err = api.DeleteCheckpoint(ctx, path, id)
		}
		if err != nil {
			return cmd.Fail(err)
		}
		fmt.Fprintf(writer, "%sd %s\n", action, id)

	default:
		return cmd.ExitUsage, fmt.Errorf("%w: unknown action '%s'", cmd.ErrUsage, action)
	}

	return cmd.ExitOK, nil
}

func (c *CheckpointCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}
