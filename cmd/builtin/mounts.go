package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mwantia/contentfs/cmd"
	"github.com/mwantia/contentfs/mount"
)

type MountsCommand struct {
}

func (m *MountsCommand) Name() string {
	return "mounts"
}

func (m *MountsCommand) Description() string {
	return "Show the attached storage resources"
}

func (m *MountsCommand) Usage() string {
	return "mounts [--json]"
}

func (m *MountsCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Require(0, 0); err != nil {
		return cmd.ExitUsage, err
	}

	infos := api.Mounts()
	if args.Bool("json") {
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		return cmd.Fail(encoder.Encode(infos))
	}

	tw := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PREFIX\tBACKEND\tADDRESS\tMODE")
	for _, info := range infos {
		mode := "rw"
		if info.ReadOnly {
			mode = "ro"
		}
		fmt.Fprintf(tw, "/%s\t%s\t%s\t%s\n", info.Path, info.Backend, info.Address, mode)
	}
	return cmd.ExitOK, tw.Flush()
}

func (m *MountsCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"json": {Name: "json", Type: "bool", Description: "Print as json"},
		},
	}
}

type MountCommand struct {
}

func (m *MountCommand) Name() string {
	return "mount"
}

func (m *MountCommand) Description() string {
	return "Attach a storage resource by connection URI"
}

func (m *MountCommand) Usage() string {
	return "mount [-r] [--retries n] <prefix> <address>"
}

func (m *MountCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Require(2, 2); err != nil {
		return cmd.ExitUsage, err
	}

	var opts []mount.MountOption
	if args.Bool("readonly") {
		opts = append(opts, mount.AsReadOnly())
	}
	if retries := args.Int("retries"); retries > 0 {
		opts = append(opts, mount.WithRetries(uint64(retries)))
	}

	mnt, err := api.Mount(ctx, args.Args[0], args.Args[1], opts...)
	if err != nil {
		return cmd.Fail(err)
	}

	fmt.Fprintf(writer, "mounted %s at /%s\n", mnt.Address(), mnt.Path)
	return cmd.ExitOK, nil
}

func (m *MountCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"readonly": {Name: "readonly", Short: "r", Type: "bool", Description: "Reject every mutation"},
			"retries":  {Name: "retries", Type: "int", Description: "Retry transient read failures"},
		},
	}
}

type UnmountCommand struct {
}

func (u *UnmountCommand) Name() string {
	return "unmount"
}

func (u *UnmountCommand) Description() string {
	return "Detach a storage resource"
}

func (u *UnmountCommand) Usage() string {
	return "unmount [-f] <prefix>"
}

func (u *UnmountCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Require(1, 1); err != nil {
		return cmd.ExitUsage, err
	}

	if err := api.Unmount(ctx, args.Args[0], args.Bool("force")); err != nil {
		return cmd.Fail(err)
	}

	fmt.Fprintf(writer, "unmounted %s\n", args.Args[0])
	return cmd.ExitOK, nil
}

func (u *UnmountCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"force": {Name: "force", Short: "f", Type: "bool", Description: "Also detach nested mounts"},
		},
	}
}
