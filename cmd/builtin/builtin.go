package builtin

import (
	"time"

	"github.com/mwantia/contentfs/cmd"
)

// Commands returns a new instance of every builtin command.
func Commands() []cmd.Command {
	return []cmd.Command{
		&LsCommand{},
		&CatCommand{},
		&PutCommand{},
		&MkdirCommand{},
		&RmCommand{},
		&MvCommand{},
		&CpCommand{},
		&NewCommand{},
		&CheckpointCommand{},
		&MountsCommand{},
		&MountCommand{},
		&UnmountCommand{},
	}
}

// InitBuiltin registers every builtin command with cm.
func InitBuiltin(cm *cmd.CommandManager) error {
	for _, c := range Commands() {
		if err := cm.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
