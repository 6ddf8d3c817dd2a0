package cmd

import (
	"github.com/spf13/cobra"

	"github.com/octoploy/octoploy-go/internal/backup"
)

func newBackupCmd(flags *sharedFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "backup <dir>",
		Short: "Back up every object octoploy tracks, one yml file per namespace/object.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			root, err := loadProject(flags)
			if err != nil {
				return err
			}
			api, err := connectCluster(root)
			if err != nil {
				return err
			}
			return backup.New(api).CreateBackup(ctx, args[0], root.StateSuffix())
		},
	}
}
