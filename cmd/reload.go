package cmd

import (
	"github.com/spf13/cobra"
)

func newReloadCmd(flags *sharedFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reload <app>",
		Short: "Run an app's onConfigChange actions without a render/reconcile pass.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := newRunner(ctx, flags, false)
			if err != nil {
				return err
			}
			return runner.Reload(ctx, args[0])
		},
	}
}
