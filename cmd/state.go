package cmd

import (
	"github.com/spf13/cobra"

	"github.com/aquasecurity/table"

	"github.com/octoploy/octoploy-go/internal/state"
	"github.com/octoploy/octoploy-go/internal/statemove"
)

func newStateCmd(flags *sharedFlags) *cobra.Command {
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or edit the project's state ConfigMap.",
	}
	stateCmd.AddCommand(newStateListCmd(flags))
	stateCmd.AddCommand(newStateMoveCmd(flags))
	return stateCmd
}

func newStateListCmd(flags *sharedFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print a tabular dump of the project's tracked objects.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			root, err := loadProject(flags)
			if err != nil {
				return err
			}
			api, err := connectCluster(root)
			if err != nil {
				return err
			}
			store := state.New(api, root.StateSuffix())
			if err := store.Restore(ctx, root.Namespace()); err != nil {
				return err
			}

			t := table.New(cmd.OutOrStdout())
			t.SetHeaders("APP", "NAMESPACE", "OBJECT", "HASH")
			for _, rec := range store.All() {
				t.AddRow(rec.Context, rec.Namespace, rec.FQN, rec.Hash)
			}
			t.Render()
			return nil
		},
	}
}

func newStateMoveCmd(flags *sharedFlags) *cobra.Command {
	var toConfigMap string
	cmd := &cobra.Command{
		Use:   "mv <src> <dst>",
		Short: "Rename or relocate tracked state entries, optionally into a different ConfigMap.",
		Args:  cobra.ExactArgs(2),
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

			source := state.New(api, root.StateSuffix())
			if err := source.Restore(ctx, root.Namespace()); err != nil {
				return err
			}

			target := source
			targetNamespace := root.Namespace()
			if toConfigMap != "" {
				target, targetNamespace, err = statemove.TargetForConfigMap(ctx, api, root.Namespace(), toConfigMap)
				if err != nil {
					return err
				}
			}

			moved, err := statemove.Move(source, target, args[0], args[1])
			if err != nil {
				return err
			}
			cmd.Printf("moved %d record(s)\n", moved)

			if err := source.Store(ctx, root.Namespace()); err != nil {
				return err
			}
			if target != source {
				return target.Store(ctx, targetNamespace)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&toConfigMap, "to", "", "[namespace/]configmapSuffix of a different state ConfigMap to move into.")
	return cmd
}
