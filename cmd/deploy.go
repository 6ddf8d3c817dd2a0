package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/octoploy/octoploy-go/internal/deploy"
	"github.com/octoploy/octoploy-go/internal/state"
)

// parseEnvOverrides turns a list of "KEY=VALUE" strings into a template override map,
// matching octoploy's --env CLI semantics (highest precedence in resolution).
func parseEnvOverrides(pairs []string) (map[string]interface{}, error) {
	overrides := map[string]interface{}{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --env value %q, expected KEY=VALUE", pair)
		}
		overrides[key] = value
	}
	return overrides, nil
}

// newRunner loads the project at flags.configDir, connects to the cluster, restores
// state, and builds a deploy.Runner configured for plan.
func newRunner(ctx context.Context, flags *sharedFlags, plan bool) (*deploy.Runner, error) {
	root, err := loadProject(flags)
	if err != nil {
		return nil, err
	}
	api, err := connectCluster(root)
	if err != nil {
		return nil, err
	}
	overrides, err := parseEnvOverrides(flags.env)
	if err != nil {
		return nil, err
	}

	store := state.New(api, root.StateSuffix())
	if err := store.Restore(ctx, root.Namespace()); err != nil {
		return nil, err
	}

	opts := deploy.Options{
		Plan:               plan || flags.dryRun,
		OutFile:            flags.outFile,
		Env:                overrides,
		SkipSecrets:        flags.skipSecrets,
		DeployPlainSecrets: flags.deployPlainSecrets,
	}
	runner := deploy.NewRunner(root, api, store, opts)
	if err := runner.TruncateOutFile(); err != nil {
		return nil, err
	}
	return runner, nil
}

func newDeployCmd(flags *sharedFlags, plan bool) *cobra.Command {
	use, short := "deploy <app>", "Render and reconcile one app."
	if plan {
		use, short = "plan <app>", "Render and reconcile one app in dry-run, logging what would change."
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := newRunner(ctx, flags, plan)
			if err != nil {
				return err
			}
			deployErr := runner.DeployByName(ctx, args[0])
			if plan || flags.dryRun {
				return deployErr
			}
			return errors.Join(deployErr, runner.Close(ctx))
		},
	}
}

func newDeployAllCmd(flags *sharedFlags, plan bool) *cobra.Command {
	use, short := "deploy-all", "Render and reconcile every enabled, non-template app."
	if plan {
		use, short = "plan-all", "Render and reconcile every enabled, non-template app in dry-run."
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			runner, err := newRunner(ctx, flags, plan)
			if err != nil {
				return err
			}
			deployErr := runner.DeployAll(ctx)
			if plan || flags.dryRun {
				return deployErr
			}
			return errors.Join(deployErr, runner.Close(ctx))
		},
	}
}
