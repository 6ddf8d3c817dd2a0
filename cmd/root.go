// Package cmd wires the octoploy cobra command tree: deploy/plan (single app and
// project-wide), reload, encrypt, backup, and state list/mv.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/cli-runtime/pkg/genericiooptions"

	"github.com/octoploy/octoploy-go/internal/cluster"
	"github.com/octoploy/octoploy-go/internal/config"
	"github.com/octoploy/octoploy-go/internal/log"
)

// sharedFlags holds the persistent flags bound once on the root command and read by
// every subcommand's RunE.
type sharedFlags struct {
	configDir          string
	dryRun             bool
	outFile            string
	env                []string
	skipSecrets        bool
	deployPlainSecrets bool
	debug              bool
}

// NewRootCmd builds the root cobra.Command for octoploy.
func NewRootCmd(streams genericiooptions.IOStreams) *cobra.Command {
	flags := &sharedFlags{}

	rootCmd := &cobra.Command{
		Use:           "octoploy",
		Short:         "Render and reconcile Kubernetes/OpenShift manifests from templated project configs.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return fmt.Errorf("no subcommand given, see --help")
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	persistent := pflag.NewFlagSet("octoploy", pflag.ContinueOnError)
	persistent.StringVarP(&flags.configDir, "config-dir", "c", ".", "Path to the folder containing all configurations.")
	persistent.BoolVar(&flags.dryRun, "dry-run", false, "Render and reconcile in plan mode: nothing is written to the cluster.")
	persistent.StringVar(&flags.outFile, "out-file", "", "If set, every rendered object is appended here across the whole run.")
	persistent.StringArrayVar(&flags.env, "env", nil, "KEY=VALUE override, highest precedence in template resolution. Repeatable.")
	persistent.BoolVar(&flags.skipSecrets, "skip-secrets", false, "Drop every Secret object from the bundle entirely.")
	persistent.BoolVar(&flags.deployPlainSecrets, "deploy-plain-secrets", false, "Allow un-encrypted values in Secret data/stringData.")
	persistent.BoolVar(&flags.debug, "debug", false, "Enable verbose logging.")
	rootCmd.PersistentFlags().AddFlagSet(persistent)

	rootCmd.AddCommand(
		newDeployCmd(flags, false),
		newDeployAllCmd(flags, false),
		newDeployCmd(flags, true),
		newDeployAllCmd(flags, true),
		newReloadCmd(flags),
		newEncryptCmd(streams),
		newBackupCmd(flags),
		newStateCmd(flags),
	)
	return rootCmd
}

// loadProject loads the project rooted at flags.configDir, enabling debug logging first
// if requested.
func loadProject(flags *sharedFlags) (*config.RootConfig, error) {
	if flags.debug {
		log.SetDebug()
	}
	return config.LoadRoot(flags.configDir)
}

// connectCluster switches to the project's configured context (if any) and returns a
// live cluster.API.
func connectCluster(root *config.RootConfig) (cluster.API, error) {
	return cluster.NewDynamic(root.Context())
}
