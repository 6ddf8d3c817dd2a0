package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericiooptions"

	"github.com/octoploy/octoploy-go/internal/crypto"
	"github.com/octoploy/octoploy-go/internal/encrypt"
)

func newEncryptCmd(streams genericiooptions.IOStreams) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <file>",
		Short: "Encrypt every secret value in a yml file in place.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := encrypt.File(crypto.NewEncryptor(), args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(streams.Out, "encrypted secrets in %s\n", args[0])
			return err
		},
	}
}
