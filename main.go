package main

import (
	"os"

	"k8s.io/cli-runtime/pkg/genericiooptions"

	"github.com/octoploy/octoploy-go/cmd"
)

func main() {
	streams := genericiooptions.IOStreams{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}

	rootCmd := cmd.NewRootCmd(streams)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
