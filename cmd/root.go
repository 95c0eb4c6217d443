// Package cmd wires the command line of the bookcatalog binary.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "bookcatalog",
		Short:        "Book catalog web application",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (.json, .jsonc, .yaml)")

	rootCmd.AddCommand(newServeCommand(), newVersionCommand())

	return rootCmd
}

func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
