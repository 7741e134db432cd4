package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "boards",
	Short: "Board, column and task workspaces over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(newServeCmd(), newInitStorageCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
