package main

import (
	"fmt"
	"os"

	"github.com/akolanti/notex/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "notex",
		Short:        "Notebook retrieval and generation service",
		SilenceUsage: true,
	}
	root.AddCommand(serveCMD(), ingestCMD(), versionCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "notex", config.Version)
		},
	}
}
