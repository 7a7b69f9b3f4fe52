package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdxdb/mdxdb"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mdxdb",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mdxdb version %s\n", mdxdb.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
