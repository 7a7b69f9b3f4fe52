package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdxdb/mdxdb/pkg/core"
)

var (
	setData  string
	setPairs []string
	lsJSON   bool
)

var getCmd = &cobra.Command{
	Use:   "get <path> <id>",
	Short: "Read a document by path",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		data, err := db.At(args[0]).Get(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		if data == nil {
			return &core.NotFoundError{Collection: args[0], ID: args[1]}
		}
		return printJSON(cmd, data)
	},
}

var setCmd = &cobra.Command{
	Use:   "set <path> <id>",
	Short: "Write a document by path, replacing it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readData(cmd.InOrStdin(), setData, setPairs)
		if err != nil {
			return err
		}

		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		written, err := db.At(args[0]).Set(cmd.Context(), args[1], data)
		if err != nil {
			return err
		}
		return printJSON(cmd, written)
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List the documents stored under a path",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		docs, err := db.At(args...).List(cmd.Context())
		if err != nil {
			return err
		}

		if lsJSON {
			return printJSON(cmd, docs)
		}
		for _, doc := range docs {
			line := doc.ID()
			if title, ok := doc["title"].(string); ok {
				line += " - " + title
			}
			if doc.Deleted() {
				line += " (deleted)"
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd, setCmd, lsCmd)
	setCmd.Flags().StringVarP(&setData, "data", "d", "", "Document as a JSON object, or - for stdin")
	setCmd.Flags().StringArrayVar(&setPairs, "set", nil, "Field as key=value (repeatable)")
	lsCmd.Flags().BoolVar(&lsJSON, "json", false, "Output in JSON format")
}
