package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdxdb/mdxdb"
)

var (
	findWhere []string
	findSort  []string
	findPage  int
	findLimit int

	docData  string
	docPairs []string
)

func queryOptions() (mdxdb.QueryOptions, error) {
	where, err := parsePairs(findWhere)
	if err != nil {
		return mdxdb.QueryOptions{}, err
	}
	return mdxdb.QueryOptions{
		Where: where,
		Sort:  findSort,
		Page:  findPage,
		Limit: findLimit,
	}, nil
}

var findCmd = &cobra.Command{
	Use:   "find <collection>",
	Short: "Query a collection",
	Long: `Find lists a collection, keeps the documents whose fields equal every
--where pair, sorts them by the --sort keys (prefix "-" for descending)
and returns the requested page.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := queryOptions()
		if err != nil {
			return err
		}

		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := db.Collection(args[0]).Find(cmd.Context(), opts)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <collection> <text>",
	Short: "Full-text search over the string fields of a collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := queryOptions()
		if err != nil {
			return err
		}

		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := db.Collection(args[0]).Search(cmd.Context(), args[1], opts)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var createCmd = &cobra.Command{
	Use:   "create <collection>",
	Short: "Create a document; the id comes from the data or is generated",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readData(cmd.InOrStdin(), docData, docPairs)
		if err != nil {
			return err
		}

		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		created, err := db.Collection(args[0]).Create(cmd.Context(), data)
		if err != nil {
			return err
		}
		return printJSON(cmd, created)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <collection> <id>",
	Short: "Merge fields into an existing document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readData(cmd.InOrStdin(), docData, docPairs)
		if err != nil {
			return err
		}

		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		updated, err := db.Collection(args[0]).Update(cmd.Context(), args[1], data)
		if err != nil {
			return err
		}
		return printJSON(cmd, updated)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <collection> <id>",
	Short: "Mark a document as deleted",
	Long:  `Delete replaces the document with a tombstone and prints what was stored. Use purge to remove it from storage.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		deleted, err := db.Collection(args[0]).Delete(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		return printJSON(cmd, deleted)
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge <collection> <id>",
	Short: "Permanently remove a document from storage",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Collection(args[0]).Purge(cmd.Context(), args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Document purged: %s/%s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(findCmd, searchCmd, createCmd, updateCmd, deleteCmd, purgeCmd)

	for _, c := range []*cobra.Command{findCmd, searchCmd} {
		c.Flags().StringArrayVarP(&findWhere, "where", "w", nil, "Equality filter as key=value (repeatable)")
		c.Flags().StringSliceVarP(&findSort, "sort", "s", nil, "Sort keys, prefix with - for descending")
		c.Flags().IntVar(&findPage, "page", 1, "Page number (1-based)")
		c.Flags().IntVarP(&findLimit, "limit", "l", 0, "Page size (0 uses the default)")
	}
	for _, c := range []*cobra.Command{createCmd, updateCmd} {
		c.Flags().StringVarP(&docData, "data", "d", "", "Document as a JSON object, or - for stdin")
		c.Flags().StringArrayVar(&docPairs, "set", nil, "Field as key=value (repeatable)")
	}
}
