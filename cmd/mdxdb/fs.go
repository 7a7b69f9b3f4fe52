package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mdxdb/mdxdb/pkg/adapters/fs"
	"github.com/mdxdb/mdxdb/pkg/adapters/lifecycle"
	"github.com/mdxdb/mdxdb/pkg/core"
)

var errNotFS = errors.New("command requires the fs backend")

var watchOnly []string

var globCmd = &cobra.Command{
	Use:   "glob <pattern>",
	Short: "List documents whose relative path matches a ** glob",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		backend, ok := db.Backend().(*fs.Backend)
		if !ok {
			return errNotFS
		}
		docs, err := backend.Glob(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, docs)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <collection>",
	Short: "Print changes to a collection until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := parseEventTypes(watchOnly)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		events, err := db.Collection(args[0]).Watch(ctx)
		if err != nil {
			return err
		}

		source := lifecycle.NewSource(events, lifecycle.WithTypes(types...))
		if err := source.Start(ctx); err != nil {
			return err
		}
		cmd.PrintErrf("Watching %s (Ctrl+C to stop)\n", args[0])
		for e := range source.Events() {
			fmt.Fprintln(cmd.OutOrStdout(), e.String())
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	},
}

func parseEventTypes(names []string) ([]core.EventType, error) {
	var out []core.EventType
	for _, n := range names {
		t := core.EventType(strings.ToUpper(n))
		switch t {
		case core.EventCreate, core.EventModify, core.EventDelete:
			out = append(out, t)
		default:
			return nil, fmt.Errorf("unknown event type %q (want create, modify or delete)", n)
		}
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(globCmd, watchCmd)
	watchCmd.Flags().StringSliceVar(&watchOnly, "only", nil, "Event types to print: create, modify, delete")
}
