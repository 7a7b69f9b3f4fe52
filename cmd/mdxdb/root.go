package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mdxdb/mdxdb"
	"github.com/mdxdb/mdxdb/internal/config"
)

var (
	verbose    bool
	configPath string
	flagCfg    config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mdxdb",
	Short: "A document store for Markdown files with structured headers",
	Long: `mdxdb treats a directory of Markdown/MDX documents, or a headless store,
as a set of queryable collections.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: nearest "+mdxdb.ConfigFileName+")")
	rootCmd.PersistentFlags().StringVarP(&flagCfg.Backend, "backend", "b", "", "Storage backend: fs (or filesystem), sqlite or redis")
	rootCmd.PersistentFlags().StringVar(&flagCfg.BasePath, "base", "", "Base directory of the fs backend")
	rootCmd.PersistentFlags().StringVar(&flagCfg.Extension, "ext", "", "Document file extension of the fs backend")
	rootCmd.PersistentFlags().StringVar(&flagCfg.SQLitePath, "sqlite", "", "Database file of the sqlite backend")
	rootCmd.PersistentFlags().StringVar(&flagCfg.Redis.Addr, "redis", "", "Server address of the redis backend")
}

// loadConfig resolves the effective configuration for the working directory.
func loadConfig() (config.Config, string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, "", fmt.Errorf("getting working directory: %w", err)
	}
	return config.Load(wd, configPath, flagCfg)
}

// openDB opens the database described by the config file and global flags.
func openDB(ctx context.Context) (*mdxdb.DB, error) {
	cfg, loaded, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if loaded != "" {
		slog.Debug("config loaded", "file", loaded)
	}

	opts := append(cfg.Options(), mdxdb.WithLogger(slog.Default()))
	db, err := mdxdb.Open(ctx, cfg.URI(), opts...)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// resetFlags restores every flag of cmd and its children to its default.
// Command values are package globals, so repeated executions in one process
// need this.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
