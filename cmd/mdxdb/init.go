package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mdxdb/mdxdb"
	"github.com/mdxdb/mdxdb/internal/config"
)

var initForce bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a project config file in the current directory",
	Long: `Init writes ` + mdxdb.ConfigFileName + ` with the defaults merged with the global
flags. Commands run in this directory or below pick it up automatically.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}

		target := filepath.Join(cwd, mdxdb.ConfigFileName)
		if _, err := os.Stat(target); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", target)
		}

		cfg := config.Merge(config.Default(), flagCfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		text, err := cfg.Dump()
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, []byte(text+"\n"), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Initialized mdxdb project in", cwd)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, loaded, err := loadConfig()
		if err != nil {
			return err
		}
		if loaded != "" {
			cmd.PrintErrln("# from", loaded)
		}
		text, err := cfg.Dump()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd, configCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config file")
}
