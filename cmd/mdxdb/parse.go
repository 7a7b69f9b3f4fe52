package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdxdb/mdxdb/pkg/mdxld"
)

var (
	parseValidate  bool
	parseStringify bool
	parseAtPrefix  bool
	parseFormat    string
	parseExtract   bool
	parseNested    bool
)

// extraction is what parse --extract prints.
type extraction struct {
	Code       []string       `json:"code"`
	Components []string       `json:"components"`
	Outline    map[string]any `json:"outline"`
}

var parseCmd = &cobra.Command{
	Use:   "parse <file|->",
	Short: "Decode a document and print its metadata, data and content",
	Long: `Parse reads a document with a YAML (---) or TOML (+++) header and prints
it as JSON. With --stringify the document is re-encoded instead, which
normalizes key order and the header format. With --extract the body is
scanned instead: executable code, component tags and a heading outline.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readSource(cmd.InOrStdin(), args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		doc, err := mdxld.Parse(text, mdxld.AllowEmptyHeader())
		if err != nil {
			return err
		}
		if parseValidate {
			if err := mdxld.Validate(doc); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
		}

		if parseExtract {
			var opts []mdxld.TransformOption
			if parseNested {
				opts = append(opts, mdxld.NestedHeaders())
			}
			return printJSON(cmd, extraction{
				Code:       nonNil(mdxld.ExtractCode(doc.Content)),
				Components: nonNil(mdxld.ExtractComponents(doc.Content)),
				Outline:    mdxld.Transform(doc.Content, opts...),
			})
		}
		if !parseStringify {
			return printJSON(cmd, doc)
		}

		format, err := mdxld.ParseFormat(parseFormat)
		if err != nil {
			return err
		}
		opts := []mdxld.StringifyOption{mdxld.WithFormat(format)}
		if parseAtPrefix {
			opts = append(opts, mdxld.UseAtPrefix())
		}
		out, err := mdxld.Stringify(doc, opts...)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().BoolVar(&parseValidate, "validate", false, "Check the reserved properties")
	parseCmd.Flags().BoolVar(&parseStringify, "stringify", false, "Print the re-encoded document instead of JSON")
	parseCmd.Flags().BoolVar(&parseAtPrefix, "at", false, "Write reserved keys with @ instead of $")
	parseCmd.Flags().StringVar(&parseFormat, "format", "yaml", "Header format for --stringify: yaml or toml")
	parseCmd.Flags().BoolVar(&parseExtract, "extract", false, "Print code, components and the heading outline of the body")
	parseCmd.Flags().BoolVar(&parseNested, "nested", false, "With --extract, nest level-2 sections under level-1 ones")
	parseCmd.MarkFlagsMutuallyExclusive("extract", "stringify")
}
