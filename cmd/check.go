// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sgranade/twine-twee-language-sub001/analysis"
	"github.com/sgranade/twine-twee-language-sub001/diagnostic"
	"github.com/sgranade/twine-twee-language-sub001/sugarcube"
	"github.com/spf13/cobra"
)

// stdinName is the path reported for a story read from stdin.
const stdinName = "<stdin>"

// CheckCommand creates the "check" cobra command.
func CheckCommand(opts ...Option) *cobra.Command {
	cfg := newConfig(opts)

	var (
		asJSON   bool
		excludes []string
	)

	cmd := &cobra.Command{
		Use:           "check [flags] [files or directories...]",
		SilenceUsage:  true,
		SilenceErrors: true,
		Short:         "Check Twee stories for SugarCube mistakes",
		Long: `Check Twee 3 stories for mistakes in SugarCube 2 markup.

Each file is split into passages and the macros, links and variables in
every passage are checked: unclosed or unopened container macros, macros
used outside their required parents, malformed macro arguments, macros
which are deprecated or not yet available in the configured story format
version, and more.

Directories are searched recursively for .tw and .twee files, skipping
hidden directories and node_modules.  Macro definition files
(*.twee-config.yaml) found in the directories are loaded, as are widgets
defined in any checked file.  With no arguments the story is read from
stdin.

Exit codes:
  0  No problems found
  1  One or more errors or warnings were reported
  2  Bad invocation (invalid flags, unreadable files, bad definitions)

Examples:
  tweels check story.twee                      # Check a single file
  tweels check src/                            # Check every file below src
  tweels check --json src/                     # Output diagnostics as JSON
  tweels check --exclude='vendor' ./...        # Exclude a directory
  tweels check --format-version=2.30.0 src/    # Gate macros by version
  cat story.twee | tweels check                # Check from stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := cfg.loadRegistry(definitionFiles(args)...)
			if err != nil {
				return usageError(err)
			}

			var sources []source
			if len(args) == 0 {
				src, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return usageError(fmt.Errorf("reading stdin: %w", err))
				}
				sources = append(sources, source{path: stdinName, text: string(src)})
			} else {
				paths, err := expandArgs(args, excludes)
				if err != nil {
					return usageError(err)
				}
				for _, path := range paths {
					src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
					if err != nil {
						return usageError(err)
					}
					sources = append(sources, source{path: path, text: string(src)})
				}
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			reports, err := checkSources(ctx, sources, reg)
			if err != nil {
				return usageError(err)
			}

			if asJSON {
				if err := formatJSON(cmd.OutOrStdout(), reports); err != nil {
					return usageError(err)
				}
			} else if err := renderDiagnostics(cmd.ErrOrStderr(), reports); err != nil {
				return usageError(err)
			}

			counts := countSeverities(reports)
			problems := counts[diagnostic.SeverityError] + counts[diagnostic.SeverityWarning]
			if problems == 0 {
				return nil
			}
			if !asJSON {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n%d error(s), %d warning(s) in %d file(s)\n",
					counts[diagnostic.SeverityError], counts[diagnostic.SeverityWarning], len(sources))
			}
			return &exitError{code: 1}
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false,
		"Output diagnostics as JSON.")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")

	return cmd
}

type source struct {
	path string
	text string
}

// checkSources analyzes every source.  Widgets defined in any source are
// known in all of them.
func checkSources(ctx context.Context, sources []source, reg *sugarcube.Registry) ([]fileReport, error) {
	results, err := analyzeSources(ctx, sources, reg)
	if err != nil {
		return nil, err
	}
	var widgets []*sugarcube.MacroInfo
	for _, res := range results {
		widgets = append(widgets, res.Widgets...)
	}
	if len(widgets) > 0 {
		results, err = analyzeSources(ctx, sources, reg.Merge(sugarcube.NewRegistry(widgets...)))
		if err != nil {
			return nil, err
		}
	}
	reports := make([]fileReport, len(results))
	for i, res := range results {
		reports[i] = fileReport{Path: sources[i].path, Text: res.Text, Diagnostics: res.Diagnostics}
	}
	return reports, nil
}

func analyzeSources(ctx context.Context, sources []source, reg *sugarcube.Registry) ([]*analysis.Result, error) {
	cfg := analysisConfig(reg)
	results := make([]*analysis.Result, len(sources))
	for i, src := range sources {
		res, err := analysis.Analyze(ctx, analysis.PathURI(src.path), src.text, cfg)
		if err != nil {
			return nil, err
		}
		results[i] = res
	}
	return results, nil
}

func countSeverities(reports []fileReport) map[diagnostic.Severity]int {
	counts := make(map[diagnostic.Severity]int)
	for _, rep := range reports {
		for sev, n := range diagnostic.Count(diagnostic.FromEvents(rep.Path, rep.Text, rep.Diagnostics)) {
			counts[sev] += n
		}
	}
	return counts
}

func init() {
	rootCmd.AddCommand(CheckCommand())
}
