// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/sgranade/twine-twee-language-sub001/sugarcube"
	"github.com/spf13/cobra"
)

const (
	macroNameWidth = 16
	summaryWidth   = 60
	docWidth       = 72
)

// MacrosCommand creates the "macros" cobra command.
func MacrosCommand(opts ...Option) *cobra.Command {
	cfg := newConfig(opts)

	cmd := &cobra.Command{
		Use:           "macros [flags] [NAME]",
		SilenceUsage:  true,
		SilenceErrors: true,
		Short:         "List or describe the known SugarCube macros",
		Long: `List the SugarCube macros known to tweels, or describe one of them.

The builtin SugarCube 2 macros are merged with the macros of the configured
macro definition files.

Examples:
  tweels macros                                     # List all macros
  tweels macros link                                # Describe <<link>>
  tweels macros --macro-definitions=my.twee-config.yaml mywidget`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := cfg.loadRegistry()
			if err != nil {
				return usageError(err)
			}
			if len(args) == 0 {
				return listMacros(cmd.OutOrStdout(), reg)
			}
			info := reg.Get(args[0])
			if info == nil {
				msg := fmt.Sprintf("unknown macro <<%s>>", args[0])
				if s := sugarcube.Suggest(args[0], reg); s != "" {
					msg += fmt.Sprintf("; did you mean <<%s>>?", s)
				}
				return &exitError{code: 1, err: fmt.Errorf("%s", msg)}
			}
			_, err = io.WriteString(cmd.OutOrStdout(), describeMacro(info))
			return err
		},
	}
	return cmd
}

// listMacros writes one line per macro with the first sentence of its
// description.
func listMacros(w io.Writer, reg *sugarcube.Registry) error {
	for _, name := range reg.Names() {
		info := reg.Get(name)
		line := padding.String(name, macroNameWidth) + " " +
			truncate.StringWithTail(summary(info.Description), summaryWidth, "…")
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// summary returns the first sentence of a description.
func summary(desc string) string {
	desc = strings.Join(strings.Fields(desc), " ")
	if i := strings.Index(desc, ". "); i >= 0 {
		return desc[:i+1]
	}
	return desc
}

// describeMacro formats the full description of a macro.
func describeMacro(info *sugarcube.MacroInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<<%s>>", info.Name)
	if info.Container {
		fmt.Fprintf(&b, " ... <</%s>>", info.Name)
	}
	b.WriteString("\n")

	if info.Arguments != nil && info.Arguments.Schema != nil {
		b.WriteString("\nUsage:\n")
		for _, v := range info.Arguments.Schema.Variants {
			fmt.Fprintf(&b, "  <<%s %s>>\n", info.Name, v.Text)
		}
	} else if info.Arguments != nil && !info.Arguments.Expected {
		b.WriteString("\nTakes no arguments.\n")
	}

	if len(info.Parents) > 0 {
		b.WriteString("\nMust be inside:\n")
		for _, p := range info.Parents {
			if p.Max > 0 {
				fmt.Fprintf(&b, "  <<%s>> (at most %d)\n", p.Name, p.Max)
			} else {
				fmt.Fprintf(&b, "  <<%s>>\n", p.Name)
			}
		}
	}

	var versions []string
	for _, v := range []struct{ label, version string }{
		{"since", info.Since},
		{"deprecated in", info.Deprecated},
		{"removed in", info.Removed},
	} {
		if v.version != "" {
			versions = append(versions, v.label+" "+v.version)
		}
	}
	if len(versions) > 0 {
		fmt.Fprintf(&b, "\nSugarCube: %s\n", strings.Join(versions, ", "))
	}

	if info.Description != "" {
		b.WriteString("\n")
		b.WriteString(indent.String(wordwrap.String(info.Description, docWidth), 2))
		b.WriteString("\n")
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(MacrosCommand())
}
