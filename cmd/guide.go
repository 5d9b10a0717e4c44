// Copyright © 2024 The ELPS authors

package cmd

import (
	"io"

	"github.com/sgranade/twine-twee-language-sub001/docs"
	"github.com/spf13/cobra"
)

// GuideCommand creates the "guide" cobra command.
func GuideCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "guide",
		SilenceUsage:  true,
		SilenceErrors: true,
		Short:         "Show the tweels user guide",
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), docs.Guide)
			return err
		},
	}
}

func init() {
	rootCmd.AddCommand(GuideCommand())
}
