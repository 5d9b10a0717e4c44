// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"

	"github.com/sgranade/twine-twee-language-sub001/lsp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tliron/commonlog"
)

// LSPCommand creates the "lsp" cobra command with optional embedder
// configuration.  Embedders can pass WithRegistry to replace the builtin
// macros.
func LSPCommand(opts ...Option) *cobra.Command {
	cfg := newConfig(opts)

	var (
		stdio bool
		port  int
	)

	cmd := &cobra.Command{
		Use:           "lsp [flags]",
		SilenceUsage:  true,
		SilenceErrors: true,
		Short:         "Start the Twee Language Server Protocol server",
		Long: `Start an LSP server for Twee 3 stories written for SugarCube 2.

The language server provides diagnostics, semantic highlighting, hover
documentation, go-to-definition for passage links, find references,
completion of macros, passages and variables, document and workspace
symbols, folding and quick fixes.

Macro definitions are read from the configured files and from every
*.twee-config.yaml file in the workspace.  With --watch, the workspace is
watched for changes made outside the editor.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  tweels lsp                           Start with stdio transport
  tweels lsp --stdio                   Same as above (explicit)
  tweels lsp --port 7998               Start with TCP on port 7998`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			var serverOpts []lsp.Option
			serverOpts = append(serverOpts, lsp.WithSettings(lspSettings()))
			if cfg.registry != nil {
				serverOpts = append(serverOpts, lsp.WithRegistry(cfg.registry))
			}

			srv := lsp.New(serverOpts...)

			var err error
			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				commonlog.GetLogger("tweels").Noticef("Twee LSP server listening on %s", addr)
				err = srv.RunTCP(addr)
			} else {
				err = srv.RunStdio()
			}
			if err != nil {
				return &exitError{code: 1, err: fmt.Errorf("lsp server error: %w", err)}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")
	cmd.Flags().Bool(keyWatch, true,
		"Watch the workspace for changes made outside the editor")
	_ = viper.BindPFlag(keyWatch, cmd.Flags().Lookup(keyWatch))

	return cmd
}

func init() {
	rootCmd.AddCommand(LSPCommand())
}
