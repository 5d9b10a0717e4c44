// Copyright © 2018 The ELPS authors

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tliron/commonlog"

	// Log to stderr.
	_ "github.com/tliron/commonlog/simple"
)

// Configuration keys, also accepted as TWEELS_* environment variables.
const (
	keyFormat            = "format"
	keyFormatVersion     = "format-version"
	keyDefinitions       = "macro-definitions"
	keyWarnUnknownMacros = "warn-unknown-macros"
	keyColor             = "color"
	keyWatch             = "watch"
)

var (
	cfgFile   string
	verbosity int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tweels",
	Short: "tweels: Twee 3 and SugarCube 2 language tools",
	Long: `tweels analyzes Twine stories written in Twee 3 for the SugarCube 2 story
format.  It checks macro usage, links and variables, and provides a Language
Server Protocol server for editors.

Getting started:
  tweels check story/            Check every Twee file below story/
  tweels check --json a.tw       Report problems as JSON
  tweels macros                  List the known macros
  tweels macros link             Describe the <<link>> macro
  tweels lsp                     Run the language server over stdio

Configuration:
  Settings are read from $HOME/.tweels.yaml (or --config) and from TWEELS_*
  environment variables, such as TWEELS_FORMAT_VERSION=2.36.1.

  format               Story format when StoryData names none (SugarCube)
  format-version       Story format version used to gate macros
  macro-definitions    Extra *.twee-config.yaml macro definition files
  warn-unknown-macros  Warn about macros which are not defined
  color                "auto", "always" or "never"`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// usageError is a bad invocation, reported with exit status 2.
func usageError(err error) error {
	return &exitError{code: 2, err: err}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	os.Exit(run(rootCmd))
}

// run executes cmd and returns the process exit status.
func run(cmd *cobra.Command) int {
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		if exit.err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "tweels:", exit.err)
		}
		return exit.code
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "tweels:", err)
	return 2
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tweels.yaml)")
	flags.CountVarP(&verbosity, "verbose", "v", "Log more; repeat for more detail.")
	flags.String(keyColor, "auto", `Control colored output: "auto", "always", or "never".`)
	flags.String(keyFormat, "", "Story format used when StoryData names none.")
	flags.String(keyFormatVersion, "", "Story format version, such as 2.36.1.")
	flags.StringSlice(keyDefinitions, nil, "Macro definition files (*.twee-config.yaml).")
	flags.Bool(keyWarnUnknownMacros, false, "Warn about macros which are not defined.")
	for _, key := range []string{keyColor, keyFormat, keyFormatVersion, keyDefinitions, keyWarnUnknownMacros} {
		_ = viper.BindPFlag(key, flags.Lookup(key))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		// Search config in home directory with name ".tweels" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".tweels")
	}

	viper.SetEnvPrefix("tweels")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	commonlog.Configure(verbosity, nil)
	log := commonlog.GetLogger("tweels")

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Infof("using config file %s", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		log.Errorf("reading config file: %v", err)
	}
}
