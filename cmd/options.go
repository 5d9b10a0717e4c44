// Copyright © 2024 The ELPS authors

package cmd

import (
	"github.com/sgranade/twine-twee-language-sub001/analysis"
	"github.com/sgranade/twine-twee-language-sub001/lsp"
	"github.com/sgranade/twine-twee-language-sub001/sugarcube"
	"github.com/spf13/viper"
)

// Option configures commands created by the exported constructors.
type Option func(*cmdConfig)

type cmdConfig struct {
	registry *sugarcube.Registry
}

// WithRegistry replaces the builtin SugarCube macros.  Embedders use it to
// describe a customized story format.
func WithRegistry(reg *sugarcube.Registry) Option {
	return func(c *cmdConfig) { c.registry = reg }
}

func newConfig(opts []Option) *cmdConfig {
	var c cmdConfig
	for _, o := range opts {
		o(&c)
	}
	return &c
}

// baseRegistry returns the injected registry, or the builtin macros.
func (c *cmdConfig) baseRegistry() *sugarcube.Registry {
	if c.registry != nil {
		return c.registry
	}
	return sugarcube.BuiltinMacros()
}

// loadRegistry returns the base registry merged with the configured macro
// definition files and extra, which are loaded in order.
func (c *cmdConfig) loadRegistry(extra ...string) (*sugarcube.Registry, error) {
	paths := append(viper.GetStringSlice(keyDefinitions), extra...)
	defs, err := sugarcube.LoadDefinitionFiles(paths...)
	if err != nil {
		return nil, err
	}
	return c.baseRegistry().Merge(defs), nil
}

// analysisConfig returns the configured analysis settings using reg.
func analysisConfig(reg *sugarcube.Registry) *analysis.Config {
	return &analysis.Config{
		Registry:          reg,
		Format:            viper.GetString(keyFormat),
		FormatVersion:     viper.GetString(keyFormatVersion),
		WarnUnknownMacros: viper.GetBool(keyWarnUnknownMacros),
	}
}

// lspSettings returns the configured language server settings.
func lspSettings() lsp.Settings {
	return lsp.Settings{
		Format:            viper.GetString(keyFormat),
		FormatVersion:     viper.GetString(keyFormatVersion),
		WarnUnknownMacros: viper.GetBool(keyWarnUnknownMacros),
		Definitions:       viper.GetStringSlice(keyDefinitions),
		Watch:             viper.GetBool(keyWatch),
	}
}
