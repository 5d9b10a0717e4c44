// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sgranade/twine-twee-language-sub001/analysis"
	"github.com/sgranade/twine-twee-language-sub001/sugarcube"
)

// expandArgs expands arguments into the Twee files to check.  Directories,
// and patterns ending with "/...", expand to every Twee file found
// recursively below them.  Files matching an exclude pattern are dropped.
func expandArgs(args []string, excludes []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		dir, recursive := strings.CutSuffix(arg, "/...")
		if recursive && dir == "" {
			dir = "."
		}
		if !recursive {
			info, err := os.Stat(arg)
			if err != nil {
				return nil, err
			}
			if !info.IsDir() {
				out = append(out, arg)
				continue
			}
			dir = arg
		}
		files, err := analysis.FindTweeFiles(dir)
		if err != nil {
			return nil, fmt.Errorf("expanding %s: %w", arg, err)
		}
		out = append(out, files...)
	}
	return filterExcludes(out, excludes), nil
}

// definitionFiles returns the macro definition files below the directories
// among args.
func definitionFiles(args []string) []string {
	var out []string
	for _, arg := range args {
		dir, recursive := strings.CutSuffix(arg, "/...")
		if recursive && dir == "" {
			dir = "."
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		files, err := analysis.FindFiles(dir, func(path string) bool {
			return strings.HasSuffix(path, sugarcube.DefinitionsSuffix)
		})
		if err == nil {
			out = append(out, files...)
		}
	}
	return out
}

// filterExcludes drops the paths matching one of the glob patterns.
func filterExcludes(paths []string, patterns []string) []string {
	if len(patterns) == 0 {
		return paths
	}
	var out []string
	for _, path := range paths {
		if !matchesAny(path, patterns) {
			out = append(out, path)
		}
	}
	return out
}

// matchesAny reports whether the whole path, or one of its components,
// matches a pattern.
func matchesAny(path string, patterns []string) bool {
	path = filepath.ToSlash(filepath.Clean(path))
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		for _, part := range strings.Split(path, "/") {
			if ok, _ := filepath.Match(pattern, part); ok {
				return true
			}
		}
	}
	return false
}
