// Copyright © 2024 The ELPS authors

// Package docs embeds the tweels user guide for use by the CLI.
package docs

import _ "embed"

// Guide describes Twee 3 stories, the SugarCube markup tweels understands
// and how to configure it.
//
//go:embed guide.md
var Guide string
