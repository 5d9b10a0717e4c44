// Copyright © 2024 The ELPS authors

// Command tweels checks Twee 3 stories written for SugarCube 2 and serves
// them to editors over the Language Server Protocol.
package main

import "github.com/sgranade/twine-twee-language-sub001/cmd"

func main() {
	cmd.Execute()
}
