// Command storage-element runs a single ArtStore storage-element process.
package main

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/storage-element/commands"
)

// Build-time version information, set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
