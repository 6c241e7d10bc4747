// Command admin-module runs the ArtStore admin-module process.
package main

import (
	"fmt"
	"os"

	"github.com/artstore/artstore/cmd/admin-module/commands"
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
