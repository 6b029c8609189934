// Command pantry manages shopping lists, sections, purchases and search
// history stored in a local SQLite database.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/pantry/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
