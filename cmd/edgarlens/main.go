// Command-line interface entry point for EdgarLens.
package main

import (
	"fmt"
	"os"

	"github.com/edgarlens/edgarlens/internal/interfaces/cli"
)

// Build metadata, injected via -ldflags.
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.Version = version
	cli.GitCommit = gitCommit
	cli.BuildDate = buildDate

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
