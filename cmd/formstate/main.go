// Command formstate validates form definitions, runs scenario tests and
// drives forms interactively.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/formstate/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
