// Command ledger records component versions, test setups and test results
// in a shared, revisioned ledger document.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/ledger/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
