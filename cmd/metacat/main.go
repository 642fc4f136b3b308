// Command metacat compiles and runs metadata catalog DSL searches.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/metacat/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
