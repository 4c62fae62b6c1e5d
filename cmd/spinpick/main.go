// Command spinpick picks a movie with a spinning wheel.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/spinpick/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "spinpick: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
