// Command entangle splits declared types into a mailbox handle and an actor.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/entangle/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "entangle:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
