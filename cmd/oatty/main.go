// Command oatty is the CLI surface spec.md §6 requires the core to be
// drivable by. Grounded on stacklok-toolhive's cmd/thv/main.go: a thin
// main() that only calls Execute() and turns the returned error into the
// process exit status.
package main

import (
	"fmt"
	"os"

	"github.com/oattyio/oatty/internal/cli"
)

func main() {
	err := cli.Execute(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "oatty: %v\n", err)
	}
	os.Exit(cli.ExitCodeFor(err))
}
