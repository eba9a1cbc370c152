// Command freightdash is the KPI dashboard for the freight-forwarding ERP.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rshade/freightdash/internal/cli"
	"github.com/rshade/freightdash/pkg/version"
)

func main() {
	os.Exit(run())
}

// run executes the root command and returns the process exit code.
func run() int {
	root := cli.NewRootCmd(version.GetVersion())
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return exitCode(err)
}

// exitCode maps an error to a process exit code. ExitError carries its own
// code; any other error is 1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
