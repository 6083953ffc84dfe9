// Command calqueryctl loads one or more .ics files into a calendar and
// runs a single query-language string against it, printing the
// matching occurrences. It replaces the teacher's bare flag-based
// cmd/webdav-server/main.go with a cobra command tree, the way
// other_examples' agisilaos-acal CLI structures its subcommands.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
