// Command gbif queries the GBIF API from the command line and can serve the
// same searches over HTTP.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
