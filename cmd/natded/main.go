// Command natded runs natural-deduction relations: one-off queries, check
// files, an interactive typechecker and an HTTP API.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
