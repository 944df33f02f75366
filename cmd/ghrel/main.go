package main

import (
	"errors"
	"fmt"
	"os"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Per-package failures are already listed on stdout.
		if !errors.Is(err, errPackagesFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
