// Package main is the entry point for the efscan CLI.
//
// Build information lives in the cli package and is injected via
// -ldflags "-X github.com/leapstack-labs/efscan/internal/cli.Version=...".
package main

import (
	"os"

	"github.com/leapstack-labs/efscan/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
