// Package main is the entry point for the fixplane CLI.
// The CLI is the developer terminal tool for interacting with the fixplane API.
package main

import (
	"os"

	"fixplane/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
