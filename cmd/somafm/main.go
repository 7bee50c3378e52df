// Package main is the entry point for the somafm terminal player.
package main

import (
	"os"

	"github.com/jmylchreest/somafm/cmd/somafm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
