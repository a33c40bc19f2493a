// Package main is the entry point for the mdb CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/mdb/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
