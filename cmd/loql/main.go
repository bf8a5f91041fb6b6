// Package main provides the loql command, a terminal interface for querying
// local and remote data files with SQL.
package main

import (
	"os"

	"github.com/dannyboland/loql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
