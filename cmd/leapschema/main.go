// Package main provides the leapschema command-line tool.
package main

import (
	"os"

	"github.com/leapstack-labs/leapschema/internal/cli"

	// Register database adapters
	_ "github.com/leapstack-labs/leapschema/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapschema/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapschema/pkg/adapters/sqlite"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
