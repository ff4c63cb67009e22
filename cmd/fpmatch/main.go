// Package main is the entry point for the fpmatch CLI.
//
// Usage:
//
//	fpmatch [flags] <command> [args]
//
// Commands:
//
//	ingest  - Ingest echoprint fingerprint documents
//	query   - Match a query fingerprint against the database
//	delete  - Delete tracks
//	erase   - Erase the entire database
//	repair  - Reconcile the candidate index with the exact store
//	version - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/tonehive/fpmatch/cmd/fpmatch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
