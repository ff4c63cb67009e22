package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonehive/fpmatch/pkg/ingest"
)

var flagReallyDelete bool

var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase the entire database",
	Long: `Erase every track from both the candidate index and the exact store.

Refuses to run without --really-delete.`,
	RunE: runErase,
}

func init() {
	eraseCmd.Flags().BoolVar(&flagReallyDelete, "really-delete", false, "confirm destroying all data")
	rootCmd.AddCommand(eraseCmd)
}

func runErase(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	p, err := ingest.New(ingest.Config{Index: e.idx, Store: e.store})
	if err != nil {
		return err
	}
	if err := p.Erase(cmd.Context(), flagReallyDelete); err != nil {
		return err
	}

	fmt.Println("Database erased")
	return nil
}
