package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonehive/fpmatch/pkg/ingest"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Reconcile the candidate index with the exact store",
	Long: `Reconcile the two backends after a partial ingestion failure.

Tracks with indexed segments missing their exact codes are removed from
both backends, as are stored codes with no index document.`,
	RunE: runRepair,
}

func init() {
	rootCmd.AddCommand(repairCmd)
}

func runRepair(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	p, err := ingest.New(ingest.Config{Index: e.idx, Store: e.store})
	if err != nil {
		return err
	}
	res, err := p.Repair(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Removed %d index segments, %d store entries\n",
		res.RemovedSegments, res.RemovedKeys)
	return nil
}
