package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonehive/fpmatch/pkg/ingest"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <track-id>...",
	Short: "Delete tracks from the database",
	Long: `Delete tracks by id: every indexed segment and every stored code of
each track is removed.

Example:
  fpmatch delete TRABCDE12F TRXYZQW34A`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	p, err := ingest.New(ingest.Config{Index: e.idx, Store: e.store})
	if err != nil {
		return err
	}
	if err := p.Delete(cmd.Context(), args, true); err != nil {
		return err
	}

	fmt.Printf("Deleted %d tracks\n", len(args))
	return nil
}
