package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonehive/fpmatch/pkg/matcher"
)

var flagQueryFile string

var queryCmd = &cobra.Command{
	Use:   "query [code]",
	Short: "Match a query fingerprint against the database",
	Long: `Match a query code against the fingerprint database and print the
classified result as JSON.

The code may be given as an argument or read from a file with --file, in
either the compressed transport form or the textual "hash time ..." form.

Example:
  fpmatch query "$(cat query.code)"
  fpmatch query --file query.code`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&flagQueryFile, "file", "f", "", "read the query code from a file")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	var code string
	switch {
	case flagQueryFile != "":
		data, err := os.ReadFile(flagQueryFile)
		if err != nil {
			return err
		}
		code = strings.TrimSpace(string(data))
	case len(args) == 1:
		code = args[0]
	default:
		return fmt.Errorf("no query code given (argument or --file)")
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	m, err := matcher.New(matcher.Config{
		Index:   e.idx,
		Store:   e.store,
		Elbow:   e.cfg.Matcher.Elbow,
		Slop:    e.cfg.Matcher.Slop,
		MaxRows: e.cfg.Matcher.MaxRows,
	})
	if err != nil {
		return err
	}

	resp, err := m.BestMatch(cmd.Context(), code)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if verbose {
		fmt.Fprintln(os.Stderr, resp.Message())
	}
	return nil
}
