package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/me/modelrun/pkg/model"
	"github.com/spf13/cobra"
)

func newResultsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "results <run-id>",
		Short: "Show the results of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/runs/" + args[0] + "/results")
			if err != nil {
				return fmt.Errorf("get results: %w", err)
			}

			var res model.RunResults
			if err := json.Unmarshal(resp.Data, &res); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			if len(res.Summary) == 0 && len(res.Table) == 0 {
				fmt.Println("No results yet.")
				return nil
			}

			fmt.Println("Summary:")
			keys := make([]string, 0, len(res.Summary))
			for k := range res.Summary {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("  %s: %v\n", k, res.Summary[k])
			}

			if len(res.Table) > 0 {
				fmt.Printf("Table: %d row(s)\n", len(res.Table))
				for i, row := range res.Table {
					data, _ := json.Marshal(row)
					fmt.Printf("  [%d] %s\n", i, data)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON results")
	return cmd
}
