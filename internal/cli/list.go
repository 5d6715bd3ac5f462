package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/me/modelrun/pkg/model"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/runs")
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			var runs []model.RunListItem
			if err := json.Unmarshal(resp.Data, &runs); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(runs) == 0 {
				fmt.Println("No runs found.")
				return nil
			}

			fmt.Printf("%-40s %-24s %-16s %s\n", "RUN ID", "MODEL", "STATUS", "CREATED")
			for _, r := range runs {
				fmt.Printf("%-40s %-24s %-16s %s\n",
					r.ID, r.ModelID, r.Status, r.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}
