package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/me/modelrun/pkg/model"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <run-id>",
		Short: "Show the status of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/runs/" + args[0] + "/status")
			if err != nil {
				return fmt.Errorf("get status: %w", err)
			}

			var st model.RunStatus
			if err := json.Unmarshal(resp.Data, &st); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Run: %s\n", st.RunID)
			fmt.Printf("  Model:   %s\n", st.ModelID)
			fmt.Printf("  Status:  %s\n", st.Status)
			fmt.Printf("  Started: %s\n", st.StartedAt.Format(time.RFC3339))
			if st.FinishedAt != nil {
				fmt.Printf("  Finished: %s\n", st.FinishedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}
