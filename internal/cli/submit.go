package cli

import (
	"encoding/json"
	"fmt"

	"github.com/me/modelrun/pkg/model"
	"github.com/spf13/cobra"
)

func newSubmitCmd() *cobra.Command {
	var (
		modelID string
		region  string
		year    int
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a model run",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Post("/api/v1/runs", map[string]any{
				"model_id": modelID,
				"region":   region,
				"year":     year,
			})
			if err != nil {
				return fmt.Errorf("submit run: %w", err)
			}

			var created model.RunCreated
			if err := json.Unmarshal(resp.Data, &created); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Run submitted: %s\n", created.RunID)
			fmt.Printf("  Model:  %s\n", modelID)
			fmt.Printf("  Region: %s\n", region)
			fmt.Printf("  Year:   %d\n", year)
			return nil
		},
	}

	cmd.Flags().StringVar(&modelID, "model", "", "Model ID to run (required)")
	cmd.Flags().StringVar(&region, "region", "", "Region to analyze (required)")
	cmd.Flags().IntVar(&year, "year", 0, "Year to analyze (required)")
	cmd.MarkFlagRequired("model")
	cmd.MarkFlagRequired("region")
	cmd.MarkFlagRequired("year")

	return cmd
}
