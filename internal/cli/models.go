package cli

import (
	"encoding/json"
	"fmt"

	"github.com/me/modelrun/pkg/model"
	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the available model catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/models")
			if err != nil {
				return fmt.Errorf("list models: %w", err)
			}

			var models []model.ModelInfo
			if err := json.Unmarshal(resp.Data, &models); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			for _, m := range models {
				fmt.Printf("%s\n", m.ModelID)
				fmt.Printf("  Name: %s\n", m.Name)
				fmt.Printf("  %s\n", m.Description)
			}
			return nil
		},
	}
}
