package cli

import (
	"log/slog"
	"os"

	"github.com/me/modelrun/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagUser      string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking MODELRUN_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("MODELRUN_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// defaultUser returns the default user identity, checking MODELRUN_USER env var first.
func defaultUser() string {
	return os.Getenv("MODELRUN_USER")
}

// NewRootCmd creates the root cobra command for the modelrun CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "modelrun",
		Short: "Submit and track analytical model runs",
		Long:  "modelrun submits model runs to the dashboard backend and polls their status and results.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)
			client = NewClient(flagServer, flagUser, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "modelrun server URL (or MODELRUN_SERVER env)")
	root.PersistentFlags().StringVar(&flagUser, "user", defaultUser(), "Caller identity sent as bearer token (or MODELRUN_USER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newSubmitCmd(),
		newStatusCmd(),
		newResultsCmd(),
		newListCmd(),
		newModelsCmd(),
	)

	return root
}
