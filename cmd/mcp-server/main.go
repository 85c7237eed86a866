// cmd/mcp-server: HTTP and command-line front end for the gotensor tools
//
// Usage:
//
//	mcp-server serve                 # POST /tool, GET /schema, /health, /metrics
//	mcp-server call --input req.yaml # run one tool request from a JSON or YAML file
//	mcp-server schema                # print the tool schema
//
// Configuration comes from the environment (PORT, HOST, LOG_LEVEL, LOG_DEV,
// GOTENSOR_MAX_PASSES, GOTENSOR_BATCH_WORKERS).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/njchilds90/gotensor"
	"github.com/njchilds90/gotensor/internal/config"
	"github.com/njchilds90/gotensor/internal/logging"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var (
	cfg    *config.Config
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:           "mcp-server",
	Short:         "Tensor expression expansion tools over HTTP and the command line",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		l, err := logging.New(logging.Config{Level: c.Logging.Level, Development: c.Logging.Development})
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(schemaCmd)
}

// newToolbox builds the toolbox from the loaded configuration.
func newToolbox() *gotensor.Toolbox {
	x := gotensor.NewExpander(
		gotensor.WithLogger(logger.Named("expand")),
		gotensor.WithMaxPasses(cfg.Engine.MaxPasses),
	)
	logger.Debug("expander configured",
		zap.Int("max_passes", cfg.Engine.MaxPasses),
		zap.Int("batch_workers", cfg.Engine.BatchWorkers))
	return gotensor.NewToolbox(x, cfg.Engine.BatchWorkers)
}
