package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prime3679/bishop-bench/internal/config"
	"github.com/prime3679/bishop-bench/internal/logging"
)

const defaultConfigFile = "bishop.yaml"

var (
	cfgFile   string
	flagDebug bool

	cfg      *config.Config
	logger   = logging.Fallback()
	syncLogs logging.ShutdownFunc
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "bishop",
		Short:        "Benchmark LLM providers on prompt tasks",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if syncLogs != nil {
				syncLogs()
			}
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigFile, "config file path")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	root.AddCommand(newRunCmd())
	root.AddCommand(newScoreCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newHistoryCmd())
	return root
}

// setup loads the config and builds the logger. The default config file is
// optional; an explicitly passed one must exist.
func setup(cmd *cobra.Command) error {
	path := cfgFile
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = loaded

	l, flush, err := logging.New(flagDebug || cfg.Debug)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	logger, syncLogs = l, flush
	if path != "" {
		logger.Debug("Loaded config", "path", path)
	}
	return nil
}
