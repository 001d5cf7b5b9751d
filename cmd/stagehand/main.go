// Command stagehand renders scene files into stills and videos and runs the
// media helpers around them.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Razzula/stagehand/internal/config"
	"github.com/Razzula/stagehand/internal/logging"
	"github.com/Razzula/stagehand/internal/system"
)

var (
	// BuildVersion is set at link time.
	BuildVersion = "dev"

	cfgFile string
	verbose bool

	flagCfg = config.Default()
	cfg     *config.Config
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "stagehand",
	Short:         "Composite scene files into stills and videos",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		loaded.ApplyFlags(cmd.Flags(), flagCfg)
		loaded.BuildVersion = BuildVersion
		cfg = loaded

		system.InitResourceLimits(log.Logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./stagehand.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flagCfg.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(frameCmd)
	rootCmd.AddCommand(videoCmd)
	rootCmd.AddCommand(audioCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(diariseCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(configCmd)
}
