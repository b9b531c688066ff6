package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/golgbm/internal/capi"
	"github.com/YuminosukeSato/golgbm/lightgbm"
	"github.com/YuminosukeSato/golgbm/pkg/log"
)

// logLevelEnv sets the default for --log-level.
const logLevelEnv = "LGBM_LOG_LEVEL"

// cli carries what every subcommand needs.
type cli struct {
	api capi.API
}

func (c *cli) options() []lightgbm.Option {
	return []lightgbm.Option{lightgbm.WithAPI(c.api)}
}

func (c *cli) loadBooster(path string) (*lightgbm.Booster, error) {
	return lightgbm.BoosterFromFile(path, c.options()...)
}

// NewCLI builds the lgbm command tree on top of api.
func NewCLI(api capi.API) *cobra.Command {
	c := &cli{api: api}

	defaultLevel := os.Getenv(logLevelEnv)
	if defaultLevel == "" {
		defaultLevel = "warn"
	}

	rootCmd := &cobra.Command{
		Use:   "lgbm",
		Short: "Train and apply LightGBM models",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
			level, _ := cmd.Flags().GetString("log-level")
			return log.SetupLogger(level)
		},
	}
	rootCmd.PersistentFlags().String("log-level", defaultLevel, "Log level (debug, info, warn, error); defaults to $"+logLevelEnv)

	cobra.EnableCommandSorting = false

	rootCmd.AddCommand(
		c.newTrainCmd(),
		c.newPredictCmd(),
		c.newImportanceCmd(),
		c.newEvalCmd(),
		c.newServeCmd(),
	)
	return rootCmd
}
