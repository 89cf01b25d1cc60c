package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/PhantomInTheWire/image-fragmenter/pkg/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	envFile  string
	logLevel string
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "fragmenter",
		Short: "Cut an image into numbered grid fragments",
		Long: `fragmenter splits one image into a rows x cols grid, draws the
sequence number of each cell in its top-left corner and saves every cell
as fragment_<n>.<format>. Settings come from FRAGMENTER_* environment
variables, an optional .env file, and flags.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&g.envFile, "env-file", "", "path to a .env file (default: ./.env when present)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error")

	cmd.AddCommand(splitCmd(g))
	cmd.AddCommand(publishCmd(g))
	return cmd
}

// loadConfig reads the environment then applies any flags that were set.
func loadConfig(cmd *cobra.Command, g *globalFlags, sf *splitFlags) (config.Config, error) {
	cfg, err := config.Load(g.envFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	sf.apply(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(cfg.Level())
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
