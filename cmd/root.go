// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/vlantag/internal/config"
	"firestige.xyz/vlantag/internal/log"
)

var (
	// Global flags
	configFile   string
	logLevel     string
	outputFormat string

	// globalConfig is loaded before any subcommand runs
	globalConfig = config.Default()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vlantag",
	Short: "vlantag - IEEE 802.1Q / 802.1ad vlan tag codec",
	Long: `vlantag encodes, decodes and inspects IEEE 802.1Q vlan tags and 802.1ad (Q-in-Q)
double tags.

Features:
  - Encode single or double tags from flags or named tag profiles
  - Decode tags or whole Ethernet frames from hex
  - Inspect pcap/pcapng captures (optionally gzip or zstd compressed)
  - Compile vlan membership into classic BPF programs`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (defaults and VLANTAG_* env vars when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level override: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "",
		"output format: text, json, yaml, toml")

	// Add subcommands
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(validateCmd)
}

// setup loads configuration and initializes logging.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if outputFormat != "" {
		cfg.Output = outputFormat
		if err := cfg.ValidateAndApplyDefaults(); err != nil {
			return err
		}
	}
	if err := log.Init(&cfg.Log); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	globalConfig = cfg

	log.GetLogger().WithFields(map[string]interface{}{
		"command": cmd.Name(),
		"config":  configFile,
	}).Debug("configuration loaded")
	return nil
}
