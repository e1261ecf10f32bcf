package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"framepress/internal/config"
	"framepress/internal/logging"
)

var (
	configPath string
	logLevel   string
	logJSON    bool
	logFile    string

	logger   = zerolog.Nop()
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "framepress",
	Short: "framepress - batch convert images and frame sequences to WebP",
	Long: "framepress converts batches of images to WebP (or JPEG/PNG) without shifting colours,\n" +
		"and groups numbered frames into sequences so gaps are easy to spot.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log, closer, err := logging.New(logging.Options{Level: logLevel, JSON: logJSON, File: logFile})
		if err != nil {
			return err
		}
		logger, closeLog = log, closer
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig returns the file config when --config is set, defaults otherwise.
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "TOML settings file")
	pf.StringVar(&logLevel, "log-level", "warn", "log level: debug | info | warn | error")
	pf.BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
	pf.StringVar(&logFile, "log-file", "", "append logs to this file instead of stderr")
}
