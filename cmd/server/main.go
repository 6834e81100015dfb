// Package main is the pivot table server and command line tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"pivotsvc/internal/config"
	"pivotsvc/internal/logging"
)

var configPath string

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pivot",
		Short: "Pivot table of model output tables",
		Long: `Pivot aggregates model output table rows into a pivot table
and serves it over http or prints it as text.

Commands:
  serve     http API of a live pivot table
  render    print pivot table of a CSV file
  logs      print download logs summary
  files     print download folder files`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./pivot.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "json", "log format: json or console")
	_ = v.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(serveCmd(v))
	rootCmd.AddCommand(renderCmd(v))
	rootCmd.AddCommand(logsCmd())
	rootCmd.AddCommand(filesCmd())
	return rootCmd
}

// loadConfig reads config file and environment, flags bound to v take precedence.
func loadConfig(v *viper.Viper) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Read(v, configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
