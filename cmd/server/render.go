package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pivotsvc/internal/engine"
	"pivotsvc/internal/models"
	"pivotsvc/internal/pivot"
	"pivotsvc/internal/render"
)

var errNotDownloadLogs = errors.New("file is not a list of download logs")

var errNotPathTree = errors.New("file is not a list of download files")

func renderOptions(cmd *cobra.Command) render.Options {
	opts := render.DefaultOptions()
	if plain, _ := cmd.Flags().GetBool("plain"); plain {
		opts.Style = table.StyleDefault
		opts.NoBorder = true
	}
	return opts
}

func renderCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [data.csv]",
		Short: "Print pivot table of output table CSV file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bindFlags(v, cmd, map[string]string{
				"data.layout":  "layout",
				"data.workers": "workers",
			})
			if len(args) > 0 {
				v.Set("data.path", args[0])
			}
			cfg, log, err := loadConfig(v)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ds, err := loadDataset(cmd.Context(), cfg, pivot.Options[engine.Record]{}, log)
			if err != nil {
				return err
			}
			opts := renderOptions(cmd)
			opts.RepeatLabels, _ = cmd.Flags().GetBool("repeat")

			fmt.Fprintln(cmd.OutOrStdout(), render.View(ds.Table().View(), opts))
			return nil
		},
	}
	cmd.Flags().String("layout", "", "pivot layout yaml file")
	cmd.Flags().Int("workers", 0, "CSV parse workers, 0 is one per CPU")
	cmd.Flags().Bool("repeat", false, "repeat row and column labels")
	cmd.Flags().Bool("plain", false, "plain ascii table without borders")
	return cmd
}

func logsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs <download-logs.json>",
		Short: "Print download logs summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if !models.IsDownloadLogList(json.RawMessage(b)) {
				return fmt.Errorf("%s: %w", args[0], errNotDownloadLogs)
			}
			logs := models.DecodeDownloadLogList(json.RawMessage(b))

			fmt.Fprintln(cmd.OutOrStdout(), render.Logs(logs, renderOptions(cmd)))
			return nil
		},
	}
	cmd.Flags().Bool("plain", false, "plain ascii table without borders")
	return cmd
}

func filesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files <download-tree.json>",
		Short: "Print download folder files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if !models.IsPathItemTree(json.RawMessage(b)) {
				return fmt.Errorf("%s: %w", args[0], errNotPathTree)
			}
			items := models.DecodePathItemTree(json.RawMessage(b))

			fmt.Fprintln(cmd.OutOrStdout(), render.Files(items, renderOptions(cmd)))
			return nil
		},
	}
	cmd.Flags().Bool("plain", false, "plain ascii table without borders")
	return cmd
}
