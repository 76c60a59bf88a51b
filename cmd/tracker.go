package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/pfe-aggregator/internal/logger"
	"github.com/spigell/pfe-aggregator/internal/pipeline"
	"github.com/spigell/pfe-aggregator/internal/tracker"
	"github.com/spigell/pfe-aggregator/internal/tracker/pgexport"
)

var trackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Inspect and edit the tracker ledger",
}

var trackerListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print tracked projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, tr, err := openTracker()
		if err != nil {
			return err
		}

		status := flagString(cmd, "status")
		rows := make([]tracker.Row, 0, tr.Len())
		for _, row := range tr.Rows() {
			if status != "" && !strings.EqualFold(row.Status, status) {
				continue
			}
			rows = append(rows, row)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	},
}

var trackerSetStatusCmd = &cobra.Command{
	Use:   "set-status <project-id> <status>",
	Short: "Set the status of a tracked project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, tr, err := openTracker()
		if err != nil {
			return err
		}

		return updateStatus(cmd.Context(), pipeline.New(pipeline.Config{Tracker: tr, Logger: logger}), args[0]+":"+args[1], logger)
	},
}

var trackerExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Mirror the ledger into a Postgres table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger, tr, err := openTracker()
		if err != nil {
			return err
		}

		dsn := strings.TrimSpace(flagString(cmd, "dsn"))
		if dsn == "" {
			dsn = strings.TrimSpace(os.Getenv("PFE_TRACKER_DSN"))
		}
		if dsn == "" {
			return errors.New("postgres dsn is required (--dsn or PFE_TRACKER_DSN)")
		}

		exporter, err := pgexport.Open(cmd.Context(), dsn, flagString(cmd, "table"), logger)
		if err != nil {
			return err
		}
		defer exporter.Close()

		if err := exporter.EnsureTable(cmd.Context()); err != nil {
			return err
		}

		n, err := exporter.Export(cmd.Context(), tr.Rows())
		if err != nil {
			return fmt.Errorf("export tracker: %w", err)
		}
		logger.Info("tracker mirrored to postgres", zap.Int("rows", n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trackerCmd)
	trackerCmd.AddCommand(trackerListCmd, trackerSetStatusCmd, trackerExportCmd)

	trackerListCmd.Flags().String("status", "", "only print projects with this status")
	trackerExportCmd.Flags().String("dsn", "", "postgres connection string")
	trackerExportCmd.Flags().String("table", pgexport.DefaultTable, "target table")
}

func openTracker() (*zap.Logger, *tracker.Tracker, error) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("getting a config: %w", err)
	}

	tr, err := tracker.Open(config.Tracker.Path, tracker.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return logger, tr, nil
}
