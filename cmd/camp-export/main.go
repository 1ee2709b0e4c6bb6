package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"camp-export/internal/app"
	"camp-export/internal/config"
	"camp-export/internal/database"
	"camp-export/internal/docstore"
	"camp-export/internal/logging"
	"camp-export/internal/metrics"
	"camp-export/internal/notify"
	"camp-export/internal/storage"
	"camp-export/internal/telemetry"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    *config.Config
	logger *zap.Logger

	shutdownTracing func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:           "camp-export",
	Short:         "Export camp meal schedules",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.NewFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger, err = logging.New(cfg.LogLevel)
		if err != nil {
			return err
		}
		shutdownTracing, err = telemetry.Setup(cmd.Context(), "camp-export", cfg.OTelEndpoint)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if shutdownTracing != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				logger.Warn("failed to flush traces", zap.Error(err))
			}
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var (
	campID      string
	userID      string
	landscape   bool
	fixturePath string
	outPath     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Build the schedule of a camp from the document store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, closeStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		application, closeApp, err := newApp(store)
		if err != nil {
			return err
		}
		defer closeApp()

		res, err := application.Export(ctx, app.ExportRequest{CampID: campID, UserID: userID, Landscape: landscape})
		if err != nil {
			return err
		}
		return writeResult(res)
	},
}

var snapshotPath string

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Build the schedule from a saved snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			snap *storage.Snapshot
			err  error
		)
		switch {
		case snapshotPath != "":
			snap, err = storage.ReadFile(snapshotPath)
		case campID != "":
			var snapshots *storage.SnapshotStore
			snapshots, err = storage.NewSnapshotStore(cfg.SnapshotPath)
			if err == nil {
				snap, err = snapshots.Latest(campID)
			}
		default:
			return fmt.Errorf("either --snapshot or --camp is required")
		}
		if err != nil {
			return err
		}

		application := app.NewApp(nil, nil, nil, nil, cfg, logger)
		res, err := application.Replay(cmd.Context(), snap, landscape)
		if err != nil {
			return err
		}
		return writeResult(res)
	},
}

var (
	runsLimit int
	dailyDays int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent export runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, closeApp, err := newApp(nil)
		if err != nil {
			return err
		}
		defer closeApp()

		runs, err := application.RecentRuns(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tRUN\tCAMP\tSTATUS\tMEALS\tRECIPES\tCALLS\tLATENCY\tERROR")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
				r.StartedAt.Format(time.DateTime), r.RunID, r.CampID, r.Status,
				r.Meals, r.Recipes, r.StoreCalls, r.Latency, r.Error)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		daily, err := application.DailyExports(cmd.Context(), dailyDays)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout())
		w = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DAY\tOK\tFAILED\tAVG")
		for _, d := range daily {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", d.Date, d.Succeeded, d.Failed, time.Duration(d.AvgMS)*time.Millisecond)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		h := application.Health()
		fmt.Fprintf(cmd.OutOrStdout(), "\nsnapshots: %d files, %s\n", h.SnapshotFiles, h.SnapshotDiskSize())
		return nil
	},
}

var cleanupDays int

var cleanupCmd = &cobra.Command{
	Use:   "metrics-cleanup",
	Short: "Remove old export run records",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, closeApp, err := newApp(nil)
		if err != nil {
			return err
		}
		defer closeApp()

		affected, err := application.CleanupRuns(cmd.Context(), cleanupDays)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed %d old export runs.\n", affected)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&campID, "camp", "", "camp document id")
	exportCmd.Flags().StringVar(&userID, "user", "", "user document id")
	exportCmd.Flags().BoolVar(&landscape, "landscape", false, "render in landscape orientation")
	exportCmd.Flags().StringVar(&fixturePath, "fixture", "", "read documents from a YAML fixture instead of Firestore")
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the schedule JSON to this file instead of stdout")
	_ = exportCmd.MarkFlagRequired("camp")
	_ = exportCmd.MarkFlagRequired("user")

	replayCmd.Flags().StringVar(&snapshotPath, "snapshot", "", "snapshot file to replay")
	replayCmd.Flags().StringVar(&campID, "camp", "", "replay the latest snapshot of this camp")
	replayCmd.Flags().BoolVar(&landscape, "landscape", false, "render in landscape orientation")
	replayCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the schedule JSON to this file instead of stdout")

	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "number of runs to list")
	runsCmd.Flags().IntVar(&dailyDays, "days", 7, "days of daily totals to show")
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 30, "keep records for the last N days")

	rootCmd.AddCommand(exportCmd, replayCmd, runsCmd, cleanupCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openStore returns the fixture or Firestore store and a function releasing
// it.
func openStore(ctx context.Context) (docstore.Client, func(), error) {
	if fixturePath != "" {
		m, err := docstore.LoadFixture(fixturePath)
		return m, func() {}, err
	}
	if err := cfg.RequireFirestore(); err != nil {
		return nil, nil, err
	}
	fs, err := docstore.NewFirestore(ctx, docstore.FirestoreConfig{
		ProjectID:       cfg.FirestoreProjectID,
		DatabaseID:      cfg.FirestoreDatabaseID,
		Endpoint:        cfg.FirestoreEndpoint,
		CredentialsFile: cfg.CredentialsFile,
		EmulatorHost:    cfg.FirestoreEmulatorHost,
	})
	if err != nil {
		return nil, nil, err
	}
	return fs, func() {
		if err := fs.Close(); err != nil {
			logger.Warn("failed to close firestore client", zap.Error(err))
		}
	}, nil
}

// newApp wires the application around store. The returned function closes
// the metrics database.
func newApp(store docstore.Client) (*app.App, func(), error) {
	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	metricsStore := metrics.NewStore(db.SQL)

	snapshots, err := storage.NewSnapshotStore(cfg.SnapshotPath)
	if err != nil {
		metricsStore.Close()
		return nil, nil, err
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.TelegramBotToken != "" {
		notifier, err = notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
		if err != nil {
			metricsStore.Close()
			return nil, nil, err
		}
	}

	application := app.NewApp(store, snapshots, metricsStore, notifier, cfg, logger)
	return application, func() { metricsStore.Close() }, nil
}

func writeResult(res *app.ExportResult) error {
	if outPath == "" {
		return encodeResult(os.Stdout, res)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	return writeAndClose(f, res)
}

// writeAndClose encodes res to wc and closes it. A failed close is reported
// since buffered output may be lost.
func writeAndClose(wc io.WriteCloser, res *app.ExportResult) error {
	err := encodeResult(wc, res)
	if cerr := wc.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close output file: %w", cerr)
	}
	return err
}

func encodeResult(w io.Writer, res *app.ExportResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to write schedule: %w", err)
	}
	return nil
}
