package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"camp-export/internal/config"
	"camp-export/internal/docstore"
	"camp-export/internal/logging"
	"camp-export/internal/metrics"
	"camp-export/internal/notify"
	"camp-export/internal/schedule"
	"camp-export/internal/shopping"
	"camp-export/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// App holds the application's dependencies.
type App struct {
	store        docstore.Client
	snapshots    *storage.SnapshotStore
	metricsStore *metrics.Store
	notifier     notify.Notifier
	cfg          *config.Config
	logger       *zap.Logger

	now func() time.Time
}

// NewApp creates and initializes a new App instance. store may be nil when
// only snapshots are replayed; snapshots and metricsStore may be nil to skip
// saving snapshots or recording runs.
func NewApp(
	store docstore.Client,
	snapshots *storage.SnapshotStore,
	metricsStore *metrics.Store,
	notifier notify.Notifier,
	cfg *config.Config,
	logger *zap.Logger,
) *App {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	logger = logging.OrNop(logger)
	return &App{
		store:        store,
		snapshots:    snapshots,
		metricsStore: metricsStore,
		notifier:     notifier,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// ExportRequest selects the camp to export.
type ExportRequest struct {
	CampID    string
	UserID    string
	Landscape bool
}

// ExportResult is the outcome of a successful export.
type ExportResult struct {
	RunID        string                 `json:"run_id"`
	Schedule     *schedule.Schedule     `json:"schedule"`
	WeekView     []schedule.WeekViewRow `json:"week_view"`
	Prepare      []schedule.PrepareDay  `json:"prepare"`
	ShoppingList *shopping.ShoppingList `json:"shopping_list"`
	SnapshotPath string                 `json:"snapshot_path,omitempty"`
	StoreCalls   int64                  `json:"store_calls"`
	Latency      time.Duration          `json:"latency"`
}

// newResult derives the renderer views from s.
func (a *App) newResult(s *schedule.Schedule) *ExportResult {
	return &ExportResult{
		Schedule:     s,
		WeekView:     s.WeekView(a.cfg.MealTypes, a.cfg.Location),
		Prepare:      s.PrepareView(a.cfg.Location),
		ShoppingList: shopping.Build(s, a.cfg.Location),
	}
}

func (a *App) options(campID, userID string, landscape bool, logger *zap.Logger) schedule.Options {
	return schedule.Options{
		CampID:    campID,
		UserID:    userID,
		Landscape: landscape,
		MealTypes: a.cfg.MealTypes,
		Escaper:   a.cfg.Sanitizer,
		Location:  a.cfg.Location,
		Logger:    logger,
		Now:       a.now,
	}
}

// Export reads the camp from the document store, builds the schedule, saves
// a snapshot of the joined data and records the run. Failed runs are recorded
// and reported as well.
func (a *App) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	if a.store == nil {
		return nil, errors.New("no document store configured")
	}

	runID := uuid.NewString()
	start := a.now()
	logger := a.logger.With(zap.String("run_id", runID), zap.String("camp_id", req.CampID))
	counter := docstore.NewCounter(a.store, logger)

	res, err := a.export(ctx, counter, runID, req, logger)
	run := metrics.ExportRun{
		RunID:      runID,
		CampID:     req.CampID,
		UserID:     req.UserID,
		StoreCalls: counter.Total(),
		Latency:    a.now().Sub(start),
		StartedAt:  start,
	}
	report := notify.Report{RunID: runID, CampID: req.CampID, Latency: run.Latency}

	if err != nil {
		run.Status = metrics.StatusFailed
		run.Error = err.Error()
		report.Err = err
		logger.Error("export failed", zap.Error(err))
	} else {
		res.RunID = runID
		res.StoreCalls = run.StoreCalls
		res.Latency = run.Latency

		run.Status = metrics.StatusSucceeded
		run.Meals = len(res.Schedule.Meals)
		run.Recipes = res.Schedule.RecipeCount()
		run.SnapshotPath = res.SnapshotPath

		report.CampName = res.Schedule.Camp.CampName
		report.Days = len(res.Schedule.Camp.Days)
		report.Meals = run.Meals
		report.Recipes = run.Recipes
		report.ShoppingItems = res.ShoppingList.Len()
		report.PrepareDays = len(res.Prepare)
		logger.Info("export finished",
			zap.Int("meals", run.Meals),
			zap.Int("recipes", run.Recipes),
			zap.Int64("store_calls", run.StoreCalls),
			zap.Duration("latency", run.Latency))
	}

	a.record(ctx, run, logger)
	if nerr := a.notifier.Notify(ctx, report); nerr != nil {
		logger.Warn("failed to send report", zap.Error(nerr))
	}

	if err != nil {
		return nil, err
	}
	return res, nil
}

func (a *App) export(ctx context.Context, store docstore.Client, runID string, req ExportRequest, logger *zap.Logger) (*ExportResult, error) {
	b, err := schedule.New(store, a.options(req.CampID, req.UserID, req.Landscape, logger))
	if err != nil {
		return nil, err
	}

	s, err := b.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build schedule for camp %s: %w", req.CampID, err)
	}
	res := a.newResult(s)

	if a.snapshots != nil {
		// Joined is memoized and returns the data before escaping.
		joined, err := b.Joined(ctx)
		if err != nil {
			return nil, err
		}
		path, err := a.snapshots.Save(storage.Snapshot{
			RunID:   runID,
			User:    s.User,
			Camp:    s.Camp,
			Meals:   joined,
			SavedAt: s.GeneratedAt,
		})
		if err != nil {
			return nil, err
		}
		res.SnapshotPath = path

		if err := a.snapshots.RemoveStaleVersions(req.CampID, a.cfg.SnapshotKeep); err != nil {
			logger.Warn("failed to remove stale snapshots", zap.Error(err))
		}
	}
	return res, nil
}

// Replay builds the schedule from a saved snapshot without touching the
// document store.
func (a *App) Replay(ctx context.Context, snap *storage.Snapshot, landscape bool) (*ExportResult, error) {
	start := a.now()
	b, err := schedule.NewFromSnapshot(snap.User, snap.Camp, snap.Meals,
		a.options(snap.Camp.DocID, snap.User.DocID, landscape, a.logger))
	if err != nil {
		return nil, err
	}

	s, err := b.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build schedule from snapshot of camp %s: %w", snap.Camp.DocID, err)
	}
	res := a.newResult(s)
	res.Latency = a.now().Sub(start)
	return res, nil
}

func (a *App) record(ctx context.Context, run metrics.ExportRun, logger *zap.Logger) {
	if a.metricsStore == nil {
		return
	}
	// A canceled run is still recorded.
	ctx = context.WithoutCancel(ctx)
	if err := a.metricsStore.Record(ctx, run); err != nil {
		logger.Warn("failed to record export run", zap.Error(err))
	}
}

// RecentRuns lists the latest recorded runs.
func (a *App) RecentRuns(ctx context.Context, limit int) ([]metrics.ExportRun, error) {
	if a.metricsStore == nil {
		return nil, errors.New("no metrics store configured")
	}
	return a.metricsStore.RecentRuns(ctx, limit)
}

// DailyExports aggregates the runs of the last days per day.
func (a *App) DailyExports(ctx context.Context, days int) ([]metrics.DailyExports, error) {
	if a.metricsStore == nil {
		return nil, errors.New("no metrics store configured")
	}
	return a.metricsStore.GetDailyExports(ctx, days)
}

// CleanupRuns removes runs older than days.
func (a *App) CleanupRuns(ctx context.Context, days int) (int64, error) {
	if a.metricsStore == nil {
		return 0, errors.New("no metrics store configured")
	}
	n, err := a.metricsStore.Cleanup(ctx, days)
	if err != nil {
		return 0, err
	}
	a.logger.Info("export runs cleaned up", zap.Int64("removed", n), zap.Int("older_than_days", days))
	return n, nil
}

// Health reports process statistics and snapshot disk usage.
func (a *App) Health() metrics.SysHealth {
	return metrics.GetSysHealth(a.cfg.SnapshotPath)
}
