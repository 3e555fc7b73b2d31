package aggregator

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
	"upmon/config"
	"upmon/internals/modules/alert"
	"upmon/internals/modules/checker"
	"upmon/internals/modules/monitor"
	"upmon/pkg/redisstore"

	"github.com/rs/zerolog"
)

type Store interface {
	ListResultBatches(ctx context.Context) ([]redisstore.ResultBatchKey, error)
	GetResultBatch(ctx context.Context, key redisstore.ResultBatchKey) ([]byte, error)
	DeleteResultBatch(ctx context.Context, key redisstore.ResultBatchKey) error
	ListAlertMarkers(ctx context.Context) ([]redisstore.AlertMarkerKey, error)
	HasAlertMarker(ctx context.Context, monitorID int64) (bool, error)
	PutAlertMarker(ctx context.Context, key redisstore.AlertMarkerKey) error
	DeleteAlertMarker(ctx context.Context, key redisstore.AlertMarkerKey) error
	DeleteAlertMarkersFor(ctx context.Context, monitorID int64) error
}

type Repo interface {
	ListMonitorIDs(ctx context.Context) ([]int64, error)
	CommitResults(ctx context.Context, entries []monitor.HistoryEntry, updates []monitor.StatusUpdate) error
}

type Mailer interface {
	SendBatch(ctx context.Context, msgs []alert.Message)
}

// Aggregator reconciles ephemeral probe results against the durable store.
// Batch keys are deleted only after the commit lands, so a crash mid-tick
// causes reprocessing, never loss. Reprocessing is safe: history rows are
// append-only and monitor status converges by last-write-wins.
type Aggregator struct {
	store        Store
	repo         Repo
	mailer       Mailer
	interval     time.Duration
	cooldown     time.Duration
	dashboardURL string
	logger       *zerolog.Logger
	now          func() time.Time
}

func NewAggregator(
	cfg *config.AggregatorConfig,
	dashboardURL string,
	store Store,
	repo Repo,
	mailer Mailer,
	logger *zerolog.Logger,
) *Aggregator {

	return &Aggregator{
		store:        store,
		repo:         repo,
		mailer:       mailer,
		interval:     cfg.TickInterval,
		cooldown:     cfg.AlertCooldown,
		dashboardURL: dashboardURL,
		logger:       logger,
		now:          time.Now,
	}
}

func (ag *Aggregator) Run(ctx context.Context) {
	ticker := time.NewTicker(ag.interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case <-ticker.C:
				if err := ag.Tick(ctx); err != nil {
					ag.logger.Error().Err(err).Msg("aggregator tick failed")
				}
			}
		}
	}()
}

// Tick runs one aggregation pass: marker GC, drain, reconcile, commit,
// alert, cleanup. On commit failure nothing is deleted and the next tick
// retries the same batches.
func (ag *Aggregator) Tick(ctx context.Context) error {
	ag.gcAlertMarkers(ctx)

	results, processed := ag.drain(ctx)
	if len(results) == 0 {
		return nil
	}

	ids, err := ag.repo.ListMonitorIDs(ctx)
	if err != nil {
		return err
	}
	known := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}

	valid := make([]checker.CheckResult, 0, len(results))
	orphaned := make(map[int64]struct{})
	for _, r := range results {
		if _, ok := known[r.MonitorID]; ok {
			valid = append(valid, r)
		} else {
			orphaned[r.MonitorID] = struct{}{}
		}
	}

	// monitors deleted mid-flight: drop their results and markers
	for id := range orphaned {
		if err := ag.store.DeleteAlertMarkersFor(ctx, id); err != nil {
			ag.logger.Error().Err(err).Int64("monitor_id", id).Msg("failed to delete orphaned alert markers")
		}
	}
	if len(orphaned) > 0 {
		ag.logger.Info().Int("monitors", len(orphaned)).Msg("dropped results for deleted monitors")
	}

	if len(valid) == 0 {
		ag.deleteBatches(ctx, processed)
		return nil
	}

	entries, updates := buildCommit(valid)
	if err := ag.repo.CommitResults(ctx, entries, updates); err != nil {
		// keys survive on purpose, the next tick reprocesses them
		return err
	}

	ag.dispatchAlerts(ctx, valid)
	ag.deleteBatches(ctx, processed)

	ag.logger.Info().
		Int("results", len(valid)).
		Int("batches", len(processed)).
		Msg("aggregation tick complete")

	return nil
}

// gcAlertMarkers deletes markers older than the cooldown when a recovery
// (any pending 200 for that monitor) is visible. Younger markers are left
// alone regardless of recovery: the cooldown is a floor.
func (ag *Aggregator) gcAlertMarkers(ctx context.Context) {
	markers, err := ag.store.ListAlertMarkers(ctx)
	if err != nil {
		ag.logger.Error().Err(err).Msg("failed to list alert markers")
		return
	}

	for _, mk := range markers {
		if ag.now().Sub(mk.CreatedAt) <= ag.cooldown {
			continue
		}

		if ag.sawRecovery(ctx, mk.MonitorID) {
			if err := ag.store.DeleteAlertMarker(ctx, mk); err != nil {
				ag.logger.Error().Err(err).Int64("monitor_id", mk.MonitorID).Msg("failed to delete alert marker")
				continue
			}
			ag.logger.Info().Int64("monitor_id", mk.MonitorID).Msg("alert marker cleared after recovery")
		}
	}
}

// sawRecovery scans the still-pending batches for a 200 from this monitor.
// Batches already drained in a previous tick are invisible here; see the
// recovery-detection note in DESIGN.md.
func (ag *Aggregator) sawRecovery(ctx context.Context, monitorID int64) bool {
	keys, err := ag.store.ListResultBatches(ctx)
	if err != nil {
		ag.logger.Error().Err(err).Msg("failed to list result batches during gc")
		return false
	}

	for _, key := range keys {
		payload, err := ag.store.GetResultBatch(ctx, key)
		if err != nil {
			continue
		}
		var results []checker.CheckResult
		if err := json.Unmarshal(payload, &results); err != nil {
			continue
		}
		for _, r := range results {
			if r.MonitorID == monitorID && r.Status == http.StatusOK {
				return true
			}
		}
	}
	return false
}

// drain fetches every pending batch. Unreadable or empty batches are left in
// place for inspection and retried next tick; everything else is flattened
// into one working set.
func (ag *Aggregator) drain(ctx context.Context) ([]checker.CheckResult, []redisstore.ResultBatchKey) {
	keys, err := ag.store.ListResultBatches(ctx)
	if err != nil {
		ag.logger.Error().Err(err).Msg("failed to list result batches")
		return nil, nil
	}

	var all []checker.CheckResult
	var processed []redisstore.ResultBatchKey
	failed := 0

	for _, key := range keys {
		payload, err := ag.store.GetResultBatch(ctx, key)
		if err != nil {
			failed++
			ag.logger.Error().Err(err).Str("key", key.String()).Msg("failed to fetch result batch")
			continue
		}

		var results []checker.CheckResult
		if err := json.Unmarshal(payload, &results); err != nil {
			failed++
			ag.logger.Error().Err(err).Str("key", key.String()).Msg("skipping unreadable result batch")
			continue
		}
		if len(results) == 0 {
			failed++
			ag.logger.Warn().Str("key", key.String()).Msg("skipping empty result batch")
			continue
		}

		all = append(all, results...)
		processed = append(processed, key)
	}

	if failed > 0 {
		ag.logger.Warn().Int("batches", failed).Msg("result batches left for next pass")
	}

	return all, processed
}

// buildCommit flattens results into history rows and computes the
// last-write-wins status per monitor.
func buildCommit(valid []checker.CheckResult) ([]monitor.HistoryEntry, []monitor.StatusUpdate) {
	entries := make([]monitor.HistoryEntry, 0, len(valid))
	latest := make(map[int64]checker.CheckResult)

	for _, r := range valid {
		entries = append(entries, monitor.HistoryEntry{
			MonitorID: r.MonitorID,
			Timestamp: r.CheckedAt,
			Status:    r.Status,
			LatencyMs: r.LatencyMs,
		})

		if prev, ok := latest[r.MonitorID]; !ok || r.CheckedAt.After(prev.CheckedAt) {
			latest[r.MonitorID] = r
		}
	}

	updates := make([]monitor.StatusUpdate, 0, len(latest))
	for id, r := range latest {
		updates = append(updates, monitor.StatusUpdate{
			MonitorID: id,
			Up:        r.Status == http.StatusOK,
			At:        r.CheckedAt,
		})
	}

	return entries, updates
}

// dispatchAlerts mails owners of failing monitors. The marker is created
// before any send so duplicate processing in the same tick, or a crash
// between send and cleanup, can never double-mail a downtime episode.
func (ag *Aggregator) dispatchAlerts(ctx context.Context, valid []checker.CheckResult) {
	var mails []alert.Message

	for _, r := range valid {
		if r.Status == http.StatusOK || !r.MailNotification || r.Mail == "" {
			continue
		}

		has, err := ag.store.HasAlertMarker(ctx, r.MonitorID)
		if err != nil {
			ag.logger.Error().Err(err).Int64("monitor_id", r.MonitorID).Msg("failed to check alert marker")
			continue
		}
		if has {
			continue
		}

		marker := redisstore.NewAlertMarkerKey(r.MonitorID, ag.now())
		if err := ag.store.PutAlertMarker(ctx, marker); err != nil {
			ag.logger.Error().Err(err).Int64("monitor_id", r.MonitorID).Msg("failed to create alert marker")
			continue
		}

		mails = append(mails, alert.DownMessage(r.Mail, r.URL, ag.dashboardURL, r.CheckedAt))
	}

	if len(mails) > 0 {
		ag.mailer.SendBatch(ctx, mails)
	}
}

func (ag *Aggregator) deleteBatches(ctx context.Context, keys []redisstore.ResultBatchKey) {
	for _, key := range keys {
		if err := ag.store.DeleteResultBatch(ctx, key); err != nil {
			ag.logger.Error().Err(err).Str("key", key.String()).Msg("failed to delete processed batch")
		}
	}
}
