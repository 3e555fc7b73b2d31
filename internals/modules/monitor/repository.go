package monitor

import (
	"context"
	"time"
	"upmon/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	qFetchDue = `
SELECT id, url, mail, mail_notification
FROM monitors
WHERE is_active = TRUE
  AND updated_at <= now() - make_interval(mins => "interval"::int) + make_interval(secs => $1)
ORDER BY updated_at;
`

	qListIDs = `SELECT id FROM monitors;`

	qInsertHistory = `
INSERT INTO history (monitor_id, ts, status, latency_ms)
SELECT unnest($1::bigint[]), unnest($2::timestamptz[]), unnest($3::smallint[]), unnest($4::int[]);
`

	qUpdateStatuses = `
UPDATE monitors AS m
SET status = v.status, updated_at = v.ts
FROM (
  SELECT unnest($1::bigint[]) AS id,
         unnest($2::boolean[]) AS status,
         unnest($3::timestamptz[]) AS ts
) AS v
WHERE m.id = v.id;
`
)

type Repository struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

func NewRepository(pool *pgxpool.Pool, logger *zerolog.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: logger,
	}
}

// FetchDue selects active monitors whose interval has elapsed, oldest first.
// The grace window absorbs tick jitter so a monitor is not skipped when the
// scheduler fires slightly early.
func (r *Repository) FetchDue(ctx context.Context, grace time.Duration) ([]Target, error) {
	const op string = "repo.monitor.fetch_due"

	rows, err := r.pool.Query(ctx, qFetchDue, grace.Seconds())
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var targets []Target
	for rows.Next() {
		var t Target
		var mail *string
		if err := rows.Scan(&t.ID, &t.URL, &mail, &t.MailNotification); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		if mail != nil {
			t.Mail = *mail
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return targets, nil
}

// ListMonitorIDs returns the ids of every monitor still present, active or
// not. The aggregator uses it to spot results for deleted monitors.
func (r *Repository) ListMonitorIDs(ctx context.Context) ([]int64, error) {
	const op string = "repo.monitor.list_ids"

	rows, err := r.pool.Query(ctx, qListIDs)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return ids, nil
}

// CommitResults writes the history rows and the batched status update in a
// single transaction. Either both land or neither does; the caller keeps the
// source batches around on failure.
func (r *Repository) CommitResults(ctx context.Context, entries []HistoryEntry, updates []StatusUpdate) error {
	const op string = "repo.monitor.commit_results"

	if len(entries) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	defer tx.Rollback(ctx)

	monitorIDs := make([]int64, len(entries))
	timestamps := make([]time.Time, len(entries))
	statuses := make([]int16, len(entries))
	latencies := make([]int32, len(entries))
	for i, e := range entries {
		monitorIDs[i] = e.MonitorID
		timestamps[i] = e.Timestamp
		statuses[i] = int16(e.Status)
		latencies[i] = int32(e.LatencyMs)
	}

	if _, err := tx.Exec(ctx, qInsertHistory, monitorIDs, timestamps, statuses, latencies); err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}

	if len(updates) > 0 {
		updateIDs := make([]int64, len(updates))
		ups := make([]bool, len(updates))
		ats := make([]time.Time, len(updates))
		for i, u := range updates {
			updateIDs[i] = u.MonitorID
			ups[i] = u.Up
			ats[i] = u.At
		}

		if _, err := tx.Exec(ctx, qUpdateStatuses, updateIDs, ups, ats); err != nil {
			return utils.WrapRepoError(op, err, false, r.logger)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}

	return nil
}
