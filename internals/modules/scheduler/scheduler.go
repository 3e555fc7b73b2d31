package scheduler

import (
	"context"
	"encoding/json"
	"time"
	"upmon/config"
	"upmon/internals/modules/monitor"

	"github.com/rs/zerolog"
)

type MonitorSource interface {
	FetchDue(ctx context.Context, grace time.Duration) ([]monitor.Target, error)
}

type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

type Scheduler struct {
	source    MonitorSource
	publisher Publisher
	interval  time.Duration
	grace     time.Duration
	batchSize int
	logger    *zerolog.Logger
}

func NewScheduler(
	cfg *config.SchedulerConfig,
	source MonitorSource,
	publisher Publisher,
	logger *zerolog.Logger,
) *Scheduler {

	return &Scheduler{
		source:    source,
		publisher: publisher,
		interval:  cfg.TickInterval,
		grace:     cfg.Grace,
		batchSize: cfg.BatchSize,
		logger:    logger,
	}
}

func (sc *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(sc.interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case <-ticker.C:
				if err := sc.Tick(ctx); err != nil {
					sc.logger.Error().Err(err).Msg("scheduler tick failed")
				}
			}
		}
	}()
}

// Tick selects due monitors, partitions them into fixed-size batches and
// publishes one queue message per batch. Publishes are independent; a failed
// batch stays due and is picked up again next tick.
func (sc *Scheduler) Tick(ctx context.Context) error {
	due, err := sc.source.FetchDue(ctx, sc.grace)
	if err != nil {
		return err
	}

	if len(due) == 0 {
		sc.logger.Debug().Msg("no monitors due")
		return nil
	}

	dispatchedAt := time.Now().UTC()
	batches := chunk(due, sc.batchSize)

	published := 0
	for i, batch := range batches {
		body, err := json.Marshal(CheckBatch{
			Monitors:     batch,
			DispatchedAt: dispatchedAt,
		})
		if err != nil {
			sc.logger.Error().Err(err).Int("batch", i).Msg("failed to marshal check batch")
			continue
		}

		if err := sc.publisher.Publish(ctx, body); err != nil {
			sc.logger.Error().Err(err).Int("batch", i).Msg("failed to publish check batch")
			continue
		}
		published++
	}

	sc.logger.Info().
		Int("due", len(due)).
		Int("batches", len(batches)).
		Int("published", published).
		Msg("scheduler tick complete")

	return nil
}

func chunk(targets []monitor.Target, size int) [][]monitor.Target {
	if size <= 0 {
		size = 1
	}

	var batches [][]monitor.Target
	for start := 0; start < len(targets); start += size {
		end := min(start+size, len(targets))
		batches = append(batches, targets[start:end])
	}
	return batches
}
