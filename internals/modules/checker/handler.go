package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
	"upmon/config"
	"upmon/internals/modules/monitor"
	"upmon/internals/modules/scheduler"
	"upmon/pkg/redisstore"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type ResultStore interface {
	PutResultBatch(ctx context.Context, key redisstore.ResultBatchKey, payload []byte, ttl time.Duration) error
}

// Handler consumes one queue message, probes every monitor in it
// concurrently and writes a single CheckResultBatch. The message is acked
// only after the write lands; any error requeues the whole batch, which is
// safe because probes are idempotent and the fresh key suffix keeps a
// redelivery from colliding with an earlier batch.
type Handler struct {
	prober       *Prober
	store        ResultStore
	resultTTL    time.Duration
	softDeadline time.Duration
	logger       *zerolog.Logger
}

func NewHandler(cfg *config.CheckerConfig, resultTTL time.Duration, prober *Prober, store ResultStore, logger *zerolog.Logger) *Handler {
	return &Handler{
		prober:       prober,
		store:        store,
		resultTTL:    resultTTL,
		softDeadline: cfg.MessageDeadline,
		logger:       logger,
	}
}

func (h *Handler) Handle(ctx context.Context, msg amqp091.Delivery) error {
	start := time.Now()

	var batch scheduler.CheckBatch
	if err := json.Unmarshal(msg.Body, &batch); err != nil {
		return fmt.Errorf("decode check batch: %w", err)
	}
	if len(batch.Monitors) == 0 {
		return nil
	}

	results := h.checkAll(ctx, batch.Monitors)

	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode result batch: %w", err)
	}

	key := redisstore.NewResultBatchKey(batch.DispatchedAt)
	if err := h.store.PutResultBatch(ctx, key, payload, h.resultTTL); err != nil {
		return fmt.Errorf("store result batch %s: %w", key, err)
	}

	elapsed := time.Since(start)
	if elapsed > h.softDeadline {
		// observability signal only, in-flight work is never cancelled
		h.logger.Warn().
			Dur("elapsed", elapsed).
			Dur("deadline", h.softDeadline).
			Int("monitors", len(batch.Monitors)).
			Msg("message processing exceeded soft deadline")
	}

	h.logger.Info().
		Int("monitors", len(batch.Monitors)).
		Str("key", key.String()).
		Dur("elapsed", elapsed).
		Msg("check batch processed")

	return nil
}

// checkAll probes every target concurrently. Latency is measured around the
// whole check, retry included.
func (h *Handler) checkAll(ctx context.Context, targets []monitor.Target) []CheckResult {
	results := make([]CheckResult, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, t monitor.Target) {
			defer wg.Done()

			probeStart := time.Now()
			status := h.prober.Check(ctx, t.URL)

			results[i] = CheckResult{
				MonitorID:        t.ID,
				URL:              t.URL,
				Mail:             t.Mail,
				MailNotification: t.MailNotification,
				Status:           status,
				LatencyMs:        time.Since(probeStart).Milliseconds(),
				CheckedAt:        time.Now().UTC(),
			}
		}(i, target)
	}
	wg.Wait()

	return results
}
