package redisstore

import (
	"context"
	"time"
)

// PutResultBatch writes one serialized CheckResultBatch under a fresh key.
// The TTL is the write-ahead buffer's safety net; normal deletion happens in
// the aggregator after a successful commit.
func (c *Client) PutResultBatch(ctx context.Context, key ResultBatchKey, payload []byte, ttl time.Duration) error {
	return retry(ctx, 3, func() error {
		return c.rdb.Set(ctx, key.String(), payload, ttl).Err()
	})
}

// ListResultBatches returns parsed keys of all pending batches. Keys that do
// not round-trip through the key builder are dropped here; nothing else in
// the pipeline produces them.
func (c *Client) ListResultBatches(ctx context.Context) ([]ResultBatchKey, error) {
	raw, err := c.scanKeys(ctx, resultBatchPrefix)
	if err != nil {
		return nil, err
	}

	keys := make([]ResultBatchKey, 0, len(raw))
	for _, r := range raw {
		key, err := ParseResultBatchKey(r)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (c *Client) GetResultBatch(ctx context.Context, key ResultBatchKey) ([]byte, error) {
	return c.rdb.Get(ctx, key.String()).Bytes()
}

func (c *Client) DeleteResultBatch(ctx context.Context, key ResultBatchKey) error {
	return retry(ctx, 2, func() error {
		return c.rdb.Del(ctx, key.String()).Err()
	})
}
