package redisstore

import (
	"context"
	"time"
)

// Marker TTL is a soft backstop only; the aggregator's timestamp-based GC is
// the authoritative expiry.
const alertMarkerTTL = 24 * time.Hour

func (c *Client) PutAlertMarker(ctx context.Context, key AlertMarkerKey) error {
	return retry(ctx, 3, func() error {
		return c.rdb.Set(ctx, key.String(), "1", alertMarkerTTL).Err()
	})
}

func (c *Client) ListAlertMarkers(ctx context.Context) ([]AlertMarkerKey, error) {
	raw, err := c.scanKeys(ctx, alertMarkerPrefix)
	if err != nil {
		return nil, err
	}

	keys := make([]AlertMarkerKey, 0, len(raw))
	for _, r := range raw {
		key, err := ParseAlertMarkerKey(r)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// HasAlertMarker reports whether any marker exists for the monitor,
// regardless of age. It is the alert dedup gate.
func (c *Client) HasAlertMarker(ctx context.Context, monitorID int64) (bool, error) {
	raw, err := c.scanKeys(ctx, alertMarkerMonitorPrefix(monitorID))
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

func (c *Client) DeleteAlertMarker(ctx context.Context, key AlertMarkerKey) error {
	return retry(ctx, 2, func() error {
		return c.rdb.Del(ctx, key.String()).Err()
	})
}

// DeleteAlertMarkersFor removes every marker for one monitor. Used for
// orphan cleanup when the monitor no longer exists.
func (c *Client) DeleteAlertMarkersFor(ctx context.Context, monitorID int64) error {
	raw, err := c.scanKeys(ctx, alertMarkerMonitorPrefix(monitorID))
	if err != nil {
		return err
	}
	for _, r := range raw {
		if err := c.rdb.Del(ctx, r).Err(); err != nil {
			return err
		}
	}
	return nil
}
