package redisstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	resultBatchPrefix = "checks:"
	alertMarkerPrefix = "alert:"
)

var (
	ErrMalformedKey = errors.New("redisstore: malformed key")
)

// ResultBatchKey addresses one CheckResultBatch: checks:<dispatchTS>:<uuid>.
// The uuid suffix keeps redelivered queue messages from colliding with a
// batch written by an earlier delivery.
type ResultBatchKey struct {
	DispatchedAt time.Time
	ID           uuid.UUID
}

func NewResultBatchKey(dispatchedAt time.Time) ResultBatchKey {
	return ResultBatchKey{
		DispatchedAt: dispatchedAt.UTC().Truncate(time.Second),
		ID:           uuid.New(),
	}
}

func (k ResultBatchKey) String() string {
	return resultBatchPrefix + k.DispatchedAt.UTC().Format(time.RFC3339) + ":" + k.ID.String()
}

func ParseResultBatchKey(raw string) (ResultBatchKey, error) {
	rest, ok := strings.CutPrefix(raw, resultBatchPrefix)
	if !ok {
		return ResultBatchKey{}, fmt.Errorf("%w: %q", ErrMalformedKey, raw)
	}

	// RFC3339 timestamps contain colons, the uuid starts after the last one
	i := strings.LastIndexByte(rest, ':')
	if i < 0 {
		return ResultBatchKey{}, fmt.Errorf("%w: %q", ErrMalformedKey, raw)
	}

	ts, err := time.Parse(time.RFC3339, rest[:i])
	if err != nil {
		return ResultBatchKey{}, fmt.Errorf("%w: %q: %v", ErrMalformedKey, raw, err)
	}

	id, err := uuid.Parse(rest[i+1:])
	if err != nil {
		return ResultBatchKey{}, fmt.Errorf("%w: %q: %v", ErrMalformedKey, raw, err)
	}

	return ResultBatchKey{DispatchedAt: ts.UTC(), ID: id}, nil
}

// AlertMarkerKey is the dedup/cooldown record for one monitor:
// alert:<monitorID>:<unixMilli>.
type AlertMarkerKey struct {
	MonitorID int64
	CreatedAt time.Time
}

func NewAlertMarkerKey(monitorID int64, createdAt time.Time) AlertMarkerKey {
	return AlertMarkerKey{
		MonitorID: monitorID,
		CreatedAt: createdAt.UTC().Truncate(time.Millisecond),
	}
}

func (k AlertMarkerKey) String() string {
	return fmt.Sprintf("%s%d:%d", alertMarkerPrefix, k.MonitorID, k.CreatedAt.UnixMilli())
}

func ParseAlertMarkerKey(raw string) (AlertMarkerKey, error) {
	rest, ok := strings.CutPrefix(raw, alertMarkerPrefix)
	if !ok {
		return AlertMarkerKey{}, fmt.Errorf("%w: %q", ErrMalformedKey, raw)
	}

	parts := strings.Split(rest, ":")
	if len(parts) != 2 {
		return AlertMarkerKey{}, fmt.Errorf("%w: %q", ErrMalformedKey, raw)
	}

	monitorID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return AlertMarkerKey{}, fmt.Errorf("%w: %q: %v", ErrMalformedKey, raw, err)
	}

	millis, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return AlertMarkerKey{}, fmt.Errorf("%w: %q: %v", ErrMalformedKey, raw, err)
	}

	return AlertMarkerKey{MonitorID: monitorID, CreatedAt: time.UnixMilli(millis).UTC()}, nil
}

func alertMarkerMonitorPrefix(monitorID int64) string {
	return fmt.Sprintf("%s%d:", alertMarkerPrefix, monitorID)
}
