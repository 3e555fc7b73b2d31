package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
	"upmon/config"
	"upmon/internals/modules/monitor"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	targets []monitor.Target
	err     error
	grace   time.Duration
}

func (f *fakeSource) FetchDue(_ context.Context, grace time.Duration) ([]monitor.Target, error) {
	f.grace = grace
	return f.targets, f.err
}

type fakePublisher struct {
	bodies  [][]byte
	failOn  map[int]error // call index -> error
	calls   int
}

func (f *fakePublisher) Publish(_ context.Context, body []byte) error {
	defer func() { f.calls++ }()
	if err, ok := f.failOn[f.calls]; ok {
		return err
	}
	f.bodies = append(f.bodies, body)
	return nil
}

func newTestScheduler(source MonitorSource, pub Publisher) *Scheduler {
	logger := zerolog.Nop()
	return NewScheduler(&config.SchedulerConfig{
		TickInterval: time.Minute,
		Grace:        30 * time.Second,
		BatchSize:    4,
	}, source, pub, &logger)
}

func targets(n int) []monitor.Target {
	out := make([]monitor.Target, n)
	for i := range out {
		out[i] = monitor.Target{ID: int64(i + 1), URL: "https://example.com"}
	}
	return out
}

func TestChunk(t *testing.T) {
	require.Len(t, chunk(targets(9), 4), 3)
	require.Len(t, chunk(targets(8), 4), 2)
	require.Len(t, chunk(targets(1), 4), 1)
	require.Empty(t, chunk(nil, 4))

	batches := chunk(targets(9), 4)
	require.Len(t, batches[0], 4)
	require.Len(t, batches[1], 4)
	require.Len(t, batches[2], 1)
}

func TestTick_PublishesOneMessagePerBatch(t *testing.T) {
	source := &fakeSource{targets: targets(9)}
	pub := &fakePublisher{}

	sc := newTestScheduler(source, pub)
	require.NoError(t, sc.Tick(context.Background()))

	require.Equal(t, 30*time.Second, source.grace)
	require.Len(t, pub.bodies, 3)

	var first CheckBatch
	require.NoError(t, json.Unmarshal(pub.bodies[0], &first))
	require.Len(t, first.Monitors, 4)
	require.False(t, first.DispatchedAt.IsZero())

	// all batches stamped with the same dispatch timestamp
	var last CheckBatch
	require.NoError(t, json.Unmarshal(pub.bodies[2], &last))
	require.True(t, first.DispatchedAt.Equal(last.DispatchedAt))
}

func TestTick_FailedPublishDoesNotBlockOthers(t *testing.T) {
	source := &fakeSource{targets: targets(12)}
	pub := &fakePublisher{failOn: map[int]error{1: errors.New("broker gone")}}

	sc := newTestScheduler(source, pub)
	require.NoError(t, sc.Tick(context.Background()))

	// middle batch failed, first and third still went out
	require.Len(t, pub.bodies, 2)
	require.Equal(t, 3, pub.calls)
}

func TestTick_NothingDue(t *testing.T) {
	pub := &fakePublisher{}
	sc := newTestScheduler(&fakeSource{}, pub)

	require.NoError(t, sc.Tick(context.Background()))
	require.Empty(t, pub.bodies)
}

func TestTick_SourceFailure(t *testing.T) {
	pub := &fakePublisher{}
	sc := newTestScheduler(&fakeSource{err: errors.New("db down")}, pub)

	require.Error(t, sc.Tick(context.Background()))
	require.Empty(t, pub.bodies)
}
