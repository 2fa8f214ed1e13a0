package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/topicfeed/internal/aggregator"
	"github.com/LJTian/topicfeed/internal/collector"
	"github.com/LJTian/topicfeed/internal/router"
	"github.com/LJTian/topicfeed/internal/storage"
)

type fakeRunner struct {
	mu    sync.Mutex
	seen  []router.Category
	block chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context, c router.Category) aggregator.Result {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.seen = append(f.seen, c)
	f.mu.Unlock()

	tp, _ := collector.NewTopic("headline for "+c.Slug(), "test", "#", time.Now(), "")
	return aggregator.Result{Category: c, RunID: "run-" + c.Slug(), Topics: []collector.Topic{tp}}
}

type fakeCache struct {
	mu    sync.Mutex
	saved map[string]storage.Batch
	fail  string
}

func (f *fakeCache) SaveBatch(ctx context.Context, slug string, b storage.Batch) error {
	if slug == f.fail {
		return errors.New("redis down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = make(map[string]storage.Batch)
	}
	f.saved[slug] = b
	return nil
}

func TestRunOnceCollectsEveryCategory(t *testing.T) {
	runner := &fakeRunner{}
	cache := &fakeCache{fail: router.LocalOhio.Slug()}

	s, err := New("*/30 * * * *", runner, cache)
	require.NoError(t, err)

	s.RunOnce(context.Background())

	assert.Equal(t, router.All(), runner.seen)
	assert.Len(t, cache.saved, 7)
	b := cache.saved[router.USPolitical.Slug()]
	assert.Equal(t, "run-us-political", b.RunID)
	assert.Len(t, b.Topics, 1)
	assert.False(t, b.CollectedAt.IsZero())
}

func TestRunOnceSkipsWhenBusy(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{})}
	s, err := New("@hourly", runner, &fakeCache{})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		s.RunOnce(context.Background())
		close(done)
	}()

	require.Eventually(t, s.running.Load, time.Second, 5*time.Millisecond)
	// 第二次调用应当立即返回
	s.RunOnce(context.Background())

	close(runner.block)
	<-done
	assert.Len(t, runner.seen, len(router.All()))
}

func TestRunOnceCancelled(t *testing.T) {
	runner := &fakeRunner{}
	s, err := New("@hourly", runner, &fakeCache{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.RunOnce(ctx)
	assert.Empty(t, runner.seen)
}

func TestNewRejectsBadCronExpr(t *testing.T) {
	_, err := New("not a cron spec", &fakeRunner{}, &fakeCache{})
	assert.Error(t, err)
}

func TestNilStoreAsCache(t *testing.T) {
	var store *storage.Store
	s, err := New("@hourly", &fakeRunner{}, store)
	require.NoError(t, err)
	s.RunOnce(context.Background())
	assert.NotNil(t, s.Cron())
}

func TestStopCancelsContext(t *testing.T) {
	s, err := New("@hourly", &fakeRunner{}, &fakeCache{})
	require.NoError(t, err)

	s.Start()
	<-s.Stop().Done()
	assert.Error(t, s.ctx.Err())
}

func TestStopWaitsForWarmupRun(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{})}
	s, err := New("@hourly", runner, &fakeCache{})
	require.NoError(t, err)
	s.warmupDelay = time.Millisecond

	s.Start()
	require.Eventually(t, s.running.Load, time.Second, 5*time.Millisecond)

	stopped := s.Stop()
	select {
	case <-stopped.Done():
		t.Fatal("Stop returned before the warm-up run finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(runner.block)
	select {
	case <-stopped.Done():
	case <-time.After(time.Second):
		t.Fatal("Stop did not finish after the warm-up run returned")
	}
	assert.False(t, s.running.Load())
}

func TestStopBeforeWarmupFires(t *testing.T) {
	runner := &fakeRunner{}
	s, err := New("@hourly", runner, &fakeCache{})
	require.NoError(t, err)

	s.Start()
	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a warm-up run that never started")
	}
	assert.Empty(t, runner.seen)
}
