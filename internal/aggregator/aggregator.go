package aggregator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LJTian/topicfeed/internal/collector"
	"github.com/LJTian/topicfeed/internal/logger"
	"github.com/LJTian/topicfeed/internal/processor"
	"github.com/LJTian/topicfeed/internal/router"
)

const (
	DefaultLimit   = 100
	DefaultWorkers = 4
)

// DefaultWindows 逐步放宽的时间窗口
var DefaultWindows = []time.Duration{2 * time.Hour, 6 * time.Hour, 12 * time.Hour, 24 * time.Hour}

// Router 分类到调用列表
type Router interface {
	Route(c router.Category) []router.Call
}

// SourceFactory 把调用描述实例化为数据源
type SourceFactory interface {
	Source(call router.Call) (collector.Source, error)
}

type WindowStat struct {
	Hours int `json:"hours"`
	Count int `json:"count"`
}

// Result 一次采集的完整结果。Failed 记录失败的调用，失败不影响其它数据源
type Result struct {
	Category router.Category   `json:"-"`
	RunID    string            `json:"run_id"`
	Topics   []collector.Topic `json:"topics"`
	Windows  []WindowStat      `json:"windows"`
	Failed   []string          `json:"failed,omitempty"`
}

type Aggregator struct {
	router  Router
	sources SourceFactory

	windows          []time.Duration
	limit            int
	workers          int
	refetchPerWindow bool
	now              func() time.Time
}

type Option func(*Aggregator)

func WithWindows(w []time.Duration) Option {
	return func(a *Aggregator) {
		if len(w) > 0 {
			a.windows = append([]time.Duration(nil), w...)
		}
	}
}

func WithLimit(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.limit = n
		}
	}
}

func WithWorkers(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithRefetchPerWindow 每个窗口重新抽取一次（默认整个 Run 只抽取一次）
func WithRefetchPerWindow(on bool) Option {
	return func(a *Aggregator) { a.refetchPerWindow = on }
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

func New(r Router, sources SourceFactory, opts ...Option) *Aggregator {
	a := &Aggregator{
		router:  r,
		sources: sources,
		windows: DefaultWindows,
		limit:   DefaultLimit,
		workers: DefaultWorkers,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Collect 返回按时间倒序、去重后的话题，最多 limit 条。单个数据源失败不会返回错误
func (a *Aggregator) Collect(ctx context.Context, c router.Category) []collector.Topic {
	return a.Run(ctx, c).Topics
}

func (a *Aggregator) Run(ctx context.Context, c router.Category) Result {
	res := Result{Category: c, RunID: uuid.NewString()}
	log := logger.L.With("run_id", res.RunID, "category", c.Slug())

	calls := a.router.Route(c)
	if len(calls) == 0 {
		log.Warnf("no sources routed for %q", c.Label())
		res.Topics = []collector.Topic{}
		return res
	}

	start := time.Now()
	failed := make(map[string]struct{})

	var (
		acc     []collector.Topic
		batch   []collector.Topic
		fetched bool
	)
	for _, w := range a.windows {
		if len(acc) >= a.limit {
			break
		}
		if ctx.Err() != nil {
			log.Warnf("collect cancelled: %v", ctx.Err())
			break
		}

		if !fetched || a.refetchPerWindow {
			var errs []string
			batch, errs = a.extract(ctx, calls, log)
			for _, name := range errs {
				if _, ok := failed[name]; !ok {
					failed[name] = struct{}{}
					res.Failed = append(res.Failed, name)
				}
			}
			fetched = true
		}

		cutoff := a.now().Add(-w)
		merged := make([]collector.Topic, 0, len(acc)+len(batch))
		for _, group := range [][]collector.Topic{acc, batch} {
			for _, t := range group {
				if !t.Timestamp().Before(cutoff) {
					merged = append(merged, t)
				}
			}
		}
		acc = processor.Dedupe(merged)

		hours := int(w / time.Hour)
		res.Windows = append(res.Windows, WindowStat{Hours: hours, Count: len(acc)})
		log.Debugf("window %dh: %d topics", hours, len(acc))
	}

	res.Topics = processor.Rank(acc, a.limit)
	log.Infof("collect %s done: %d topics, %d windows, %d failed, took %s",
		c.Slug(), len(res.Topics), len(res.Windows), len(res.Failed), time.Since(start).Round(time.Millisecond))
	return res
}

// extract 并发执行全部调用，结果按调用顺序拼接，保证后续去重的先后顺序稳定
func (a *Aggregator) extract(ctx context.Context, calls []router.Call, log *zap.SugaredLogger) ([]collector.Topic, []string) {
	results := make([][]collector.Topic, len(calls))
	names := make([]string, len(calls))
	errs := make([]error, len(calls))

	var g errgroup.Group
	g.SetLimit(a.workers)
	for i, call := range calls {
		names[i] = call.String()
		g.Go(func() error {
			src, err := a.sources.Source(call)
			if err != nil {
				errs[i] = err
				return nil
			}
			names[i] = src.Name()
			topics, err := src.Fetch(ctx)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = topics
			return nil
		})
	}
	_ = g.Wait()

	var (
		out    []collector.Topic
		failed []string
	)
	for i := range calls {
		if errs[i] != nil {
			log.Warnf("fetch %s failed: %v", names[i], errs[i])
			failed = append(failed, names[i])
			continue
		}
		out = append(out, results[i]...)
	}
	return out, failed
}
