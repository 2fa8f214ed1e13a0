package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LJTian/topicfeed/internal/aggregator"
	"github.com/LJTian/topicfeed/internal/logger"
	"github.com/LJTian/topicfeed/internal/router"
	"github.com/LJTian/topicfeed/internal/storage"
)

// Runner 执行一次分类采集
type Runner interface {
	Run(ctx context.Context, c router.Category) aggregator.Result
}

// Cache 保存采集结果供 API 读取
type Cache interface {
	SaveBatch(ctx context.Context, slug string, b storage.Batch) error
}

// Scheduler 定时把所有分类跑一遍并写入缓存，相当于给 API 预热
type Scheduler struct {
	cron       *cron.Cron
	runner     Runner
	cache      Cache
	categories []router.Category
	running    atomic.Bool
	now        func() time.Time

	// 首轮采集不经过 cron，单独跟踪，Stop 时一并等待
	warmupDelay time.Duration
	warmup      *time.Timer
	wg          sync.WaitGroup

	// ctx 在 Stop 时取消，正在执行的采集会尽快结束
	ctx    context.Context
	cancel context.CancelFunc
}

func New(spec string, runner Runner, cache Cache) (*Scheduler, error) {
	c := cron.New()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cron:       c,
		runner:     runner,
		cache:      cache,
		categories: router.All(),
		now:        time.Now,
		// 延迟执行首轮采集，避免与服务启动后的首批请求争抢资源
		warmupDelay: 15 * time.Second,
		ctx:         ctx,
		cancel:      cancel,
	}

	_, err := c.AddFunc(spec, func() { s.runOnce(s.ctx) })
	if err != nil {
		cancel()
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.wg.Add(1)
	s.warmup = time.AfterFunc(s.warmupDelay, func() {
		defer s.wg.Done()
		s.runOnce(s.ctx)
	})
}

// Stop 停止调度并取消正在执行的采集，返回的 ctx 在 cron 任务和首轮采集都退出后关闭
func (s *Scheduler) Stop() context.Context {
	s.cancel()
	if s.warmup != nil && s.warmup.Stop() {
		// 首轮还没开始，不会再执行
		s.wg.Done()
	}
	cronDone := s.cron.Stop()

	ctx, done := context.WithCancel(context.Background())
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		done()
	}()
	return ctx
}

func (s *Scheduler) Cron() *cron.Cron {
	return s.cron
}

// RunOnce 对外暴露的单次执行入口，方便手动触发采集
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.runOnce(ctx)
}

func (s *Scheduler) runOnce(ctx context.Context) {
	// 上一轮还没跑完时跳过，避免同一站点被并发抓取
	if !s.running.CompareAndSwap(false, true) {
		logger.Warnf("collect job still running, skip")
		return
	}
	defer s.running.Store(false)

	logger.Infof("start collect job...")
	for _, c := range s.categories {
		if ctx.Err() != nil {
			logger.Warnf("collect job cancelled: %v", ctx.Err())
			return
		}
		res := s.runner.Run(ctx, c)
		batch := storage.Batch{RunID: res.RunID, CollectedAt: s.now(), Topics: res.Topics}
		if err := s.cache.SaveBatch(ctx, c.Slug(), batch); err != nil {
			logger.Errorf("save %s batch error: %v", c.Slug(), err)
			continue
		}
		logger.Infof("%s done, topics=%d failed=%d", c.Slug(), len(res.Topics), len(res.Failed))
	}
	logger.Infof("collect job done (all categories)")
}
