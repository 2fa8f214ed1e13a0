package aggregator

import (
	"github.com/LJTian/topicfeed/internal/classify"
	"github.com/LJTian/topicfeed/internal/config"
	"github.com/LJTian/topicfeed/internal/fetch"
	"github.com/LJTian/topicfeed/internal/router"
)

// FromConfig 按配置组装完整的采集流水线：共享的 fetch.Client、分类器、路由表
func FromConfig(cfg *config.Config, opts ...fetch.Option) *Aggregator {
	policy := fetch.Policy{
		MaxAttempts:    cfg.Fetch.MaxAttempts,
		RetryDelay:     cfg.Fetch.RetryDelay,
		RateLimitDelay: cfg.Fetch.RateLimitDelay,
		Timeout:        cfg.Fetch.Timeout,
	}
	client := fetch.New(policy, fetch.UserAgentProfiles(cfg.Fetch.UserAgents), opts...)
	cls := classify.New(cfg.Keywords.Funny, cfg.Keywords.Crime)

	factory := &router.Factory{
		Client:     client,
		Classifier: cls,
		Sources:    cfg.Sources,
		Now:        config.Now,
	}

	return New(router.NewTable(cfg.Sources), factory,
		WithWindows(cfg.Windows()),
		WithLimit(cfg.Collect.Limit),
		WithWorkers(cfg.Collect.Workers),
		WithRefetchPerWindow(cfg.Collect.RefetchPerWindow),
		WithClock(config.Now),
	)
}
