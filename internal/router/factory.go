package router

import (
	"context"
	"fmt"
	"time"

	"github.com/LJTian/topicfeed/internal/classify"
	"github.com/LJTian/topicfeed/internal/collector"
	"github.com/LJTian/topicfeed/internal/config"
	"github.com/LJTian/topicfeed/internal/fetch"
)

// Factory 把 Call 实例化为具体的 collector.Source，所有 Source 共享同一个 fetch.Client
type Factory struct {
	Client     *fetch.Client
	Classifier *classify.Classifier
	Sources    config.SourcesConfig
	Now        func() time.Time
}

func (f *Factory) Source(call Call) (collector.Source, error) {
	var src collector.Source

	switch call.Kind {
	case FeedCall:
		if call.URL == "" {
			return nil, fmt.Errorf("feed %q has no url configured", call.Feed)
		}
		src = &collector.RedditSource{Feed: call.Feed, URL: call.URL, Client: f.Client, Now: f.Now}
	case SiteCall:
		src = &collector.SiteSource{
			URL:        call.URL,
			Profile:    call.Profile,
			Client:     f.Client,
			Classifier: f.Classifier,
			Now:        f.Now,
		}
	case SyntheticCall:
		var sc config.SyntheticConfig
		switch call.Synthetic {
		case LocalPolice:
			sc = f.Sources.LocalPolice
		case OhioPolice:
			sc = f.Sources.OhioPolice
		default:
			return nil, fmt.Errorf("unknown synthetic source %q", call.Synthetic)
		}
		src = &collector.SyntheticSource{
			ID:          call.Synthetic,
			Label:       sc.Label,
			Summary:     sc.Summary,
			Posts:       sc.Posts,
			MaxAgeHours: sc.MaxAgeHours,
			Now:         f.Now,
		}
	default:
		return nil, fmt.Errorf("unknown call kind %v", call.Kind)
	}

	if call.Filter != classify.None {
		src = &filtered{Source: src, kind: call.Filter, cls: f.classifier()}
	}
	return src, nil
}

func (f *Factory) classifier() *classify.Classifier {
	if f.Classifier != nil {
		return f.Classifier
	}
	return classify.New(nil, nil)
}

// filtered 对下游 Source 的结果做分类过滤
type filtered struct {
	collector.Source
	kind classify.Kind
	cls  *classify.Classifier
}

func (s *filtered) Name() string {
	return s.Source.Name() + "|" + s.kind.String()
}

func (s *filtered) Fetch(ctx context.Context) ([]collector.Topic, error) {
	topics, err := s.Source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	out := topics[:0]
	for _, t := range topics {
		if s.cls.Match(s.kind, t.Title()) {
			out = append(out, t)
		}
	}
	return out, nil
}
