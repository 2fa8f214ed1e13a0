package router

import (
	"fmt"

	"github.com/LJTian/topicfeed/internal/classify"
	"github.com/LJTian/topicfeed/internal/collector"
	"github.com/LJTian/topicfeed/internal/config"
)

type CallKind int

const (
	FeedCall CallKind = iota
	SiteCall
	SyntheticCall
)

func (k CallKind) String() string {
	switch k {
	case FeedCall:
		return "feed"
	case SiteCall:
		return "site"
	case SyntheticCall:
		return "synthetic"
	default:
		return "unknown"
	}
}

// 模拟数据源的 key
const (
	LocalPolice = "local_police"
	OhioPolice  = "ohio_police"
)

// Call 一次抽取调用的描述。Filter 不为 None 时对结果再做一次分类过滤
type Call struct {
	Kind      CallKind
	Feed      string
	URL       string
	Profile   collector.SiteProfile
	Synthetic string
	Filter    classify.Kind
}

func (c Call) String() string {
	var s string
	switch c.Kind {
	case FeedCall:
		s = "feed:" + c.Feed
	case SiteCall:
		s = fmt.Sprintf("site:%s(%s)", c.URL, c.Profile.Name)
	case SyntheticCall:
		s = "synthetic:" + c.Synthetic
	default:
		s = "unknown"
	}
	if c.Filter != classify.None {
		s += "|" + c.Filter.String()
	}
	return s
}

// Table 分类到调用列表的静态映射，构建后只读
type Table struct {
	routes map[Category][]Call
}

func NewTable(src config.SourcesConfig) *Table {
	feed := func(key string) Call {
		return Call{Kind: FeedCall, Feed: key, URL: src.Feeds[key]}
	}
	sites := func(urls []string, p collector.SiteProfile) []Call {
		out := make([]Call, 0, len(urls))
		for _, u := range urls {
			out = append(out, Call{Kind: SiteCall, URL: u, Profile: p})
		}
		return out
	}
	synthetic := func(key string) Call {
		return Call{Kind: SyntheticCall, Synthetic: key}
	}

	localOhio := concat(
		sites(src.LocalNewsSites, collector.NewsProfile),
		[]Call{feed("youngstown")},
		sites(src.GovernmentSites, collector.GovernmentProfile),
	)

	var ohioGov []Call
	if src.OhioGovNews != "" {
		ohioGov = sites([]string{src.OhioGovNews}, collector.GovNewsProfile)
	}

	routes := map[Category][]Call{
		USPolitical: concat(
			[]Call{feed("politics"), feed("conservative")},
			sites(src.PoliticalSites, collector.NewsProfile),
		),
		OhioPolitical: concat(
			[]Call{feed("ohio")},
			ohioGov,
			sites(src.OhioPoliticalSites, collector.NewsProfile),
		),
		LocalOhio: localOhio,
		FunnyNational: concat(
			[]Call{feed("funny"), feed("nottheonion"), feed("floridaman")},
			sites(src.WeirdSites, collector.WeirdProfile),
		),
		// 两个本地分类复用本地新闻的调用，再叠加分类过滤
		LocalFunny: concat(
			[]Call{synthetic(LocalPolice)},
			withFilter(localOhio, classify.Funny),
		),
		CriminalNational: concat(
			[]Call{feed("floridaman"), feed("nottheonion")},
			sites(src.CrimeSites, collector.CrimeProfile),
		),
		CriminalOhio: concat(
			sites(src.OhioCrimeSites, collector.NewsProfile),
			[]Call{synthetic(OhioPolice)},
		),
		CriminalLocal: concat(
			[]Call{synthetic(LocalPolice)},
			withFilter(localOhio, classify.Crime),
		),
	}
	return &Table{routes: routes}
}

// Route 返回调用列表的副本；未知分类返回空
func (t *Table) Route(c Category) []Call {
	calls := t.routes[c]
	out := make([]Call, len(calls))
	copy(out, calls)
	return out
}

func concat(groups ...[]Call) []Call {
	var out []Call
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func withFilter(calls []Call, k classify.Kind) []Call {
	out := make([]Call, len(calls))
	for i, c := range calls {
		c.Filter = k
		out[i] = c
	}
	return out
}
