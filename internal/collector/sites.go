package collector

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/LJTian/topicfeed/internal/classify"
	"github.com/LJTian/topicfeed/internal/fetch"
	"github.com/LJTian/topicfeed/internal/logger"
)

// SiteProfile 描述一类站点的启发式解析规则。页面结构随时会变，这里只做“尽力而为”的解析。
type SiteProfile struct {
	Name string
	// Containers 候选容器选择器，按顺序逐组匹配，每组内部按文档顺序
	Containers []string
	// Heading 标题元素；TitleFromLink 为 true 时直接用链接文本
	Heading       string
	TitleFromLink bool
	// Dates 时间元素，为空则时间戳取当前时间
	Dates string
	// Limit 每页最多考察的候选容器数
	Limit    int
	Filter   classify.Kind
	Courtesy time.Duration
	// Source 固定的来源名，为空时使用页面 host
	Source string
}

const (
	classDates  = "time[class*='time'], time[class*='date'], time[class*='published'], span[class*='time'], span[class*='date'], span[class*='published']"
	headingsAll = "h1, h2, h3, h4, h5"
	headingsTop = "h1, h2, h3"
)

// 各类站点的内置规则
var (
	NewsProfile = SiteProfile{
		Name: "news",
		Containers: []string{
			"article",
			"div[class*='article'], div[class*='story'], div[class*='news'], div[class*='post'], div[class*='item']",
			"div[class*='headline'], div[class*='title'], div[class*='content']",
			"a[href*='/article/'], a[href*='/news/'], a[href*='/story/'], a[href*='/post/']",
		},
		Heading:  headingsAll,
		Dates:    classDates,
		Limit:    30,
		Courtesy: 2 * time.Second,
	}

	GovNewsProfile = SiteProfile{
		Name: "gov_news",
		Containers: []string{
			"div[class*='news'], div[class*='press'], article[class*='news'], article[class*='press']",
		},
		TitleFromLink: true,
		Dates:         "span[class*='date'], span[class*='time'], div[class*='date'], div[class*='time']",
		Limit:         25,
		Source:        "Ohio.gov",
	}

	GovernmentProfile = SiteProfile{
		Name: "government",
		Containers: []string{
			"div[class*='news'], div[class*='announcement'], div[class*='press'], article[class*='news'], article[class*='announcement'], article[class*='press']",
		},
		TitleFromLink: true,
		Limit:         10,
		Courtesy:      time.Second,
	}

	WeirdProfile = SiteProfile{
		Name: "weird",
		Containers: []string{
			"article[class*='article'], article[class*='story'], article[class*='post'], div[class*='article'], div[class*='story'], div[class*='post']",
		},
		Heading:  headingsTop,
		Limit:    15,
		Filter:   classify.Funny,
		Courtesy: time.Second,
	}

	CrimeProfile = SiteProfile{
		Name: "crime",
		Containers: []string{
			"article[class*='article'], article[class*='story'], article[class*='crime'], div[class*='article'], div[class*='story'], div[class*='crime']",
		},
		Heading:  headingsTop,
		Limit:    20,
		Filter:   classify.Crime,
		Courtesy: time.Second,
	}
)

// SiteSource 用 colly 抓取单个站点页面，请求经由 fetch.Transport 走统一的重试策略
type SiteSource struct {
	URL        string
	Profile    SiteProfile
	Client     *fetch.Client
	Classifier *classify.Classifier
	Now        func() time.Time
}

func (s *SiteSource) Name() string {
	if u, err := url.Parse(s.URL); err == nil && u.Host != "" {
		return u.Host
	}
	return s.URL
}

func (s *SiteSource) Fetch(ctx context.Context) ([]Topic, error) {
	logger.Infof("fetch %s (%s)...", s.URL, s.Profile.Name)

	c := colly.NewCollector()
	c.WithTransport(&fetch.Transport{Client: s.Client, Courtesy: s.Profile.Courtesy, Context: ctx})
	// 超时与重试由 fetch.Client 控制
	c.SetRequestTimeout(0)

	var candidates []*goquery.Selection
	for _, group := range s.Profile.Containers {
		c.OnHTML(group, func(e *colly.HTMLElement) {
			candidates = append(candidates, e.DOM)
		})
	}

	var results []Topic
	c.OnScraped(func(r *colly.Response) {
		results = s.extract(candidates, r.Request.URL)
	})

	if err := c.Visit(s.URL); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.URL, err)
	}

	if len(results) == 0 {
		logger.Infof("fetch %s got 0 items", s.URL)
	}
	return results, nil
}

func (s *SiteSource) extract(candidates []*goquery.Selection, page *url.URL) []Topic {
	p := s.Profile
	if p.Limit > 0 && len(candidates) > p.Limit {
		candidates = candidates[:p.Limit]
	}

	cls := s.Classifier
	if cls == nil {
		cls = classify.New(nil, nil)
	}
	now := nowFunc(s.Now)()
	source := p.Source
	if source == "" {
		source = page.Host
	}

	results := make([]Topic, 0, len(candidates))
	seen := make(map[string]struct{})

	for _, cand := range candidates {
		link := findLink(cand)
		if link == nil {
			continue
		}
		href, _ := link.Attr("href")

		var title string
		if p.TitleFromLink {
			title = collapseSpace(link.Text())
		} else {
			h := cand.Find(p.Heading).First()
			if h.Length() == 0 {
				continue
			}
			title = collapseSpace(h.Text())
		}
		if utf8.RuneCountInString(title) < minTitleRunes {
			continue
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}

		if !cls.Match(p.Filter, title) {
			continue
		}

		ts := now
		if p.Dates != "" {
			ts = findTimestamp(cand.Find(p.Dates).First(), now)
		}

		t, err := NewTopic(title, source, resolveURL(page, href), ts, ExtractSummary(cand))
		if err != nil {
			continue
		}
		results = append(results, t)
	}
	return results
}

// findLink 优先取容器内的第一个链接，容器本身是链接时用它自己
func findLink(sel *goquery.Selection) *goquery.Selection {
	if a := sel.Find("a[href]").First(); a.Length() > 0 {
		return a
	}
	if goquery.NodeName(sel) == "a" {
		if _, ok := sel.Attr("href"); ok {
			return sel
		}
	}
	return nil
}

func findTimestamp(sel *goquery.Selection, now time.Time) time.Time {
	if sel.Length() == 0 {
		return now
	}
	if dt, ok := sel.Attr("datetime"); ok {
		if ts := ParseTimestamp(dt, now); !ts.Equal(now) {
			return ts
		}
	}
	return ParseTimestamp(sel.Text(), now)
}

func resolveURL(page *url.URL, href string) string {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return page.ResolveReference(ref).String()
}
