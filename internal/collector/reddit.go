package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/LJTian/topicfeed/internal/fetch"
	"github.com/LJTian/topicfeed/internal/logger"
)

const (
	redditBaseURL  = "https://reddit.com"
	redditMinScore = 5
)

// RedditSource 通过 listing JSON 接口抓取某个 subreddit 的热门帖子
type RedditSource struct {
	Feed   string // subreddit 名，用于 source 标签，如 "politics"
	URL    string // 例如 https://www.reddit.com/r/politics/hot.json?limit=25
	Client *fetch.Client
	Now    func() time.Time
}

func (r *RedditSource) Name() string {
	return "reddit_" + r.Feed
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title      string  `json:"title"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
	Selftext   string  `json:"selftext"`
	URL        string  `json:"url"`
	Permalink  string  `json:"permalink"`
	Stickied   bool    `json:"stickied"`
	IsAds      bool    `json:"is_ads"`
	Promoted   bool    `json:"promoted"`
}

func (r *RedditSource) Fetch(ctx context.Context) ([]Topic, error) {
	logger.Infof("fetch Reddit r/%s...", r.Feed)

	body, err := r.Client.Get(ctx, r.URL)
	if err != nil {
		return nil, fmt.Errorf("reddit r/%s: %w", r.Feed, err)
	}

	topics, err := ExtractReddit(r.Feed, body, nowFunc(r.Now)())
	if err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		logger.Infof("reddit r/%s: no qualifying posts", r.Feed)
	}
	return topics, nil
}

// ExtractReddit 解析 listing：跳过置顶 / 广告、短标题、score < 5 的帖子
func ExtractReddit(feed string, body []byte, now time.Time) ([]Topic, error) {
	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, &ParseError{Source: "reddit_" + feed, Err: err}
	}

	source := "Reddit r/" + feed
	results := make([]Topic, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		p := child.Data
		if p.Stickied || p.IsAds || p.Promoted {
			continue
		}
		if p.Score < redditMinScore {
			continue
		}

		summary := p.Selftext
		if summary == "" && p.URL != "" {
			summary = "Link: " + p.URL
		}

		sec, frac := math.Modf(p.CreatedUTC)
		ts := notAfter(time.Unix(int64(sec), int64(frac*1e9)), now)

		t, err := NewTopic(p.Title, source, redditBaseURL+p.Permalink, ts, summary)
		if err != nil {
			continue
		}
		results = append(results, t.WithScore(p.Score))
	}
	return results, nil
}
