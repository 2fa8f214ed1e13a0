package collector

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const minTitleRunes = 10

var ErrTitleTooShort = errors.New("title shorter than 10 characters")

// Topic 采集后的统一结构，构造后不可变。
// time_ago 不单独存储，每次格式化时由 timestamp 推导。
type Topic struct {
	title     string
	source    string
	url       string
	timestamp time.Time
	summary   string
	score     int
	hasScore  bool
}

// NewTopic 去掉标题首尾空白后要求至少 10 个字符；summary 超过 200 字符会被截断
func NewTopic(title, source, url string, timestamp time.Time, summary string) (Topic, error) {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) < minTitleRunes {
		return Topic{}, fmt.Errorf("%w: %q", ErrTitleTooShort, title)
	}
	return Topic{
		title:     title,
		source:    source,
		url:       url,
		timestamp: timestamp,
		summary:   TruncateSummary(summary),
	}, nil
}

// WithScore 返回带热度分的副本
func (t Topic) WithScore(score int) Topic {
	t.score = score
	t.hasScore = true
	return t
}

func (t Topic) Title() string        { return t.title }
func (t Topic) Source() string       { return t.source }
func (t Topic) URL() string          { return t.url }
func (t Topic) Timestamp() time.Time { return t.timestamp }
func (t Topic) Summary() string      { return t.summary }

func (t Topic) Score() (int, bool) { return t.score, t.hasScore }

func (t Topic) TimeAgo() string { return t.TimeAgoAt(time.Now()) }

// TimeAgoAt 满一天显示天数，否则按当天余下的秒数显示小时 / 分钟
func (t Topic) TimeAgoAt(now time.Time) string {
	d := now.Sub(t.timestamp)
	if d < 0 {
		return "Just now"
	}
	if days := int(d / (24 * time.Hour)); days > 0 {
		return fmt.Sprintf("%dd ago", days)
	}
	secs := int(d / time.Second)
	switch {
	case secs > 3600:
		return fmt.Sprintf("%dh ago", secs/3600)
	case secs > 60:
		return fmt.Sprintf("%dm ago", secs/60)
	default:
		return "Just now"
	}
}

type topicJSON struct {
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
	TimeAgo   string    `json:"time_ago"`
	Summary   string    `json:"summary"`
	Score     *int      `json:"score,omitempty"`
}

func (t Topic) MarshalJSON() ([]byte, error) {
	out := topicJSON{
		Title:     t.title,
		Source:    t.source,
		URL:       t.url,
		Timestamp: t.timestamp,
		TimeAgo:   t.TimeAgo(),
		Summary:   t.summary,
	}
	if t.hasScore {
		s := t.score
		out.Score = &s
	}
	return json.Marshal(out)
}

// UnmarshalJSON 用于从缓存读回；time_ago 忽略，读取后重新计算
func (t *Topic) UnmarshalJSON(data []byte) error {
	var in topicJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	parsed, err := NewTopic(in.Title, in.Source, in.URL, in.Timestamp, in.Summary)
	if err != nil {
		return err
	}
	if in.Score != nil {
		parsed = parsed.WithScore(*in.Score)
	}
	*t = parsed
	return nil
}
