package processor

import (
	"sort"
	"strings"
	"unicode"

	"github.com/LJTian/topicfeed/internal/collector"
)

// DefaultThreshold 相似度严格大于该值才视为重复
const DefaultThreshold = 0.70

// TokenSet 归一化标题的词集合
type TokenSet map[string]struct{}

// Normalize 转小写，去掉字母、数字、下划线和空白以外的字符
func Normalize(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func Tokens(title string) TokenSet {
	fields := strings.Fields(Normalize(title))
	set := make(TokenSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Jaccard |a∩b| / |a∪b|，任一为空时为 0
func Jaccard(a, b TokenSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Deduper 按标题词集合做近似去重，先到先得
type Deduper struct {
	Threshold float64
}

func NewDeduper() *Deduper {
	return &Deduper{Threshold: DefaultThreshold}
}

// Dedupe 保留输入顺序。每个候选与所有已接收的标题两两比较，O(n²)，
// 几百条以内没有问题，规模再大需要换成 MinHash 之类的索引。
func (d *Deduper) Dedupe(topics []collector.Topic) []collector.Topic {
	out := make([]collector.Topic, 0, len(topics))
	accepted := make([]TokenSet, 0, len(topics))

	for _, t := range topics {
		set := Tokens(t.Title())
		dup := false
		for _, prev := range accepted {
			if Jaccard(set, prev) > d.Threshold {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		accepted = append(accepted, set)
		out = append(out, t)
	}
	return out
}

// Dedupe 使用默认阈值
func Dedupe(topics []collector.Topic) []collector.Topic {
	return NewDeduper().Dedupe(topics)
}

// Rank 按时间倒序稳定排序后截断到 limit（limit <= 0 不截断），不修改入参
func Rank(topics []collector.Topic, limit int) []collector.Topic {
	out := make([]collector.Topic, len(topics))
	copy(out, topics)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp().After(out[j].Timestamp())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
