package collector

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	summaryMaxRunes = 200
	ellipsis        = "..."
)

// TruncateSummary 按 rune 截断到 200 个字符并追加省略号，短文本原样返回
func TruncateSummary(s string) string {
	rs := []rune(s)
	if len(rs) <= summaryMaxRunes {
		return s
	}
	return string(rs[:summaryMaxRunes]) + ellipsis
}

// collapseSpace 把连续空白（含换行）压成一个空格
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ExtractSummary 取容器内可见文本：去掉 script / style，压缩空白后截断。
// 在副本上操作，不改动原文档。
func ExtractSummary(sel *goquery.Selection) string {
	clone := sel.Clone()
	clone.Find("script, style").Remove()
	return TruncateSummary(collapseSpace(clone.Text()))
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"2 January 2006",
}

// ParseTimestamp 依次尝试固定格式；解析失败或结果在未来时返回 now
func ParseTimestamp(raw string, now time.Time) time.Time {
	raw = collapseSpace(raw)
	if raw == "" {
		return now
	}
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, raw, now.Location())
		if err != nil {
			continue
		}
		return notAfter(t, now)
	}
	return now
}

func notAfter(t, now time.Time) time.Time {
	if t.After(now) {
		return now
	}
	return t
}

func nowFunc(fn func() time.Time) func() time.Time {
	if fn == nil {
		return time.Now
	}
	return fn
}
