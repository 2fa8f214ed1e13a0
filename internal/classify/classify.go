package classify

import "strings"

// Kind 选择某个过滤谓词，供路由描述符和站点配置引用
type Kind int

const (
	None Kind = iota
	Funny
	Crime
)

func (k Kind) String() string {
	switch k {
	case Funny:
		return "funny"
	case Crime:
		return "crime"
	default:
		return "none"
	}
}

var (
	DefaultFunnyKeywords = []string{
		"funny", "hilarious", "weird", "strange", "bizarre", "odd",
		"unusual", "crazy", "silly", "absurd", "ridiculous", "wacky",
		"quirky", "eccentric", "comical", "laugh", "joke", "prank",
	}
	DefaultCrimeKeywords = []string{
		"arrested", "arrest", "crime", "criminal", "theft", "robbery",
		"burglary", "fraud", "scam", "police", "officer", "jail",
		"prison", "court", "trial", "guilty", "sentence", "fine",
	}
)

// Classifier 基于关键词子串匹配的纯函数分类器，无状态
type Classifier struct {
	funny []string
	crime []string
}

// New 关键词统一转小写；传 nil 使用默认词表
func New(funny, crime []string) *Classifier {
	if funny == nil {
		funny = DefaultFunnyKeywords
	}
	if crime == nil {
		crime = DefaultCrimeKeywords
	}
	return &Classifier{funny: lowerAll(funny), crime: lowerAll(crime)}
}

func (c *Classifier) IsFunny(title string) bool { return containsAny(title, c.funny) }

func (c *Classifier) IsCrime(title string) bool { return containsAny(title, c.crime) }

// Match None 恒为 true
func (c *Classifier) Match(k Kind, title string) bool {
	switch k {
	case Funny:
		return c.IsFunny(title)
	case Crime:
		return c.IsCrime(title)
	default:
		return true
	}
}

func containsAny(title string, keywords []string) bool {
	t := strings.ToLower(title)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}
