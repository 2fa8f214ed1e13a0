package router

import "strings"

// Category 八个固定分类，Unknown 表示无法识别的输入
type Category int

const (
	Unknown Category = iota
	USPolitical
	OhioPolitical
	LocalOhio
	FunnyNational
	LocalFunny
	CriminalNational
	CriminalOhio
	CriminalLocal
)

var categoryNames = [...]struct {
	label string
	slug  string
}{
	Unknown:          {"Unknown", "unknown"},
	USPolitical:      {"US Political News", "us-political"},
	OhioPolitical:    {"Ohio Political News", "ohio-political"},
	LocalOhio:        {"Local Ohio News (Columbiana, Trumbull, Mahoning Counties)", "local-ohio"},
	FunnyNational:    {"Funny Stories (US National)", "funny-national"},
	LocalFunny:       {"Local Funny Stories (Columbiana, Trumbull, Mahoning Counties)", "local-funny"},
	CriminalNational: {"Funny Criminal Stories (US National)", "criminal-national"},
	CriminalOhio:     {"Funny Criminal Stories (Ohio Statewide)", "criminal-ohio"},
	CriminalLocal:    {"Funny Criminal Stories (Columbiana, Mahoning, Trumbull Counties)", "criminal-local"},
}

func (c Category) valid() bool {
	return c > Unknown && int(c) < len(categoryNames)
}

// Label 展示用名称
func (c Category) Label() string {
	if !c.valid() {
		return categoryNames[Unknown].label
	}
	return categoryNames[c].label
}

// Slug 用于 API 参数和缓存 key
func (c Category) Slug() string {
	if !c.valid() {
		return categoryNames[Unknown].slug
	}
	return categoryNames[c].slug
}

func (c Category) String() string { return c.Label() }

// All 按固定顺序返回全部分类
func All() []Category {
	out := make([]Category, 0, len(categoryNames)-1)
	for c := USPolitical; int(c) < len(categoryNames); c++ {
		out = append(out, c)
	}
	return out
}

// Parse 接受 label、slug 或大小写不敏感的 label
func Parse(s string) Category {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unknown
	}
	for _, c := range All() {
		if s == c.Label() || s == c.Slug() {
			return c
		}
	}
	for _, c := range All() {
		if strings.EqualFold(s, c.Label()) || strings.EqualFold(s, c.Slug()) {
			return c
		}
	}
	return Unknown
}
