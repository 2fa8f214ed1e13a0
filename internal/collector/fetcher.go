package collector

import (
	"context"
	"fmt"
)

// Source 抽象每一个数据源；没有符合条件的条目时返回空切片和 nil
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Topic, error)
}

// ParseError 响应拿到了，但结构不符合预期（JSON 解码失败、HTML 无法解析）
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
