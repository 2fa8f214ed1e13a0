package collector

import (
	"context"
	"math/rand/v2"
	"time"
)

// SyntheticSource 本地警局社交媒体的模拟数据：固定文案，时间戳随机落在 [1, MaxAgeHours] 小时之前
type SyntheticSource struct {
	ID          string
	Label       string
	Summary     string
	Posts       []string
	MaxAgeHours int
	Now         func() time.Time
	// Rand 为空时使用全局随机源
	Rand *rand.Rand
}

func (s *SyntheticSource) Name() string {
	return s.ID
}

func (s *SyntheticSource) Fetch(ctx context.Context) ([]Topic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	maxAge := s.MaxAgeHours
	if maxAge < 1 {
		maxAge = 1
	}
	now := nowFunc(s.Now)()

	results := make([]Topic, 0, len(s.Posts))
	for _, post := range s.Posts {
		hours := s.intN(maxAge) + 1
		ts := now.Add(-time.Duration(hours) * time.Hour)
		t, err := NewTopic(post, s.Label, "#", ts, s.Summary)
		if err != nil {
			continue
		}
		results = append(results, t)
	}
	return results, nil
}

func (s *SyntheticSource) intN(n int) int {
	if s.Rand != nil {
		return s.Rand.IntN(n)
	}
	return rand.IntN(n)
}
