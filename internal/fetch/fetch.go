// Package fetch 负责单次 HTTP GET：超时、User-Agent 轮换、429 退避与有限重试。
// 失败以 *Error 值返回，不会向上 panic。
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/LJTian/topicfeed/internal/logger"
)

const maxBodyBytes = 2 << 20 // 2MB，防止超大页面拖垮解析

var (
	ErrRateLimited = errors.New("rate limited")
	ErrStatus      = errors.New("unexpected status")
	ErrInvalidURL  = errors.New("invalid url")
)

// Error 是所有 header 组合与重试次数耗尽后的结果（即 FetchError）
type Error struct {
	URL        string
	Attempts   int
	LastStatus int
	Err        error
}

func (e *Error) Error() string {
	if e.LastStatus != 0 {
		return fmt.Sprintf("fetch %s: %d attempts, last status %d: %v", e.URL, e.Attempts, e.LastStatus, e.Err)
	}
	return fmt.Sprintf("fetch %s: %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Profile 一组请求头，通常只差 User-Agent
type Profile struct {
	Name    string
	Headers map[string]string
}

// UserAgentProfiles 按顺序把 UA 字符串转成 Profile
func UserAgentProfiles(agents []string) []Profile {
	out := make([]Profile, 0, len(agents))
	for i, ua := range agents {
		ua = strings.TrimSpace(ua)
		if ua == "" {
			continue
		}
		out = append(out, Profile{
			Name:    fmt.Sprintf("ua-%d", i+1),
			Headers: map[string]string{"User-Agent": ua},
		})
	}
	return out
}

// Policy 重试策略，构造后只读
type Policy struct {
	MaxAttempts    int           // 单个 URL 的总尝试次数（含首次），所有 Profile 共用
	RetryDelay     time.Duration // 连接错误 / 超时 / 5xx 之间的固定间隔
	RateLimitDelay time.Duration // 429 之后切换 Profile 前的等待
	Timeout        time.Duration // 单次请求超时
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		RetryDelay:     2 * time.Second,
		RateLimitDelay: 5 * time.Second,
		Timeout:        15 * time.Second,
	}
}

// retryableStatus 同一 Profile 内可以原地重试的状态码
func retryableStatus(code int) bool {
	return code >= 500 && code < 600
}

type SleepFunc func(ctx context.Context, d time.Duration) error

type Option func(*Client)

// WithHTTPClient 替换底层 http.Client（测试或自定义 Transport）
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSleep 替换等待函数，测试里用来跳过真实的退避时间
func WithSleep(fn SleepFunc) Option {
	return func(c *Client) { c.sleep = fn }
}

// Client 在一次采集中被所有数据源共享，配置只读；
// 同一 host 同时只允许一个请求在途，退避和礼貌等待都在这把锁内完成。
type Client struct {
	http     *http.Client
	policy   Policy
	profiles []Profile
	sleep    SleepFunc
	hosts    *hostLocks
}

func New(policy Policy, profiles []Profile, opts ...Option) *Client {
	def := DefaultPolicy()
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = def.MaxAttempts
	}
	if policy.Timeout <= 0 {
		policy.Timeout = def.Timeout
	}

	ps := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		h := make(map[string]string, len(p.Headers))
		for k, v := range p.Headers {
			h[k] = v
		}
		ps = append(ps, Profile{Name: p.Name, Headers: h})
	}
	if len(ps) == 0 {
		ps = append(ps, Profile{Name: "default"})
	}

	c := &Client{
		http:     &http.Client{},
		policy:   policy,
		profiles: ps,
		sleep:    sleepContext,
		hosts:    &hostLocks{m: make(map[string]*sync.Mutex)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Policy() Policy { return c.policy }

// Get 返回第一次 HTTP 200 的响应体
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.get(ctx, rawURL, 0)
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

// GetWithCourtesy 成功后在 host 锁内再等待 courtesy，避免连续请求同一站点
func (c *Client) GetWithCourtesy(ctx context.Context, rawURL string, courtesy time.Duration) ([]byte, error) {
	resp, err := c.get(ctx, rawURL, courtesy)
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

type response struct {
	header http.Header
	body   []byte
}

func (c *Client) get(ctx context.Context, rawURL string, courtesy time.Duration) (*response, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &Error{URL: rawURL, Err: ErrInvalidURL}
	}

	unlock := c.hosts.lock(u.Host)
	defer unlock()

	var (
		lastStatus int
		lastErr    error
		pi         int
	)

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		p := c.profiles[pi]
		resp, status, err := c.do(ctx, rawURL, p)
		if err == nil && status == http.StatusOK {
			if courtesy > 0 {
				_ = c.sleep(ctx, courtesy)
			}
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, &Error{URL: rawURL, Attempts: attempt, LastStatus: status, Err: ctx.Err()}
		}

		lastStatus = status
		var wait time.Duration
		switch {
		case err != nil:
			lastErr = err
			wait = c.policy.RetryDelay
			logger.Debugf("attempt %d for %s (%s) failed: %v", attempt, rawURL, p.Name, err)
		case status == http.StatusTooManyRequests:
			// 换下一组请求头再试
			lastErr = ErrRateLimited
			wait = c.policy.RateLimitDelay
			pi = (pi + 1) % len(c.profiles)
			logger.Warnf("rate limited on %s (%s)", rawURL, p.Name)
		case retryableStatus(status):
			lastErr = fmt.Errorf("%w %d", ErrStatus, status)
			wait = c.policy.RetryDelay
		default:
			// 其它状态码不等待，只有一组请求头时直接放弃
			lastErr = fmt.Errorf("%w %d", ErrStatus, status)
			if len(c.profiles) == 1 {
				return nil, &Error{URL: rawURL, Attempts: attempt, LastStatus: status, Err: lastErr}
			}
			pi = (pi + 1) % len(c.profiles)
		}

		if attempt < c.policy.MaxAttempts && wait > 0 {
			if err := c.sleep(ctx, wait); err != nil {
				return nil, &Error{URL: rawURL, Attempts: attempt, LastStatus: lastStatus, Err: err}
			}
		}
	}

	return nil, &Error{URL: rawURL, Attempts: c.policy.MaxAttempts, LastStatus: lastStatus, Err: lastErr}
}

func (c *Client) do(ctx context.Context, rawURL string, p Profile) (*response, int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.policy.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, resp.StatusCode, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return &response{header: resp.Header.Clone(), body: body}, resp.StatusCode, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type hostLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (h *hostLocks) lock(host string) func() {
	h.mu.Lock()
	l, ok := h.m[host]
	if !ok {
		l = &sync.Mutex{}
		h.m[host] = l
	}
	h.mu.Unlock()

	l.Lock()
	return l.Unlock
}
