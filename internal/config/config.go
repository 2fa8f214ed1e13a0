package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/LJTian/topicfeed/internal/logger"
)

type Config struct {
	AppPort string `yaml:"app_port"`
	// 同时配置时启用 Basic Auth（/health 除外）
	BasicAuthUser string `yaml:"basic_auth_user"`
	BasicAuthPass string `yaml:"basic_auth_pass"`

	// RedisAddr 为空时不启用缓存
	RedisAddr string        `yaml:"redis_addr"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`

	CronSpec string `yaml:"cron_spec"`

	Log      logger.Config  `yaml:"log"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Collect  CollectConfig  `yaml:"collect"`
	Sources  SourcesConfig  `yaml:"sources"`
	Keywords KeywordsConfig `yaml:"keywords"`
}

// FetchConfig 抓取重试策略，UserAgents 按顺序轮换
type FetchConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	RateLimitDelay time.Duration `yaml:"rate_limit_delay"`
	Timeout        time.Duration `yaml:"timeout"`
	UserAgents     []string      `yaml:"user_agents"`
}

type CollectConfig struct {
	// WindowHours 递增的时间窗口（小时）
	WindowHours      []int `yaml:"window_hours"`
	Limit            int   `yaml:"limit"`
	Workers          int   `yaml:"workers"`
	RefetchPerWindow bool  `yaml:"refetch_per_window"`
}

// SourcesConfig 各类数据源地址。Feeds 的 key 供路由表引用
type SourcesConfig struct {
	Feeds              map[string]string `yaml:"feeds"`
	PoliticalSites     []string          `yaml:"political_sites"`
	OhioPoliticalSites []string          `yaml:"ohio_political_sites"`
	OhioGovNews        string            `yaml:"ohio_gov_news"`
	LocalNewsSites     []string          `yaml:"local_news_sites"`
	GovernmentSites    []string          `yaml:"government_sites"`
	WeirdSites         []string          `yaml:"weird_sites"`
	CrimeSites         []string          `yaml:"crime_sites"`
	OhioCrimeSites     []string          `yaml:"ohio_crime_sites"`
	LocalPolice        SyntheticConfig   `yaml:"local_police"`
	OhioPolice         SyntheticConfig   `yaml:"ohio_police"`
}

type SyntheticConfig struct {
	Label       string   `yaml:"label"`
	Summary     string   `yaml:"summary"`
	Posts       []string `yaml:"posts"`
	MaxAgeHours int      `yaml:"max_age_hours"`
}

// KeywordsConfig 为空时使用 classify 包的默认词表
type KeywordsConfig struct {
	Funny []string `yaml:"funny"`
	Crime []string `yaml:"crime"`
}

func Default() *Config {
	return &Config{
		AppPort:   "9000",
		RedisAddr: "localhost:6380",
		CacheTTL:  5 * time.Minute,
		CronSpec:  "*/30 * * * *",
		Log: logger.Config{
			Level:      "info",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
		},
		Fetch: FetchConfig{
			MaxAttempts:    3,
			RetryDelay:     2 * time.Second,
			RateLimitDelay: 5 * time.Second,
			Timeout:        15 * time.Second,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:91.0) Gecko/20100101 Firefox/91.0",
			},
		},
		Collect: CollectConfig{
			WindowHours: []int{2, 6, 12, 24},
			Limit:       100,
			Workers:     4,
		},
		Sources: SourcesConfig{
			Feeds: map[string]string{
				"politics":     "https://www.reddit.com/r/politics/hot.json?limit=25",
				"conservative": "https://www.reddit.com/r/Conservative/hot.json?limit=25",
				"ohio":         "https://www.reddit.com/r/Ohio/hot.json?limit=25",
				"youngstown":   "https://www.reddit.com/r/YoungstownOhio/hot.json?limit=25",
				"funny":        "https://www.reddit.com/r/funny/hot.json?limit=25",
				"nottheonion":  "https://www.reddit.com/r/nottheonion/hot.json?limit=25",
				"floridaman":   "https://www.reddit.com/r/FloridaMan/hot.json?limit=25",
			},
			PoliticalSites: []string{
				"https://www.cnn.com/politics",
				"https://www.foxnews.com/politics",
				"https://www.nbcnews.com/politics",
			},
			OhioPoliticalSites: []string{
				"https://www.cleveland.com/politics",
				"https://www.dispatch.com/politics",
			},
			OhioGovNews: "https://ohio.gov/wps/portal/gov/site/news",
			LocalNewsSites: []string{
				"https://www.wfmj.com",
				"https://www.vindy.com",
				"https://www.tribtoday.com",
			},
			GovernmentSites: []string{
				"https://www.cityofyoungstownoh.com",
				"https://www.salemohio.org",
				"https://www.warren.org",
			},
			WeirdSites: []string{
				"https://www.weirdnews.com",
				"https://www.odditycentral.com",
				"https://www.unexplained-mysteries.com",
			},
			CrimeSites: []string{
				"https://www.crimeonline.com",
				"https://www.crimestoppers.com",
			},
			OhioCrimeSites: []string{
				"https://www.cleveland.com/crime",
				"https://www.dispatch.com/news/crime",
			},
			LocalPolice: SyntheticConfig{
				Label:   "Local Police Social Media",
				Summary: "Local police department social media post",
				Posts: []string{
					"Man arrested for trying to pay for McDonald's with Monopoly money",
					"Local resident calls 911 to report 'suspicious' ice cream truck music",
					"Woman arrested for stealing garden gnomes, claims they were 'calling to her'",
					"Man tries to rob bank with banana, tells teller it's a 'banana gun'",
					"Local cat elected honorary mayor of small town",
				},
				MaxAgeHours: 48,
			},
			OhioPolice: SyntheticConfig{
				Label:   "Ohio Police Social Media",
				Summary: "Ohio police department social media post",
				Posts: []string{
					"Ohio man arrested for stealing 47 traffic cones, says he was 'building a fort'",
					"Columbus police respond to call about 'aggressive' squirrel in tree",
					"Cleveland man tries to return stolen items to store, gets arrested",
					"Ohio State student arrested for trying to ride campus bus with fake ID",
					"Local man calls police to report his neighbor's dog is 'too happy'",
				},
				MaxAgeHours: 72,
			},
		},
	}
}

// Load 默认值 -> YAML 文件（path 非空时）-> 环境变量，依次覆盖
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		// 展开环境变量，如 ${REDIS_ADDR}
		expanded := os.Expand(string(data), os.Getenv)
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.AppPort = getEnv("APP_PORT", cfg.AppPort)
	cfg.BasicAuthUser = getEnv("APP_BASIC_USER", cfg.BasicAuthUser)
	cfg.BasicAuthPass = getEnv("APP_BASIC_PASS", cfg.BasicAuthPass)
	// REDIS_ADDR= 显式置空可以关闭缓存
	cfg.RedisAddr = lookupEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.CronSpec = getEnv("CRON_SPEC", cfg.CronSpec)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Collect.WindowHours) == 0 {
		return errors.New("collect.window_hours is empty")
	}
	prev := 0
	for _, h := range c.Collect.WindowHours {
		if h <= prev {
			return fmt.Errorf("collect.window_hours must be positive and ascending: %v", c.Collect.WindowHours)
		}
		prev = h
	}
	if c.Collect.Limit <= 0 {
		return fmt.Errorf("collect.limit must be positive, got %d", c.Collect.Limit)
	}
	if c.Collect.Workers <= 0 {
		return fmt.Errorf("collect.workers must be positive, got %d", c.Collect.Workers)
	}
	if c.Fetch.MaxAttempts <= 0 {
		return fmt.Errorf("fetch.max_attempts must be positive, got %d", c.Fetch.MaxAttempts)
	}
	return nil
}

// Windows 以 time.Duration 形式返回时间窗口
func (c *Config) Windows() []time.Duration {
	out := make([]time.Duration, len(c.Collect.WindowHours))
	for i, h := range c.Collect.WindowHours {
		out[i] = time.Duration(h) * time.Hour
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// lookupEnv 与 getEnv 不同：变量存在但为空时返回空串
func lookupEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

// Now returns current time, 方便后续做可测试封装
func Now() time.Time {
	return time.Now()
}
