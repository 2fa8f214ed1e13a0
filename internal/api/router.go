package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LJTian/topicfeed/internal/aggregator"
	"github.com/LJTian/topicfeed/internal/collector"
	"github.com/LJTian/topicfeed/internal/logger"
	"github.com/LJTian/topicfeed/internal/router"
	"github.com/LJTian/topicfeed/internal/storage"
)

// Collector 执行一次分类采集
type Collector interface {
	Run(ctx context.Context, c router.Category) aggregator.Result
}

type Server struct {
	collector Collector
	store     *storage.Store
	now       func() time.Time
}

// NewServer store 可以为 nil（不走缓存）
func NewServer(collector Collector, store *storage.Store) *Server {
	return &Server{collector: collector, store: store, now: time.Now}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/categories", s.listCategories)
		v1.GET("/topics", s.listTopics)
		v1.DELETE("/topics/cache", s.dropCache)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type categoryView struct {
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

func (s *Server) listCategories(c *gin.Context) {
	all := router.All()
	out := make([]categoryView, 0, len(all))
	for _, cat := range all {
		out = append(out, categoryView{Label: cat.Label(), Slug: cat.Slug()})
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    out,
	})
}

// listTopics 默认读缓存；refresh=true 或缓存未命中时现场采集并回写缓存
func (s *Server) listTopics(c *gin.Context) {
	cat := router.Parse(c.Query("category"))
	if cat == router.Unknown {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_category",
			"message": "unknown category: " + c.Query("category"),
		})
		return
	}

	refresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))
	ctx := c.Request.Context()

	if !refresh {
		b, ok, err := s.store.LoadBatch(ctx, cat.Slug())
		if err != nil {
			logger.Warnf("load %s batch failed: %v", cat.Slug(), err)
		}
		if ok {
			respondTopics(c, b.RunID, true, b.CollectedAt, b.Topics, nil)
			return
		}
	}

	res := s.collector.Run(ctx, cat)
	collectedAt := s.now()
	if err := s.store.SaveBatch(ctx, cat.Slug(), storage.Batch{RunID: res.RunID, CollectedAt: collectedAt, Topics: res.Topics}); err != nil {
		logger.Warnf("save %s batch failed: %v", cat.Slug(), err)
	}
	respondTopics(c, res.RunID, false, collectedAt, res.Topics, res.Failed)
}

// dropCache 删除某个分类的缓存，下一次请求会现场采集
func (s *Server) dropCache(c *gin.Context) {
	cat := router.Parse(c.Query("category"))
	if cat == router.Unknown {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "invalid_category",
			"message": "unknown category: " + c.Query("category"),
		})
		return
	}
	if err := s.store.Invalidate(c.Request.Context(), cat.Slug()); err != nil {
		logger.Errorf("invalidate %s failed: %v", cat.Slug(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "cache_error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "ok", "message": "success"})
}

func respondTopics(c *gin.Context, runID string, cached bool, at time.Time, topics []collector.Topic, failed []string) {
	if topics == nil {
		topics = []collector.Topic{}
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    topics,
		"meta": gin.H{
			"run_id":       runID,
			"cached":       cached,
			"collected_at": at,
			"failed":       failed,
		},
	})
}

// BasicAuth 为整个站点增加一个简单的 Basic Auth 访问密码，/health 不做认证
func BasicAuth(user, pass string) gin.HandlerFunc {
	const realm = "Restricted"
	uBytes := []byte(user)
	pBytes := []byte(pass)

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		u, p, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), uBytes) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), pBytes) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="`+realm+`"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
