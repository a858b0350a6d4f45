package api

import (
	"time"

	"github.com/apk-analysis/droid-detective/internal/api/handlers"
	"github.com/apk-analysis/droid-detective/internal/config"
	"github.com/apk-analysis/droid-detective/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Version 服务版本，构建时可通过 -ldflags 覆盖
var Version = "1.0.0"

func SetupRouter(cfg *config.Config, logger *logrus.Logger, detector handlers.Detector, memMonitor *middleware.MemoryMonitor, promMetrics *middleware.PrometheusMetrics) *gin.Engine {
	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(logger))
	r.Use(CORSMiddleware())

	// Prometheus 监控中间件
	if promMetrics != nil {
		r.Use(promMetrics.HTTPMiddleware())
	}

	// 内存监控端点
	if memMonitor != nil {
		r.GET("/metrics", memMonitor.MetricsEndpoint())
	}

	// Prometheus 指标端点
	if promMetrics != nil {
		r.GET("/metrics/prometheus", promMetrics.Handler())
	}

	scanHandler := handlers.NewScanHandler(detector, logger, cfg.Server.InboundDir, cfg.Server.MaxUploadMB)

	// 健康检查（无需认证）
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"version": Version,
		})
	})

	v1 := r.Group("/api", middleware.TokenAuth(cfg.Server.APIToken))
	{
		v1.GET("/model", scanHandler.GetModel)
		v1.POST("/scan", scanHandler.Scan)
		v1.GET("/scans", scanHandler.ListScans)
		v1.GET("/trainings", scanHandler.ListTrainings)
	}

	return r
}

// LoggerMiddleware 日志中间件
func LoggerMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		logger.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"latency": time.Since(startTime).Milliseconds(),
		}).Info("HTTP Request")
	}
}

// CORSMiddleware CORS 中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
