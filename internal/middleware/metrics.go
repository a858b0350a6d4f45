package middleware

import (
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MemoryStats 内存统计
type MemoryStats struct {
	Alloc      uint64 `json:"alloc"`       // 当前分配的内存 (字节)
	Sys        uint64 `json:"sys"`         // 从系统获取的内存
	NumGC      uint32 `json:"num_gc"`      // GC 次数
	Goroutines int    `json:"goroutines"`  // Goroutine 数量
	AllocMB    uint64 `json:"alloc_mb"`
	SysMB      uint64 `json:"sys_mb"`
}

// MemoryMonitor 内存监控器，定期采样并推送给 Prometheus
type MemoryMonitor struct {
	logger   *logrus.Logger
	metrics  *PrometheusMetrics
	interval time.Duration

	mutex    sync.RWMutex
	stats    MemoryStats
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewMemoryMonitor 创建内存监控器，metrics 可为空
func NewMemoryMonitor(logger *logrus.Logger, metrics *PrometheusMetrics, interval time.Duration) *MemoryMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &MemoryMonitor{
		logger:   logger,
		metrics:  metrics,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start 启动内存监控
func (m *MemoryMonitor) Start() {
	m.Sample()
	go m.monitor()
}

// Stop 停止内存监控
func (m *MemoryMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *MemoryMonitor) monitor() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.Sample()
		}
	}
}

// Sample 采样一次
func (m *MemoryMonitor) Sample() MemoryStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := MemoryStats{
		Alloc:      ms.Alloc,
		Sys:        ms.Sys,
		NumGC:      ms.NumGC,
		Goroutines: runtime.NumGoroutine(),
		AllocMB:    ms.Alloc / 1024 / 1024,
		SysMB:      ms.Sys / 1024 / 1024,
	}

	m.mutex.Lock()
	m.stats = stats
	m.mutex.Unlock()

	if m.metrics != nil {
		m.metrics.UpdateMemoryStats(stats)
	}

	m.logger.WithFields(logrus.Fields{
		"alloc_mb":   stats.AllocMB,
		"sys_mb":     stats.SysMB,
		"num_gc":     stats.NumGC,
		"goroutines": stats.Goroutines,
	}).Debug("Memory stats")

	// 训练大语料时内存增长明显
	if stats.AllocMB > 1536 {
		m.logger.WithField("alloc_mb", stats.AllocMB).Warn("High memory usage detected")
	}
	return stats
}

// GetStats 获取最近一次采样
func (m *MemoryMonitor) GetStats() MemoryStats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.stats
}

// MetricsEndpoint 返回内存统计
func (m *MemoryMonitor) MetricsEndpoint() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"memory": m.GetStats(),
		})
	}
}
