package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/apk-analysis/droid-detective/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

// setupTestMetrics 创建测试用的 Prometheus 指标收集器
func setupTestMetrics(t *testing.T) *PrometheusMetrics {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	// 使用唯一的 namespace 避免重复注册
	namespace := "test_" + strings.ReplaceAll(t.Name(), "/", "_") + "_" + time.Now().Format("20060102150405999999999")
	return NewPrometheusMetrics(logger, namespace)
}

// TestHTTPMiddleware 测试 HTTP 中间件
func TestHTTPMiddleware(t *testing.T) {
	pm := setupTestMetrics(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(pm.HTTPMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.httpRequestsTotal.WithLabelValues("GET", "/test", "200")))
}

// TestRecordSample 测试样本计数
func TestRecordSample(t *testing.T) {
	pm := setupTestMetrics(t)

	pm.RecordSample("benign", true)
	pm.RecordSample("benign", true)
	pm.RecordSample("malware", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(pm.samplesTotal.WithLabelValues("benign", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.samplesTotal.WithLabelValues("malware", "failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(pm.samplesTotal.WithLabelValues("malware", "ok")))
}

// TestRecordPrediction 测试检测计数
func TestRecordPrediction(t *testing.T) {
	pm := setupTestMetrics(t)

	pm.ScanStarted()
	pm.ScanStarted()
	pm.ScanStarted()
	assert.Equal(t, 3.0, testutil.ToFloat64(pm.scansInProgress))

	pm.RecordPrediction(true, time.Second, nil)
	pm.RecordPrediction(false, time.Second, nil)
	pm.RecordPrediction(false, 0, errors.New("bad apk"))

	assert.Equal(t, 0.0, testutil.ToFloat64(pm.scansInProgress))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.predictionsTotal.WithLabelValues("malware")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.predictionsTotal.WithLabelValues("benign")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.predictionsTotal.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(pm.predictionDuration))
}

// TestRecordTraining 测试训练指标
func TestRecordTraining(t *testing.T) {
	pm := setupTestMetrics(t)

	pm.RecordTraining(90*time.Second, model.Metrics{Accuracy: 0.91, Recall: 0.8, Precision: 0.7, F1: 0.75, OOBScore: 0.9})

	assert.Equal(t, 0.91, testutil.ToFloat64(pm.modelMetric.WithLabelValues("accuracy")))
	assert.Equal(t, 0.8, testutil.ToFloat64(pm.modelMetric.WithLabelValues("recall")))
	assert.Equal(t, 0.9, testutil.ToFloat64(pm.modelMetric.WithLabelValues("oob_score")))
	assert.Equal(t, 5, testutil.CollectAndCount(pm.modelMetric))
}

// TestUpdateMemoryStats 测试内存统计
func TestUpdateMemoryStats(t *testing.T) {
	pm := setupTestMetrics(t)

	pm.UpdateMemoryStats(MemoryStats{Alloc: 1024, Goroutines: 7, NumGC: 3})
	assert.Equal(t, 1024.0, testutil.ToFloat64(pm.memoryUsage))
	assert.Equal(t, 7.0, testutil.ToFloat64(pm.goroutinesCount))
	assert.Equal(t, 3.0, testutil.ToFloat64(pm.gcCount))
}

// TestMemoryMonitor_Sample 测试采样推送到 Prometheus
func TestMemoryMonitor_Sample(t *testing.T) {
	pm := setupTestMetrics(t)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	mon := NewMemoryMonitor(logger, pm, time.Hour)
	stats := mon.Sample()
	assert.Greater(t, stats.Goroutines, 0)
	assert.Equal(t, stats, mon.GetStats())
	assert.Greater(t, testutil.ToFloat64(pm.goroutinesCount), 0.0)

	mon.Start()
	mon.Stop()
	mon.Stop()
}

// TestConcurrentMetrics 测试并发指标记录
func TestConcurrentMetrics(t *testing.T) {
	pm := setupTestMetrics(t)

	var wg sync.WaitGroup
	for g := 0; g < 3; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				pm.RecordSample("malware", true)
				pm.ScanStarted()
				pm.RecordPrediction(true, time.Millisecond, nil)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 30.0, testutil.ToFloat64(pm.samplesTotal.WithLabelValues("malware", "ok")))
	assert.Equal(t, 30.0, testutil.ToFloat64(pm.predictionsTotal.WithLabelValues("malware")))
	assert.Equal(t, 0.0, testutil.ToFloat64(pm.scansInProgress))
}

// TestPrometheusHandler 测试 Prometheus HTTP Handler
func TestPrometheusHandler(t *testing.T) {
	pm := setupTestMetrics(t)
	pm.RecordSample("benign", true)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/metrics", pm.Handler())

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "# HELP")
	assert.Contains(t, w.Body.String(), "samples_total")
}

// TestTokenAuth 测试 token 校验
func TestTokenAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	build := func(token string) *gin.Engine {
		router := gin.New()
		router.Use(TokenAuth(token))
		router.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return router
	}

	cases := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{"disabled", "", "", http.StatusNoContent},
		{"missing", "secret-token", "", http.StatusUnauthorized},
		{"no bearer prefix", "secret-token", "secret-token", http.StatusUnauthorized},
		{"wrong", "secret-token", "Bearer nope", http.StatusUnauthorized},
		{"ok", "secret-token", "Bearer secret-token", http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/x", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			build(tc.token).ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

// BenchmarkRecordPrediction 基准测试：检测指标记录
func BenchmarkRecordPrediction(b *testing.B) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	pm := NewPrometheusMetrics(logger, "bench")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pm.ScanStarted()
		pm.RecordPrediction(i%2 == 0, time.Millisecond, nil)
	}
}
