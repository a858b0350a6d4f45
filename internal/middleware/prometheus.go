package middleware

import (
	"strconv"
	"time"

	"github.com/apk-analysis/droid-detective/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// PrometheusMetrics Prometheus 指标收集器
type PrometheusMetrics struct {
	logger *logrus.Logger

	// HTTP 请求指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 训练样本
	samplesTotal *prometheus.CounterVec

	// 检测
	predictionsTotal   *prometheus.CounterVec
	predictionDuration prometheus.Histogram
	scansInProgress    prometheus.Gauge

	// 训练
	trainingDuration prometheus.Histogram
	modelMetric      *prometheus.GaugeVec

	// 系统指标
	memoryUsage     prometheus.Gauge
	goroutinesCount prometheus.Gauge
	gcCount         prometheus.Gauge
}

// NewPrometheusMetrics 创建 Prometheus 指标收集器
func NewPrometheusMetrics(logger *logrus.Logger, namespace string) *PrometheusMetrics {
	if namespace == "" {
		namespace = "droid_detective"
	}

	pm := &PrometheusMetrics{
		logger: logger,

		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latencies in seconds",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "path"},
		),

		samplesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "samples_total",
				Help:      "Corpus samples processed while building the training set",
			},
			[]string{"label", "status"}, // label: benign/malware, status: ok/failed
		),

		predictionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Total number of package classifications",
			},
			[]string{"result"}, // malware, benign, error
		),
		predictionDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "prediction_duration_seconds",
				Help:      "Time spent extracting and classifying one package",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
		),
		scansInProgress: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "scans_in_progress",
				Help:      "Number of scans currently running or waiting for the predictor",
			},
		),

		trainingDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "training_duration_seconds",
				Help:      "Model training duration in seconds, including corpus ingestion",
				Buckets:   []float64{1, 5, 30, 60, 300, 900, 1800, 3600},
			},
		),
		modelMetric: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "model_metric",
				Help:      "Evaluation metrics of the active model",
			},
			[]string{"metric"}, // accuracy, recall, precision, f1, oob_score
		),

		memoryUsage: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "memory_usage_bytes",
				Help:      "Current memory usage in bytes",
			},
		),
		goroutinesCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "goroutines_count",
				Help:      "Current number of goroutines",
			},
		),
		gcCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "gc_count",
				Help:      "Number of completed GC cycles",
			},
		),
	}

	logger.Debug("Prometheus metrics initialized")
	return pm
}

// HTTPMiddleware HTTP 请求监控中间件
func (pm *PrometheusMetrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		pm.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		pm.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// Handler 返回 Prometheus HTTP Handler
func (pm *PrometheusMetrics) Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordSample 记录一个训练样本的处理结果
func (pm *PrometheusMetrics) RecordSample(label string, ok bool) {
	status := "ok"
	if !ok {
		status = "failed"
	}
	pm.samplesTotal.WithLabelValues(label, status).Inc()
}

// ScanStarted 记录检测开始
func (pm *PrometheusMetrics) ScanStarted() {
	pm.scansInProgress.Inc()
}

// RecordPrediction 记录检测结果，err 非空时记为 error
func (pm *PrometheusMetrics) RecordPrediction(isMalware bool, duration time.Duration, err error) {
	pm.scansInProgress.Dec()

	result := "benign"
	switch {
	case err != nil:
		result = "error"
	case isMalware:
		result = "malware"
	}
	pm.predictionsTotal.WithLabelValues(result).Inc()
	if err == nil {
		pm.predictionDuration.Observe(duration.Seconds())
	}
}

// RecordTraining 记录一次训练耗时和模型指标
func (pm *PrometheusMetrics) RecordTraining(duration time.Duration, m model.Metrics) {
	pm.trainingDuration.Observe(duration.Seconds())
	pm.SetModelMetrics(m)
}

// SetModelMetrics 更新当前模型的指标
func (pm *PrometheusMetrics) SetModelMetrics(m model.Metrics) {
	pm.modelMetric.WithLabelValues("accuracy").Set(m.Accuracy)
	pm.modelMetric.WithLabelValues("recall").Set(m.Recall)
	pm.modelMetric.WithLabelValues("precision").Set(m.Precision)
	pm.modelMetric.WithLabelValues("f1").Set(m.F1)
	pm.modelMetric.WithLabelValues("oob_score").Set(m.OOBScore)
}

// UpdateMemoryStats 更新内存统计
func (pm *PrometheusMetrics) UpdateMemoryStats(stats MemoryStats) {
	pm.memoryUsage.Set(float64(stats.Alloc))
	pm.goroutinesCount.Set(float64(stats.Goroutines))
	pm.gcCount.Set(float64(stats.NumGC))
}
