package model

import (
	"time"

	"github.com/apk-analysis/droid-detective/internal/forest"
)

// Name 模型产物固定名称
const Name = "model"

// FormatVersion 当前产物格式版本
const FormatVersion = 1

// Metrics 在测试集上评估得到的指标，正类为恶意
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Recall    float64 `json:"recall"`
	Precision float64 `json:"precision"`
	F1        float64 `json:"f1"`
	OOBScore  float64 `json:"oob_score"`
}

// TrainedModel 训练好的分类器及其元信息
type TrainedModel struct {
	Name               string
	FormatVersion      int
	CatalogFingerprint string
	CreatedAt          time.Time
	Metrics            Metrics
	TrainSamples       int
	TestSamples        int
	Classifier         *forest.Forest
}

// Header 产物头部，不需要解码分类器即可读取
type Header struct {
	Name               string    `json:"name"`
	FormatVersion      int       `json:"format_version"`
	CatalogFingerprint string    `json:"catalog_fingerprint"`
	CreatedAt          time.Time `json:"created_at"`
	Accuracy           float64   `json:"accuracy"`
	Recall             float64   `json:"recall"`
	Precision          float64   `json:"precision"`
	F1                 float64   `json:"f1"`
	OOBScore           float64   `json:"oob_score"`
	TrainSamples       int       `json:"train_samples"`
	TestSamples        int       `json:"test_samples"`
	PayloadEncoding    string    `json:"payload_encoding"`
}

// Metrics 头部中的指标
func (h *Header) Metrics() Metrics {
	return Metrics{
		Accuracy:  h.Accuracy,
		Recall:    h.Recall,
		Precision: h.Precision,
		F1:        h.F1,
		OOBScore:  h.OOBScore,
	}
}

func headerOf(m *TrainedModel) Header {
	return Header{
		Name:               m.Name,
		FormatVersion:      FormatVersion,
		CatalogFingerprint: m.CatalogFingerprint,
		CreatedAt:          m.CreatedAt.UTC(),
		Accuracy:           m.Metrics.Accuracy,
		Recall:             m.Metrics.Recall,
		Precision:          m.Metrics.Precision,
		F1:                 m.Metrics.F1,
		OOBScore:           m.Metrics.OOBScore,
		TrainSamples:       m.TrainSamples,
		TestSamples:        m.TestSamples,
		PayloadEncoding:    payloadEncoding,
	}
}
