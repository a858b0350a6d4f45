package trainer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/apk-analysis/droid-detective/internal/catalog"
	"github.com/apk-analysis/droid-detective/internal/dataset"
	"github.com/apk-analysis/droid-detective/internal/features"
	"github.com/apk-analysis/droid-detective/internal/forest"
	"github.com/apk-analysis/droid-detective/internal/model"
	"github.com/sirupsen/logrus"
)

// ErrInsufficientClasses 数据集缺少某一类样本
var ErrInsufficientClasses = errors.New("dataset must contain both classes with at least one sample each")

// Config 训练参数
type Config struct {
	Trees     int
	MaxDepth  int
	TestRatio float64
	Seed      int64 // 0 表示按时间生成
}

// DefaultConfig 默认参数：100 棵树，深度 50，20% 测试集
func DefaultConfig() Config {
	return Config{
		Trees:     100,
		MaxDepth:  50,
		TestRatio: 0.2,
	}
}

// Trainer 模型训练器
type Trainer struct {
	catalog *catalog.Catalog
	cfg     Config
	logger  *logrus.Logger
	now     func() time.Time
}

// Option 训练器选项
type Option func(*Trainer)

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(t *Trainer) {
		t.now = now
	}
}

// New 创建训练器
func New(cat *catalog.Catalog, cfg Config, logger *logrus.Logger, opts ...Option) *Trainer {
	def := DefaultConfig()
	if cfg.Trees <= 0 {
		cfg.Trees = def.Trees
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.TestRatio <= 0 || cfg.TestRatio >= 1 {
		cfg.TestRatio = def.TestRatio
	}

	t := &Trainer{
		catalog: cat,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Train 切分数据集、训练随机森林并在测试集上评估
func (t *Trainer) Train(ctx context.Context, ds *dataset.Dataset) (*model.TrainedModel, error) {
	if ds == nil {
		return nil, ErrInsufficientClasses
	}
	benign, malware := ds.ClassCounts()
	if benign == 0 || malware == 0 {
		return nil, fmt.Errorf("%w (benign=%d, malware=%d)", ErrInsufficientClasses, benign, malware)
	}
	if width := len(t.catalog.FeatureNames()); ds.Width != width {
		return nil, fmt.Errorf("dataset has %d feature columns, catalog defines %d", ds.Width, width)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seed := t.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	train, test := split(ds, t.cfg.TestRatio, rng)
	if trainBenign, trainMalware := train.ClassCounts(); trainBenign == 0 || trainMalware == 0 {
		t.logger.WithFields(logrus.Fields{
			"benign":  trainBenign,
			"malware": trainMalware,
		}).Warn("Training partition is missing a class")
	}

	t.logger.WithFields(logrus.Fields{
		"train":   train.Len(),
		"test":    test.Len(),
		"benign":  benign,
		"malware": malware,
		"trees":   t.cfg.Trees,
	}).Info("Training random forest")

	start := time.Now()
	clf, err := forest.Fit(train.Rows, train.Labels, forest.Config{
		NumTrees:        t.cfg.Trees,
		MaxDepth:        t.cfg.MaxDepth,
		MinSamplesSplit: 2,
		OOBScore:        true,
		Seed:            rng.Int63(),
		NumClasses:      2,
	})
	if err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}

	predicted, err := clf.PredictBatch(test.Rows)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	metrics, undefined := Evaluate(test.Labels, predicted)
	metrics.OOBScore = clf.OOBScore
	for _, name := range undefined {
		t.logger.WithField("metric", name).Warn("Metric is undefined on the test partition, reported as 0")
	}

	t.logger.WithFields(logrus.Fields{
		"accuracy":    metrics.Accuracy,
		"recall":      metrics.Recall,
		"precision":   metrics.Precision,
		"f1":          metrics.F1,
		"oob_score":   metrics.OOBScore,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Model trained")

	return &model.TrainedModel{
		Name:               model.Name,
		FormatVersion:      model.FormatVersion,
		CatalogFingerprint: t.catalog.Fingerprint(),
		CreatedAt:          t.now().UTC(),
		Metrics:            metrics,
		TrainSamples:       train.Len(),
		TestSamples:        test.Len(),
		Classifier:         clf,
	}, nil
}

// split 打乱后切分，测试集大小为 ceil(ratio * n)，训练集至少保留一个样本
func split(ds *dataset.Dataset, ratio float64, rng *rand.Rand) (train, test *dataset.Dataset) {
	n := ds.Len()
	nTest := int(math.Ceil(ratio * float64(n)))
	if nTest >= n {
		nTest = n - 1
	}

	perm := rng.Perm(n)
	return ds.Subset(perm[nTest:]), ds.Subset(perm[:nTest])
}

// Evaluate 计算准确率、召回率、精确率和 F1（正类为恶意）
//
// 分母为 0 的指标记为 0，并在 undefined 中返回其名称。
func Evaluate(actual, predicted []int) (m model.Metrics, undefined []string) {
	var tp, fp, fn, correct int
	positive := int(features.LabelMalware)
	for i := range actual {
		if actual[i] == predicted[i] {
			correct++
		}
		switch {
		case predicted[i] == positive && actual[i] == positive:
			tp++
		case predicted[i] == positive:
			fp++
		case actual[i] == positive:
			fn++
		}
	}

	if len(actual) > 0 {
		m.Accuracy = float64(correct) / float64(len(actual))
	} else {
		undefined = append(undefined, "accuracy")
	}

	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	} else {
		undefined = append(undefined, "recall")
	}

	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	} else {
		undefined = append(undefined, "precision")
	}

	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	} else {
		undefined = append(undefined, "f1")
	}
	return m, undefined
}
