package predictor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/apk-analysis/droid-detective/internal/catalog"
	"github.com/apk-analysis/droid-detective/internal/features"
	"github.com/apk-analysis/droid-detective/internal/model"
	"github.com/apk-analysis/droid-detective/internal/staticanalysis"
	"github.com/sirupsen/logrus"
)

// ErrCatalogMismatch 模型训练时使用的权限目录与当前目录不一致
var ErrCatalogMismatch = errors.New("model was trained with a different permission catalog")

// DefaultImportanceReport 特征重要性报告默认路径
const DefaultImportanceReport = "model_stats.json"

type state int

const (
	stateUnloaded state = iota
	stateLoaded
)

// Prediction 单个 APK 的预测结果
type Prediction struct {
	Label          features.Label
	IsMalware      bool
	Probability    float64 // 恶意类概率
	Metadata       *staticanalysis.Metadata
	Importances    []Importance
	ModelCreatedAt time.Time
}

// Option 预测器选项
type Option func(*Predictor)

// WithImportanceReport 设置重要性报告路径，空字符串表示不写
func WithImportanceReport(path string) Option {
	return func(p *Predictor) {
		p.importancePath = path
	}
}

// Predictor 加载模型并对 APK 打分
type Predictor struct {
	mu             sync.Mutex
	store          *model.Store
	catalog        *catalog.Catalog
	vectorizer     *features.Vectorizer
	logger         *logrus.Logger
	importancePath string

	state state
	model *model.TrainedModel
}

// New 创建预测器，初始为未加载状态
func New(store *model.Store, cat *catalog.Catalog, vectorizer *features.Vectorizer, logger *logrus.Logger, opts ...Option) *Predictor {
	p := &Predictor{
		store:          store,
		catalog:        cat,
		vectorizer:     vectorizer,
		logger:         logger,
		importancePath: DefaultImportanceReport,
		state:          stateUnloaded,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Loaded 模型是否已加载
func (p *Predictor) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == stateLoaded
}

// Model 当前模型，未加载时返回 nil
func (p *Predictor) Model() *model.TrainedModel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.model
}

// Ensure 从存储加载模型，已加载时直接返回
func (p *Predictor) Ensure() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensureLocked()
}

func (p *Predictor) ensureLocked() error {
	if p.state == stateLoaded {
		return nil
	}

	m, err := p.store.Load()
	if err != nil {
		if errors.Is(err, model.ErrModelNotFound) {
			return fmt.Errorf("no model found, please train model: %w", err)
		}
		return fmt.Errorf("load model: %w", err)
	}
	if err := p.checkCompatible(m); err != nil {
		return err
	}

	p.model = m
	p.state = stateLoaded

	p.logger.WithFields(logrus.Fields{
		"path":       p.store.Path(),
		"created_at": m.CreatedAt,
		"accuracy":   m.Metrics.Accuracy,
	}).Info("Model loaded")
	return nil
}

// Use 直接使用刚训练好的模型，不再读取文件
func (p *Predictor) Use(m *model.TrainedModel) error {
	if err := p.checkCompatible(m); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.model = m
	p.state = stateLoaded
	return nil
}

// checkCompatible 校验目录指纹和特征数
func (p *Predictor) checkCompatible(m *model.TrainedModel) error {
	if m == nil || m.Classifier == nil {
		return errors.New("model has no classifier")
	}
	if m.CatalogFingerprint != p.catalog.Fingerprint() {
		return fmt.Errorf("%w (model %.12s, runtime %.12s)", ErrCatalogMismatch, m.CatalogFingerprint, p.catalog.Fingerprint())
	}
	if want := len(p.catalog.FeatureNames()); m.Classifier.NumFeatures != want {
		return fmt.Errorf("%w: classifier expects %d features, catalog defines %d", ErrCatalogMismatch, m.Classifier.NumFeatures, want)
	}
	return nil
}

// Predict 对元数据打分，并刷新重要性报告
func (p *Predictor) Predict(ctx context.Context, meta *staticanalysis.Metadata) (*Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureLocked(); err != nil {
		return nil, err
	}
	m := p.model
	if err := p.checkCompatible(m); err != nil {
		return nil, err
	}

	row, err := p.vectorizer.Vectorize(meta, features.LabelNone)
	if err != nil {
		return nil, err
	}

	probs, err := m.Classifier.PredictProba(row)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	label := features.LabelBenign
	malwareProb := 0.0
	if len(probs) > int(features.LabelMalware) {
		malwareProb = probs[features.LabelMalware]
		if malwareProb > probs[features.LabelBenign] {
			label = features.LabelMalware
		}
	}

	importances := rankImportances(p.catalog.FeatureNames(), m.Classifier.FeatureImportances())
	if p.importancePath != "" {
		if err := writeImportances(p.importancePath, importances); err != nil {
			return nil, fmt.Errorf("write importance report: %w", err)
		}
	}

	p.logger.WithFields(logrus.Fields{
		"package":     meta.Package,
		"is_malware":  label == features.LabelMalware,
		"probability": malwareProb,
	}).Debug("Prediction done")

	return &Prediction{
		Label:          label,
		IsMalware:      label == features.LabelMalware,
		Probability:    malwareProb,
		Metadata:       meta,
		Importances:    importances,
		ModelCreatedAt: m.CreatedAt,
	}, nil
}

// PredictFile 提取 APK 元数据后打分
func (p *Predictor) PredictFile(ctx context.Context, extractor staticanalysis.Extractor, apkPath string) (*Prediction, error) {
	meta, err := extractor.Extract(ctx, apkPath)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", apkPath, err)
	}
	return p.Predict(ctx, meta)
}

// Importances 当前模型的特征重要性（升序）
func (p *Predictor) Importances() ([]Importance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureLocked(); err != nil {
		return nil, err
	}
	return rankImportances(p.catalog.FeatureNames(), p.model.Classifier.FeatureImportances()), nil
}
