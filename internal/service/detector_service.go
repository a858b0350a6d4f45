package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/apk-analysis/droid-detective/internal/catalog"
	"github.com/apk-analysis/droid-detective/internal/dataset"
	"github.com/apk-analysis/droid-detective/internal/domain"
	"github.com/apk-analysis/droid-detective/internal/features"
	"github.com/apk-analysis/droid-detective/internal/model"
	"github.com/apk-analysis/droid-detective/internal/predictor"
	"github.com/apk-analysis/droid-detective/internal/report"
	"github.com/apk-analysis/droid-detective/internal/repository"
	"github.com/apk-analysis/droid-detective/internal/retry"
	"github.com/apk-analysis/droid-detective/internal/staticanalysis"
	"github.com/apk-analysis/droid-detective/internal/trainer"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidPackage 待检测文件不是 .apk
	ErrInvalidPackage = errors.New("package path must end with .apk")
	// ErrCorpusMissing 没有模型且训练样本目录不存在
	ErrCorpusMissing = errors.New("no model found and training corpus is missing: create a 'malware' and a 'normal' directory containing .apk samples, then run again")
	// ErrHistoryDisabled 未启用数据库
	ErrHistoryDisabled = errors.New("scan history is disabled")
)

// Recorder 业务指标
type Recorder interface {
	dataset.Recorder
	ScanStarted()
	RecordPrediction(isMalware bool, duration time.Duration, err error)
	RecordTraining(duration time.Duration, m model.Metrics)
	SetModelMetrics(m model.Metrics)
}

// Deps 检测服务依赖，ScanRepo / TrainingRepo / Recorder / Progress 可为空
type Deps struct {
	Catalog      *catalog.Catalog
	Extractor    staticanalysis.Extractor
	Store        *model.Store
	Predictor    *predictor.Predictor
	Trainer      trainer.Config
	NormalDir    string
	MalwareDir   string
	ScanRepo     repository.ScanRepository
	TrainingRepo repository.TrainingRepository
	Recorder     Recorder
	Progress     func(dataset.SampleResult)
	Workers      int           // 并发提取样本的 worker 数
	HistoryRetry *retry.Config // 写历史记录的重试策略，nil 使用默认值
	Logger       *logrus.Logger
}

// TrainResult 一次训练的结果
type TrainResult struct {
	Model    *model.TrainedModel
	Build    *dataset.BuildReport
	Duration time.Duration
}

// ScanResult 一次检测的结果
type ScanResult struct {
	ID             string
	APKPath        string
	Package        string
	AppName        string
	IsMalware      bool
	Probability    float64
	ReportPath     string
	Source         domain.ScanSource
	ModelCreatedAt time.Time
	ScannedAt      time.Time
	Metadata       *staticanalysis.Metadata
}

// Message 命令行输出的结论
func (r *ScanResult) Message() string {
	if r.IsMalware {
		return fmt.Sprintf("Analysed file '%s', identified as malware!", r.APKPath)
	}
	return fmt.Sprintf("Analysed file '%s', identified as not malware.", r.APKPath)
}

// ScanOption 检测选项
type ScanOption func(*scanOptions)

type scanOptions struct {
	source domain.ScanSource
	name   string
}

// WithSource 设置检测来源
func WithSource(source domain.ScanSource) ScanOption {
	return func(o *scanOptions) {
		o.source = source
	}
}

// WithDisplayName 记录原始文件名（上传文件落盘后会被重命名）
func WithDisplayName(name string) ScanOption {
	return func(o *scanOptions) {
		o.name = name
	}
}

// DetectorService 训练与检测流程
//
// 所有训练和检测都持有同一把锁，API 和目录监听可以共享一个预测器。
type DetectorService struct {
	deps       Deps
	vectorizer *features.Vectorizer
	mu         sync.Mutex
}

// NewDetectorService 创建检测服务
func NewDetectorService(deps Deps) *DetectorService {
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	vec := features.NewVectorizer(deps.Catalog)
	if deps.Predictor == nil {
		deps.Predictor = predictor.New(deps.Store, deps.Catalog, vec, deps.Logger)
	}
	return &DetectorService{
		deps:       deps,
		vectorizer: vec,
	}
}

// Predictor 当前使用的预测器
func (s *DetectorService) Predictor() *predictor.Predictor {
	return s.deps.Predictor
}

// EnsureModel 没有模型时用样本目录训练，返回的 TrainResult 仅在发生训练时非空
func (s *DetectorService) EnsureModel(ctx context.Context) (*TrainResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureModelLocked(ctx)
}

func (s *DetectorService) ensureModelLocked(ctx context.Context) (*TrainResult, error) {
	p := s.deps.Predictor
	if p.Loaded() {
		return nil, nil
	}

	if s.deps.Store.Exists() {
		if err := p.Ensure(); err != nil {
			return nil, err
		}
		if s.deps.Recorder != nil {
			s.deps.Recorder.SetModelMetrics(p.Model().Metrics)
		}
		return nil, nil
	}

	s.deps.Logger.WithField("path", s.deps.Store.Path()).Info("No model found, training a new one")
	return s.trainLocked(ctx)
}

// Train 强制重新训练并替换当前模型
func (s *DetectorService) Train(ctx context.Context) (*TrainResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trainLocked(ctx)
}

func (s *DetectorService) trainLocked(ctx context.Context) (*TrainResult, error) {
	if !isDir(s.deps.NormalDir) || !isDir(s.deps.MalwareDir) {
		return nil, fmt.Errorf("%w (normal=%s, malware=%s)", ErrCorpusMissing, s.deps.NormalDir, s.deps.MalwareDir)
	}

	start := time.Now()

	opts := []dataset.Option{}
	if s.deps.Progress != nil {
		opts = append(opts, dataset.WithProgress(s.deps.Progress))
	}
	if s.deps.Recorder != nil {
		opts = append(opts, dataset.WithRecorder(s.deps.Recorder))
	}
	if s.deps.Workers > 1 {
		opts = append(opts, dataset.WithWorkers(s.deps.Workers))
	}
	builder := dataset.NewBuilder(s.deps.Extractor, s.vectorizer, s.deps.Logger, opts...)

	ds, build, err := builder.Build(ctx, s.deps.NormalDir, s.deps.MalwareDir)
	if err != nil {
		return nil, fmt.Errorf("build dataset: %w", err)
	}

	m, err := trainer.New(s.deps.Catalog, s.deps.Trainer, s.deps.Logger).Train(ctx, ds)
	if err != nil {
		return nil, err
	}

	if err := s.deps.Store.Save(m); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}
	if err := s.deps.Predictor.Use(m); err != nil {
		return nil, err
	}

	result := &TrainResult{Model: m, Build: build, Duration: time.Since(start)}

	if s.deps.Recorder != nil {
		s.deps.Recorder.RecordTraining(result.Duration, m.Metrics)
	}
	s.recordTraining(ctx, result)

	s.deps.Logger.WithFields(logrus.Fields{
		"path":        s.deps.Store.Path(),
		"skipped":     build.Skipped(),
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("Model saved")

	return result, nil
}

func (s *DetectorService) recordTraining(ctx context.Context, result *TrainResult) {
	if s.deps.TrainingRepo == nil {
		return
	}
	m := result.Model
	run := &domain.TrainingRun{
		ModelPath:      s.deps.Store.Path(),
		Fingerprint:    m.CatalogFingerprint,
		BenignSamples:  result.Build.Benign,
		MalwareSamples: result.Build.Malware,
		SkippedSamples: result.Build.Skipped(),
		TrainSamples:   m.TrainSamples,
		TestSamples:    m.TestSamples,
		Accuracy:       m.Metrics.Accuracy,
		Recall:         m.Metrics.Recall,
		Precision:      m.Metrics.Precision,
		F1:             m.Metrics.F1,
		OOBScore:       m.Metrics.OOBScore,
		DurationMs:     result.Duration.Milliseconds(),
		CreatedAt:      m.CreatedAt,
	}
	if err := s.persist(ctx, "store training run", func(ctx context.Context) error {
		return s.deps.TrainingRepo.Create(ctx, run)
	}); err != nil {
		s.deps.Logger.WithError(err).Warn("Failed to store training run")
	}
}

// Scan 检测单个 APK，reportPath 非空时把结果合并进报告
func (s *DetectorService) Scan(ctx context.Context, apkPath, reportPath string, opts ...ScanOption) (*ScanResult, error) {
	o := scanOptions{source: domain.ScanSourceCLI}
	for _, opt := range opts {
		opt(&o)
	}

	// 参数校验在任何训练或读写之前完成
	if !strings.HasSuffix(apkPath, dataset.ArchiveExtension) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPackage, apkPath)
	}
	if reportPath != "" {
		if err := report.ValidateDestination(reportPath); err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(apkPath); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ensureModelLocked(ctx); err != nil {
		return nil, err
	}

	if s.deps.Recorder != nil {
		s.deps.Recorder.ScanStarted()
	}
	start := time.Now()
	pred, err := s.deps.Predictor.PredictFile(ctx, s.deps.Extractor, apkPath)
	if s.deps.Recorder != nil {
		isMalware := pred != nil && pred.IsMalware
		s.deps.Recorder.RecordPrediction(isMalware, time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}

	result := &ScanResult{
		ID:             uuid.New().String(),
		APKPath:        apkPath,
		Package:        pred.Metadata.Package,
		AppName:        pred.Metadata.AppName,
		IsMalware:      pred.IsMalware,
		Probability:    pred.Probability,
		ReportPath:     reportPath,
		Source:         o.source,
		ModelCreatedAt: pred.ModelCreatedAt,
		ScannedAt:      time.Now().UTC(),
		Metadata:       pred.Metadata,
	}

	if reportPath != "" {
		if err := report.Record(result.Package, result.IsMalware, reportPath); err != nil {
			return nil, fmt.Errorf("record report: %w", err)
		}
	}

	name := o.name
	if name == "" {
		name = filepath.Base(apkPath)
	}
	s.recordScan(ctx, result, name)

	s.deps.Logger.WithFields(logrus.Fields{
		"file":       name,
		"package":    result.Package,
		"is_malware": result.IsMalware,
		"source":     result.Source,
	}).Info("Package analysed")

	return result, nil
}

func (s *DetectorService) recordScan(ctx context.Context, result *ScanResult, name string) {
	if s.deps.ScanRepo == nil {
		return
	}
	meta := result.Metadata
	record := &domain.ScanRecord{
		ID:             result.ID,
		PackageName:    result.Package,
		AppName:        result.AppName,
		FileName:       name,
		FileSize:       meta.FileSize,
		SHA256:         meta.SHA256,
		IsMalware:      result.IsMalware,
		Probability:    result.Probability,
		PermissionCnt:  len(meta.Permissions),
		Source:         result.Source,
		ReportPath:     result.ReportPath,
		ModelCreatedAt: result.ModelCreatedAt,
		ScannedAt:      result.ScannedAt,
	}
	if err := s.persist(ctx, "store scan record", func(ctx context.Context) error {
		return s.deps.ScanRepo.Create(ctx, record)
	}); err != nil {
		s.deps.Logger.WithError(err).WithField("package", result.Package).Warn("Failed to store scan record")
	}
}

// persist 历史记录写入失败时重试，最终失败只记日志
func (s *DetectorService) persist(ctx context.Context, op string, fn retry.Func) error {
	cfg := s.deps.HistoryRetry
	if cfg == nil {
		cfg = &retry.Config{
			MaxAttempts:     3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Strategy:        retry.StrategyExponential,
			Timeout:         10 * time.Second,
		}
	}
	attempt := *cfg
	attempt.Operation = op
	if attempt.Logger == nil {
		attempt.Logger = s.deps.Logger
	}
	return retry.Do(ctx, &attempt, fn)
}

// History 最近的检测记录
func (s *DetectorService) History(ctx context.Context, limit int) ([]*domain.ScanRecord, error) {
	if s.deps.ScanRepo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.deps.ScanRepo.ListRecent(ctx, limit)
}

// TrainingRuns 最近的训练记录
func (s *DetectorService) TrainingRuns(ctx context.Context, limit int) ([]*domain.TrainingRun, error) {
	if s.deps.TrainingRepo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.deps.TrainingRepo.List(ctx, limit)
}

// ModelInfo 当前模型文件的头部信息
func (s *DetectorService) ModelInfo() (*model.Header, error) {
	return s.deps.Store.ReadHeader()
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
