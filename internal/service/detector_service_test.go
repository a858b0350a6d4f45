package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apk-analysis/droid-detective/internal/catalog"
	"github.com/apk-analysis/droid-detective/internal/dataset"
	"github.com/apk-analysis/droid-detective/internal/domain"
	"github.com/apk-analysis/droid-detective/internal/features"
	"github.com/apk-analysis/droid-detective/internal/model"
	"github.com/apk-analysis/droid-detective/internal/predictor"
	"github.com/apk-analysis/droid-detective/internal/report"
	"github.com/apk-analysis/droid-detective/internal/retry"
	"github.com/apk-analysis/droid-detective/internal/staticanalysis"
	"github.com/apk-analysis/droid-detective/internal/trainer"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockScanRepository Mock Repository
type MockScanRepository struct {
	mock.Mock
}

func (m *MockScanRepository) Create(ctx context.Context, record *domain.ScanRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockScanRepository) FindByID(ctx context.Context, id string) (*domain.ScanRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScanRecord), args.Error(1)
}

func (m *MockScanRepository) FindBySHA256(ctx context.Context, sha256 string) ([]*domain.ScanRecord, error) {
	args := m.Called(ctx, sha256)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScanRecord), args.Error(1)
}

func (m *MockScanRepository) ListRecent(ctx context.Context, limit int) ([]*domain.ScanRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScanRecord), args.Error(1)
}

func (m *MockScanRepository) CountByVerdict(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

// MockTrainingRepository Mock Repository
type MockTrainingRepository struct {
	mock.Mock
}

func (m *MockTrainingRepository) Create(ctx context.Context, run *domain.TrainingRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockTrainingRepository) Latest(ctx context.Context) (*domain.TrainingRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrainingRun), args.Error(1)
}

func (m *MockTrainingRepository) List(ctx context.Context, limit int) ([]*domain.TrainingRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TrainingRun), args.Error(1)
}

// MockRecorder Mock 指标
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordSample(label string, ok bool) {
	m.Called(label, ok)
}

func (m *MockRecorder) ScanStarted() {
	m.Called()
}

func (m *MockRecorder) RecordPrediction(isMalware bool, duration time.Duration, err error) {
	m.Called(isMalware, duration, err)
}

func (m *MockRecorder) RecordTraining(duration time.Duration, metrics model.Metrics) {
	m.Called(duration, metrics)
}

func (m *MockRecorder) SetModelMetrics(metrics model.Metrics) {
	m.Called(metrics)
}

// jsonExtractor 测试用提取器：文件内容即 JSON 元数据
var jsonExtractor = staticanalysis.ExtractorFunc(func(_ context.Context, path string) (*staticanalysis.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta staticanalysis.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
})

type env struct {
	dir        string
	normalDir  string
	malwareDir string
	modelPath  string
	statsPath  string
}

func writeMeta(t *testing.T, path, pkg string, perms ...string) {
	t.Helper()
	data, err := json.Marshal(staticanalysis.Metadata{Package: pkg, SHA256: "sha-" + pkg, Permissions: perms})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// perClass 每类语料样本数
const perClass = 20

func newEnv(t *testing.T, withCorpus bool) *env {
	t.Helper()
	dir := t.TempDir()
	e := &env{
		dir:        dir,
		normalDir:  filepath.Join(dir, "normal"),
		malwareDir: filepath.Join(dir, "malware"),
		modelPath:  filepath.Join(dir, "apk_malware.model"),
		statsPath:  filepath.Join(dir, "model_stats.json"),
	}
	if withCorpus {
		require.NoError(t, os.MkdirAll(e.normalDir, 0o755))
		require.NoError(t, os.MkdirAll(e.malwareDir, 0o755))
		for i := 0; i < perClass; i++ {
			writeMeta(t, filepath.Join(e.normalDir, fmt.Sprintf("n%02d.apk", i)), "com.good", "android.permission.INTERNET")
			writeMeta(t, filepath.Join(e.malwareDir, fmt.Sprintf("m%02d.apk", i)), "com.bad",
				"android.permission.SEND_SMS_NO_CONFIRMATION", "android.permission.READ_SMS")
		}
	}
	return e
}

func (e *env) deps() Deps {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cat := catalog.Default()
	store := model.NewStore(e.modelPath)
	return Deps{
		Catalog:    cat,
		Extractor:  jsonExtractor,
		Store:      store,
		Predictor:  predictor.New(store, cat, features.NewVectorizer(cat), logger, predictor.WithImportanceReport(e.statsPath)),
		Trainer:    trainer.Config{Trees: 10, Seed: 3},
		NormalDir:  e.normalDir,
		MalwareDir: e.malwareDir,
		Logger:     logger,
	}
}

// TestDetectorService_TrainThenScan 测试首次运行训练后检测
func TestDetectorService_TrainThenScan(t *testing.T) {
	e := newEnv(t, true)
	svc := NewDetectorService(e.deps())
	ctx := context.Background()

	apk := filepath.Join(e.dir, "sample.apk")
	writeMeta(t, apk, "com.sms.stealer", "android.permission.SEND_SMS_NO_CONFIRMATION", "android.permission.READ_SMS")
	reportPath := filepath.Join(e.dir, "report.json")

	result, err := svc.Scan(ctx, apk, reportPath)
	require.NoError(t, err)
	assert.True(t, result.IsMalware)
	assert.Equal(t, "com.sms.stealer", result.Package)
	assert.Equal(t, domain.ScanSourceCLI, result.Source)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "Analysed file '"+apk+"', identified as malware!", result.Message())

	assert.FileExists(t, e.modelPath)
	assert.FileExists(t, e.statsPath)

	got, err := report.Read(reportPath)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"com.sms.stealer": true}, got)

	benign := filepath.Join(e.dir, "benign.apk")
	writeMeta(t, benign, "com.browser", "android.permission.INTERNET")
	result, err = svc.Scan(ctx, benign, reportPath)
	require.NoError(t, err)
	assert.False(t, result.IsMalware)
	assert.True(t, strings.HasSuffix(result.Message(), "identified as not malware."))

	got, err = report.Read(reportPath)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

// TestDetectorService_ReusesSavedModel 测试已有模型时不再训练
func TestDetectorService_ReusesSavedModel(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	trained, err := NewDetectorService(e.deps()).EnsureModel(ctx)
	require.NoError(t, err)
	require.NotNil(t, trained)
	assert.Equal(t, perClass, trained.Build.Benign)
	assert.Equal(t, perClass, trained.Build.Malware)

	// 删除样本目录后仍可使用已保存的模型
	require.NoError(t, os.RemoveAll(e.normalDir))
	require.NoError(t, os.RemoveAll(e.malwareDir))

	svc := NewDetectorService(e.deps())
	again, err := svc.EnsureModel(ctx)
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.True(t, svc.Predictor().Loaded())

	info, err := svc.ModelInfo()
	require.NoError(t, err)
	assert.Equal(t, model.Name, info.Name)
}

// TestDetectorService_CorpusMissing 测试没有模型也没有样本
func TestDetectorService_CorpusMissing(t *testing.T) {
	e := newEnv(t, false)
	svc := NewDetectorService(e.deps())

	apk := filepath.Join(e.dir, "x.apk")
	writeMeta(t, apk, "com.x")

	_, err := svc.Scan(context.Background(), apk, "")
	assert.ErrorIs(t, err, ErrCorpusMissing)
	assert.NoFileExists(t, e.modelPath)
}

// TestDetectorService_InvalidArguments 测试参数校验先于训练
func TestDetectorService_InvalidArguments(t *testing.T) {
	e := newEnv(t, true)
	svc := NewDetectorService(e.deps())
	ctx := context.Background()

	_, err := svc.Scan(ctx, filepath.Join(e.dir, "x.zip"), "")
	assert.ErrorIs(t, err, ErrInvalidPackage)

	apk := filepath.Join(e.dir, "x.apk")
	writeMeta(t, apk, "com.x")
	_, err = svc.Scan(ctx, apk, filepath.Join(e.dir, "report.txt"))
	assert.ErrorIs(t, err, report.ErrInvalidDestination)

	_, err = svc.Scan(ctx, filepath.Join(e.dir, "missing.apk"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)

	// 没有发生训练
	assert.NoFileExists(t, e.modelPath)
}

// TestDetectorService_History 测试检测记录写入
func TestDetectorService_History(t *testing.T) {
	e := newEnv(t, true)
	deps := e.deps()

	scanRepo := new(MockScanRepository)
	trainingRepo := new(MockTrainingRepository)
	deps.ScanRepo = scanRepo
	deps.TrainingRepo = trainingRepo
	deps.HistoryRetry = &retry.Config{MaxAttempts: 2, InitialInterval: time.Millisecond}

	trainingRepo.On("Create", mock.Anything, mock.MatchedBy(func(run *domain.TrainingRun) bool {
		return run.BenignSamples == perClass && run.MalwareSamples == perClass && run.SkippedSamples == 0
	})).Return(nil)
	scanRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.ScanRecord) bool {
		return r.PackageName == "com.bad.app" && r.IsMalware && r.Source == domain.ScanSourceAPI &&
			r.FileName == "upload.apk" && r.SHA256 == "sha-com.bad.app"
	})).Return(errors.New("db down"))

	svc := NewDetectorService(deps)
	apk := filepath.Join(e.dir, "3f2a.apk")
	writeMeta(t, apk, "com.bad.app", "android.permission.SEND_SMS_NO_CONFIRMATION", "android.permission.READ_SMS")

	// 写库失败不影响检测结果
	result, err := svc.Scan(context.Background(), apk, "", WithSource(domain.ScanSourceAPI), WithDisplayName("upload.apk"))
	require.NoError(t, err)
	assert.True(t, result.IsMalware)

	scanRepo.AssertExpectations(t)
	scanRepo.AssertNumberOfCalls(t, "Create", 2)
	trainingRepo.AssertExpectations(t)
	trainingRepo.AssertNumberOfCalls(t, "Create", 1)

	scanRepo.On("ListRecent", mock.Anything, 5).Return([]*domain.ScanRecord{{ID: "a"}}, nil)
	records, err := svc.History(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

// TestDetectorService_HistoryDisabled 测试未启用数据库
func TestDetectorService_HistoryDisabled(t *testing.T) {
	svc := NewDetectorService(newEnv(t, false).deps())

	_, err := svc.History(context.Background(), 10)
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	_, err = svc.TrainingRuns(context.Background(), 10)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}

// TestDetectorService_Recorder 测试指标上报
func TestDetectorService_Recorder(t *testing.T) {
	e := newEnv(t, true)
	deps := e.deps()
	rec := new(MockRecorder)
	deps.Recorder = rec

	rec.On("RecordSample", "benign", true).Return().Times(perClass)
	rec.On("RecordSample", "malware", true).Return().Times(perClass)
	rec.On("RecordTraining", mock.AnythingOfType("time.Duration"), mock.AnythingOfType("model.Metrics")).Return().Once()
	rec.On("ScanStarted").Return().Once()
	rec.On("RecordPrediction", false, mock.AnythingOfType("time.Duration"), nil).Return().Once()

	svc := NewDetectorService(deps)
	apk := filepath.Join(e.dir, "ok.apk")
	writeMeta(t, apk, "com.ok", "android.permission.INTERNET")

	_, err := svc.Scan(context.Background(), apk, "")
	require.NoError(t, err)
	rec.AssertExpectations(t)
}

// TestDetectorService_RetrainWithSkippedSamples 测试强制训练和失败样本
func TestDetectorService_RetrainWithSkippedSamples(t *testing.T) {
	e := newEnv(t, true)
	require.NoError(t, os.WriteFile(filepath.Join(e.malwareDir, "broken.apk"), []byte("not json"), 0o644))

	var progress []dataset.SampleResult
	deps := e.deps()
	deps.Progress = func(r dataset.SampleResult) { progress = append(progress, r) }

	svc := NewDetectorService(deps)
	result, err := svc.Train(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Build.Skipped())
	assert.Len(t, progress, 17)
	assert.Equal(t, 16, result.Model.TrainSamples+result.Model.TestSamples)
	assert.True(t, svc.Predictor().Loaded())
}
