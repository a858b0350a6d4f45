package dataset

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apk-analysis/droid-detective/internal/features"
	"github.com/apk-analysis/droid-detective/internal/staticanalysis"
	"github.com/apk-analysis/droid-detective/internal/worker"
	"github.com/sirupsen/logrus"
)

// ArchiveExtension 训练样本的扩展名（区分大小写）
const ArchiveExtension = ".apk"

// SampleResult 单个样本的处理结果
type SampleResult struct {
	Path    string
	Label   features.Label
	Package string
	Vector  features.Vector
	Err     error
}

// OK 样本是否处理成功
func (r SampleResult) OK() bool {
	return r.Err == nil
}

// BuildReport 数据集构建报告
type BuildReport struct {
	Benign   int
	Malware  int
	Failures []SampleResult
	Duration time.Duration
}

// Skipped 失败样本数
func (r *BuildReport) Skipped() int {
	return len(r.Failures)
}

// Recorder 样本处理指标
type Recorder interface {
	RecordSample(label string, ok bool)
}

// Option 构建器选项
type Option func(*Builder)

// WithProgress 每处理一个样本回调一次
func WithProgress(fn func(SampleResult)) Option {
	return func(b *Builder) {
		b.progress = fn
	}
}

// WithWorkers 并发提取样本，默认串行
func WithWorkers(n int) Option {
	return func(b *Builder) {
		b.workers = n
	}
}

// WithRecorder 设置指标记录器
func WithRecorder(r Recorder) Option {
	return func(b *Builder) {
		b.recorder = r
	}
}

// Builder 从良性 / 恶意两个样本目录构建数据集
type Builder struct {
	extractor  staticanalysis.Extractor
	vectorizer *features.Vectorizer
	logger     *logrus.Logger
	progress   func(SampleResult)
	recorder   Recorder
	workers    int
}

// NewBuilder 创建数据集构建器
func NewBuilder(extractor staticanalysis.Extractor, vectorizer *features.Vectorizer, logger *logrus.Logger, opts ...Option) *Builder {
	b := &Builder{
		extractor:  extractor,
		vectorizer: vectorizer,
		logger:     logger,
		workers:    1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build 遍历两个样本目录，单个样本失败只记录并跳过
func (b *Builder) Build(ctx context.Context, benignDir, malwareDir string) (*Dataset, *BuildReport, error) {
	start := time.Now()
	ds := New(b.vectorizer.Width(features.LabelNone))
	report := &BuildReport{}

	passes := []struct {
		dir   string
		label features.Label
	}{
		{benignDir, features.LabelBenign},
		{malwareDir, features.LabelMalware},
	}

	for _, pass := range passes {
		b.logger.WithFields(logrus.Fields{
			"dir":   pass.dir,
			"label": pass.label.String(),
		}).Info("Collecting corpus")

		if err := b.collect(ctx, pass.dir, pass.label, ds, report); err != nil {
			return nil, nil, err
		}
	}

	report.Duration = time.Since(start)

	b.logger.WithFields(logrus.Fields{
		"benign":      report.Benign,
		"malware":     report.Malware,
		"skipped":     report.Skipped(),
		"duration_ms": report.Duration.Milliseconds(),
	}).Info("Dataset built")

	return ds, report, nil
}

func (b *Builder) collect(ctx context.Context, root string, label features.Label, ds *Dataset, report *BuildReport) error {
	paths, err := b.walk(ctx, root)
	if err != nil {
		return err
	}

	pool := worker.NewPool(b.workers, func(ctx context.Context, path string) SampleResult {
		return b.process(ctx, path, label)
	}, b.logger)

	results, err := pool.Run(ctx, paths, func(_ int, result SampleResult) {
		if b.recorder != nil {
			b.recorder.RecordSample(label.String(), result.OK())
		}
		if b.progress != nil {
			b.progress(result)
		}
	})
	if err != nil {
		return err
	}

	// 按遍历顺序写入，保证行顺序与并发度无关
	for _, result := range results {
		if result.OK() {
			if err := ds.Append(result.Vector); err != nil {
				result.Err = err
			}
		}

		if !result.OK() {
			report.Failures = append(report.Failures, result)
			b.logger.WithError(result.Err).WithField("file", filepath.Base(result.Path)).Warn("Failed on file, skipping")
			continue
		}
		if label == features.LabelMalware {
			report.Malware++
		} else {
			report.Benign++
		}
	}
	return nil
}

// walk 收集目录下所有 .apk 文件，顺序与 WalkDir 一致
func (b *Builder) walk(ctx context.Context, root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("corpus %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus %s is not a directory", root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			b.logger.WithError(err).WithField("path", path).Warn("Skipping unreadable corpus entry")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ArchiveExtension) {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

// process 提取并编码单个样本
func (b *Builder) process(ctx context.Context, path string, label features.Label) (result SampleResult) {
	result = SampleResult{Path: path, Label: label}

	// 第三方解析器遇到畸形文件可能 panic
	defer func() {
		if r := recover(); r != nil {
			result.Vector = nil
			result.Err = fmt.Errorf("extractor panic: %v", r)
		}
	}()

	meta, err := b.extractor.Extract(ctx, path)
	if err != nil {
		result.Err = fmt.Errorf("extract: %w", err)
		return result
	}
	result.Package = meta.Package

	vec, err := b.vectorizer.Vectorize(meta, label)
	if err != nil {
		result.Err = fmt.Errorf("vectorize: %w", err)
		return result
	}
	result.Vector = vec
	return result
}

// CountArchives 统计目录下的样本文件数（用于进度显示）
func CountArchives(dirs ...string) int {
	total := 0
	for _, dir := range dirs {
		_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), ArchiveExtension) {
				total++
			}
			return nil
		})
	}
	return total
}
