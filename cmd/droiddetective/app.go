package main

import (
	"fmt"
	"io"
	"os"

	"github.com/apk-analysis/droid-detective/internal/catalog"
	"github.com/apk-analysis/droid-detective/internal/config"
	"github.com/apk-analysis/droid-detective/internal/dataset"
	"github.com/apk-analysis/droid-detective/internal/features"
	"github.com/apk-analysis/droid-detective/internal/middleware"
	"github.com/apk-analysis/droid-detective/internal/model"
	"github.com/apk-analysis/droid-detective/internal/predictor"
	"github.com/apk-analysis/droid-detective/internal/repository"
	"github.com/apk-analysis/droid-detective/internal/service"
	"github.com/apk-analysis/droid-detective/internal/staticanalysis"
	"github.com/apk-analysis/droid-detective/internal/trainer"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// app 一次命令执行所需的全部组件
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	store   *model.Store
	svc     *service.DetectorService
	metrics *middleware.PrometheusMetrics
	db      *gorm.DB
}

type appOptions struct {
	metrics  bool      // 注册 Prometheus 指标
	history  bool      // 按配置打开数据库
	progress io.Writer // 非空时训练期间显示进度条
}

func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, config.InitLogger(&cfg.Log, os.Stderr), nil
}

func newApp(opts appOptions) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, store: model.NewStore(cfg.Model.Path)}

	cat := catalog.Default()
	vec := features.NewVectorizer(cat)
	extractor := staticanalysis.NewManifestExtractor(staticanalysis.ManifestExtractorConfig{
		AaptPath: cfg.Extractor.AaptPath,
		UseAapt:  cfg.Extractor.UseAapt,
	}, logger)

	deps := service.Deps{
		Catalog:   cat,
		Extractor: extractor,
		Store:     a.store,
		Predictor: predictor.New(a.store, cat, vec, logger,
			predictor.WithImportanceReport(cfg.Model.ImportanceReport)),
		Trainer: trainer.Config{
			Trees:     cfg.Model.Trees,
			MaxDepth:  cfg.Model.MaxDepth,
			TestRatio: cfg.Model.TestRatio,
			Seed:      cfg.Model.Seed,
		},
		NormalDir:  cfg.Corpus.NormalDir,
		MalwareDir: cfg.Corpus.MalwareDir,
		Workers:    cfg.Corpus.Workers,
		Logger:     logger,
	}

	if opts.metrics {
		a.metrics = middleware.NewPrometheusMetrics(logger, "")
		deps.Recorder = a.metrics
	}

	if opts.history && cfg.Database.Enabled {
		db, err := repository.InitDB(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		a.db = db
		deps.ScanRepo = repository.NewScanRepository(db)
		deps.TrainingRepo = repository.NewTrainingRepository(db)
	}

	if opts.progress != nil {
		deps.Progress = newProgress(opts.progress, cfg.Corpus.NormalDir, cfg.Corpus.MalwareDir)
	}

	a.svc = service.NewDetectorService(deps)
	return a, nil
}

// Close 释放数据库连接
func (a *app) Close() {
	if a.db == nil {
		return
	}
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// newProgress 语料读取进度条，首次回调时才统计总数
func newProgress(w io.Writer, dirs ...string) func(dataset.SampleResult) {
	var bar *progressbar.ProgressBar
	return func(res dataset.SampleResult) {
		if bar == nil {
			bar = progressbar.NewOptions(dataset.CountArchives(dirs...),
				progressbar.OptionSetWriter(w),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Reading samples"),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(w)
				}),
			)
		}
		_ = bar.Add(1)
	}
}
