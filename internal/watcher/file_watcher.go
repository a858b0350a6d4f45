package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// FileHandler 文件处理函数
type FileHandler func(ctx context.Context, filePath string) error

// Option 监控器选项
type Option func(*FileWatcher)

// WithDebounce 设置防抖时间
func WithDebounce(d time.Duration) Option {
	return func(fw *FileWatcher) {
		if d > 0 {
			fw.debounce = d
		}
	}
}

// WithPollInterval 设置等待写入完成时的检查间隔
func WithPollInterval(d time.Duration) Option {
	return func(fw *FileWatcher) {
		if d > 0 {
			fw.pollInterval = d
		}
	}
}

// WithScanExisting 启动时处理目录中已有的文件
func WithScanExisting(enabled bool) Option {
	return func(fw *FileWatcher) {
		fw.scanExisting = enabled
	}
}

// FileWatcher 文件监控器
type FileWatcher struct {
	watcher      *fsnotify.Watcher
	watchDir     string
	pattern      string // 文件匹配模式 (如 "*.apk")
	handler      FileHandler
	logger       *logrus.Logger
	debounce     time.Duration
	pollInterval time.Duration
	scanExisting bool

	mu         sync.Mutex
	timers     map[string]*time.Timer
	processing map[string]bool
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopChan   chan struct{}
}

// NewFileWatcher 创建文件监控器
func NewFileWatcher(watchDir, pattern string, handler FileHandler, logger *logrus.Logger, opts ...Option) (*FileWatcher, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// 确保监控目录存在
	if err := os.MkdirAll(watchDir, 0o755); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to create watch directory: %w", err)
	}

	if err := watcher.Add(watchDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to add watch directory: %w", err)
	}

	fw := &FileWatcher{
		watcher:      watcher,
		watchDir:     watchDir,
		pattern:      pattern,
		handler:      handler,
		logger:       logger,
		debounce:     2 * time.Second,
		pollInterval: 500 * time.Millisecond,
		timers:       make(map[string]*time.Timer),
		processing:   make(map[string]bool),
		stopChan:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(fw)
	}

	logger.WithFields(logrus.Fields{
		"watch_dir": watchDir,
		"pattern":   pattern,
	}).Info("File watcher created")

	return fw, nil
}

// Start 启动文件监控
func (fw *FileWatcher) Start(ctx context.Context) error {
	if fw.scanExisting {
		if err := fw.scanExistingFiles(ctx); err != nil {
			return fmt.Errorf("scan existing files: %w", err)
		}
	}

	fw.wg.Add(1)
	go func() {
		defer fw.wg.Done()
		fw.eventLoop(ctx)
	}()

	fw.logger.Info("File watcher started")
	return nil
}

// Stop 停止监控并等待正在处理的文件完成
func (fw *FileWatcher) Stop() {
	fw.stopOnce.Do(func() {
		close(fw.stopChan)
		fw.mu.Lock()
		for name, timer := range fw.timers {
			if timer.Stop() {
				fw.wg.Done()
			}
			delete(fw.timers, name)
		}
		fw.mu.Unlock()
		fw.watcher.Close()
	})
	fw.wg.Wait()
}

func (fw *FileWatcher) scanExistingFiles(ctx context.Context) error {
	entries, err := os.ReadDir(fw.watchDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !fw.matchPattern(entry.Name()) {
			continue
		}
		fw.logger.WithField("file", entry.Name()).Info("Found existing file")
		fw.schedule(ctx, filepath.Join(fw.watchDir, entry.Name()))
	}
	return nil
}

// eventLoop 事件循环
func (fw *FileWatcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.stopChan:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// 只处理创建和写入事件
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !fw.matchPattern(filepath.Base(event.Name)) {
				continue
			}

			fw.logger.WithFields(logrus.Fields{
				"event": event.Op.String(),
				"file":  filepath.Base(event.Name),
			}).Debug("File event detected")

			fw.schedule(ctx, event.Name)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.WithError(err).Error("Watcher error")
		}
	}
}

// schedule 防抖: 同一文件在短时间内多次触发只处理一次
func (fw *FileWatcher) schedule(ctx context.Context, filePath string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	select {
	case <-fw.stopChan:
		return
	default:
	}

	if timer, exists := fw.timers[filePath]; exists {
		if timer.Stop() {
			fw.wg.Done()
		}
	}

	fw.wg.Add(1)
	fw.timers[filePath] = time.AfterFunc(fw.debounce, func() {
		defer fw.wg.Done()
		fw.mu.Lock()
		delete(fw.timers, filePath)
		fw.mu.Unlock()
		fw.handleFile(ctx, filePath)
	})
}

func (fw *FileWatcher) handleFile(ctx context.Context, filePath string) {
	fw.mu.Lock()
	if fw.processing[filePath] {
		fw.mu.Unlock()
		fw.logger.WithField("file", filePath).Debug("File is already being processed")
		return
	}
	fw.processing[filePath] = true
	fw.mu.Unlock()

	defer func() {
		fw.mu.Lock()
		delete(fw.processing, filePath)
		fw.mu.Unlock()
	}()

	if err := fw.waitForFileReady(ctx, filePath); err != nil {
		fw.logger.WithError(err).WithField("file", filePath).Warn("File not ready")
		return
	}

	if err := fw.handler(ctx, filePath); err != nil {
		fw.logger.WithError(err).WithField("file", filePath).Error("Failed to process file")
	}
}

// waitForFileReady 文件大小连续两次相同且非空视为写入完成
func (fw *FileWatcher) waitForFileReady(ctx context.Context, filePath string) error {
	const maxAttempts = 10

	var last int64 = -1
	for i := 0; i < maxAttempts; i++ {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file does not exist")
			}
			return err
		}
		if info.Size() > 0 && info.Size() == last {
			return nil
		}
		last = info.Size()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-fw.stopChan:
			return fmt.Errorf("watcher stopped")
		case <-time.After(fw.pollInterval):
		}
	}

	return fmt.Errorf("file not ready after %d attempts", maxAttempts)
}

// matchPattern 检查文件名是否匹配模式
func (fw *FileWatcher) matchPattern(fileName string) bool {
	ok, _ := filepath.Match(fw.pattern, fileName)
	return ok
}
