package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Strategy 重试间隔策略
type Strategy string

const (
	StrategyFixed       Strategy = "fixed"
	StrategyLinear      Strategy = "linear"
	StrategyExponential Strategy = "exponential"
)

// Config 重试配置
type Config struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Strategy        Strategy
	Timeout         time.Duration // 总超时，0 表示不限制
	Operation       string        // 日志中的操作名
	Logger          *logrus.Logger
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:     3,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Strategy:        StrategyExponential,
		Timeout:         5 * time.Minute,
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent 标记不应重试的错误
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Func 可重试的操作
type Func func(ctx context.Context) error

// Do 执行操作，失败时按策略等待后重试
func Do(ctx context.Context, config *Config, fn Func) error {
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry canceled: %w", err)
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.WithFields(logrus.Fields{
					"operation": config.Operation,
					"attempt":   attempt,
				}).Info("Operation succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		wait := nextInterval(config.Strategy, config.InitialInterval, config.MaxInterval, attempt)
		logger.WithError(err).WithFields(logrus.Fields{
			"operation": config.Operation,
			"attempt":   attempt,
			"max":       attempts,
			"wait":      wait,
		}).Warn("Operation failed, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry canceled during wait: %w", ctx.Err())
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("max attempts (%d) reached: %w", attempts, lastErr)
}

// DoWithResult 带返回值的 Do
func DoWithResult[T any](ctx context.Context, config *Config, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, config, func(ctx context.Context) error {
		res, err := fn(ctx)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	return result, err
}

func nextInterval(strategy Strategy, initial, max time.Duration, attempt int) time.Duration {
	next := initial
	switch strategy {
	case StrategyLinear:
		next = initial * time.Duration(attempt)
	case StrategyExponential:
		next = initial * time.Duration(1<<(attempt-1))
	}
	if max > 0 && next > max {
		next = max
	}
	return next
}
