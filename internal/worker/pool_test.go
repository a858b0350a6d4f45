package worker

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// TestPool_Ordered 测试结果保持输入顺序
func TestPool_Ordered(t *testing.T) {
	var running, peak int32
	square := func(_ context.Context, n int) int {
		cur := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(time.Duration(10-n) * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return n * n
	}

	pool := NewPool(4, square, quietLogger())
	done := 0
	results, err := pool.Run(context.Background(), []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, func(int, int) { done++ })

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 4, 9, 16, 25, 36, 49, 64, 81}, results)
	assert.Equal(t, 10, done)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(4))
}

// TestPool_Empty 测试空输入
func TestPool_Empty(t *testing.T) {
	pool := NewPool(0, func(_ context.Context, s string) int { return len(s) }, quietLogger())
	assert.Equal(t, 1, pool.Workers())

	results, err := pool.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

// TestPool_Cancelled 测试取消后不再派发
func TestPool_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	pool := NewPool(1, func(_ context.Context, n int) int {
		if atomic.AddInt32(&calls, 1) == 2 {
			cancel()
		}
		return n
	}, quietLogger())

	_, err := pool.Run(ctx, make([]int, 50), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, atomic.LoadInt32(&calls), int32(50))
}
