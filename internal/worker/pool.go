package worker

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Pool 固定数量的 worker 并发执行同一个处理函数，结果按输入顺序返回
type Pool[T, R any] struct {
	workers int
	fn      func(ctx context.Context, item T) R
	logger  *logrus.Logger
}

// NewPool 创建 Worker 池，workers 小于 1 时按 1 处理
func NewPool[T, R any](workers int, fn func(ctx context.Context, item T) R, logger *logrus.Logger) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{
		workers: workers,
		fn:      fn,
		logger:  logger,
	}
}

// Workers worker 数量
func (p *Pool[T, R]) Workers() int {
	return p.workers
}

// Run 处理全部输入；onDone 在每个任务完成后串行回调（完成顺序）。
// ctx 取消后不再派发新任务，返回 ctx.Err()，已派发的任务仍会完成。
func (p *Pool[T, R]) Run(ctx context.Context, items []T, onDone func(index int, result R)) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, ctx.Err()
	}

	workers := p.workers
	if workers > len(items) {
		workers = len(items)
	}

	taskChan := make(chan int)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for idx := range taskChan {
				res := p.fn(ctx, items[idx])

				mu.Lock()
				results[idx] = res
				if onDone != nil {
					onDone(idx, res)
				}
				mu.Unlock()
			}
			p.logger.WithField("worker_id", id).Debug("Worker exiting")
		}(i)
	}

	var err error
dispatch:
	for idx := range items {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		case taskChan <- idx:
		}
	}
	close(taskChan)
	wg.Wait()

	return results, err
}
