package patientbatch

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/panjf2000/ants/v2"
)

// taskPool runs jobs on a bounded goroutine pool
type taskPool struct {
	pool *ants.Pool
}

//poolLogger routes the pool's own messages to the engine logger
type poolLogger struct{}

func (poolLogger) Printf(format string, args ...interface{}) {
	logger.Warn(context.Background(), format, args...)
}

func newTaskPool(size int) *taskPool {
	if size <= 0 {
		panic(fmt.Sprintf("task pool size must be positive, got:%v", size))
	}
	pool, err := ants.NewPool(size, ants.WithLogger(poolLogger{}))
	if err != nil {
		panic(fmt.Sprintf("create task pool of size:%v failed: %v", size, err))
	}
	return &taskPool{
		pool: pool,
	}
}

// Future get result in future
type Future interface {
	Get() (interface{}, error)
}

type futureImpl struct {
	ch <-chan interface{}
}

func (f *futureImpl) Get() (interface{}, error) {
	result := <-f.ch
	err := <-f.ch
	if err == nil {
		return result, nil
	}
	e, ok := err.(error)
	if ok {
		return result, e
	}
	return result, fmt.Errorf("future get err:%v", err)
}

func (pool *taskPool) Submit(ctx context.Context, task func() (interface{}, error)) Future {
	result := make(chan interface{}, 2)
	err := pool.pool.Submit(func() {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(ctx, "panic in task, err:%v, stack:%v", err, string(debug.Stack()))
				result <- nil
				result <- fmt.Errorf("panic:%v", err)
				close(result)
			}
		}()
		val, err := task()
		result <- val
		result <- err
		close(result)
	})
	if err != nil {
		result <- nil
		result <- err
		close(result)
	}
	return &futureImpl{
		ch: result,
	}
}

func (pool *taskPool) Release() {
	pool.pool.Release()
}

func (pool *taskPool) SetMaxSize(size int) {
	if size <= 0 {
		panic(fmt.Sprintf("task pool size must be positive, got:%v", size))
	}
	pool.pool.Tune(size)
}

func (pool *taskPool) MaxSize() int {
	return pool.pool.Cap()
}
