package tgl

import (
	"context"

	"golang.org/x/sync/errgroup"
)

//Task is a unit of work executed by a Pool.
type Task interface {
	Execute(ctx context.Context) error
}

//Pool runs tasks on a bounded number of goroutines. The first task error, or the
//cancellation of the parent context, cancels the tasks that have not started yet.
type Pool struct {
	ctx    context.Context
	group  *errgroup.Group
	closed bool
}

//NewPool creates a pool with threadsNum workers.
func NewPool(ctx context.Context, threadsNum int) *Pool {
	if threadsNum < 1 {
		threadsNum = 1
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(threadsNum)
	return &Pool{ctx: groupCtx, group: group}
}

//AddTask schedules a task. It blocks while all workers are busy.
func (pool *Pool) AddTask(task Task) {
	if pool.closed {
		panic("tigress: AddTask on a closed pool")
	}
	pool.group.Go(func() error {
		if err := pool.ctx.Err(); err != nil {
			return err
		}
		return task.Execute(pool.ctx)
	})
}

//Close forbids new tasks.
func (pool *Pool) Close() {
	pool.closed = true
}

//WaitAll blocks until every scheduled task is finished and returns the first error.
func (pool *Pool) WaitAll() error {
	return pool.group.Wait()
}
