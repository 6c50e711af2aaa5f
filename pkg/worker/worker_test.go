package worker_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/reelhouse/reeld/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Worker_RunsTaskUntilNoWorkThenSleeps(t *testing.T) {
	var executions atomic.Int32
	w := worker.NewWorker("test", func(worker.Worker) (bool, error) {
		// Report work done twice, then sleep
		return executions.Add(1) < 2, nil
	})

	done := make(chan struct{})
	go func() {
		w.Start()
		close(done)
	}()

	assert.EventuallyWithT(t, func(c *assert.CollectT) {
		assert.Equal(c, worker.Sleeping, w.Status())
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(2), executions.Load())

	// Waking the worker runs the task again
	w.WakeupChan() <- 1
	assert.EventuallyWithT(t, func(c *assert.CollectT) {
		assert.Equal(c, int32(3), executions.Load())
	}, time.Second, 10*time.Millisecond)

	w.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after close")
	}
	assert.Equal(t, worker.Finished, w.Status())
}

func Test_Worker_ExitsWhenTaskErrors(t *testing.T) {
	w := worker.NewWorker("test", func(worker.Worker) (bool, error) {
		return false, assert.AnError
	})

	done := make(chan struct{})
	go func() {
		w.Start()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after task error")
	}
	assert.Equal(t, worker.Finished, w.Status())
}

func Test_WorkerPool_WakesSleepingWorkers(t *testing.T) {
	var executions atomic.Int32
	pool := worker.NewWorkerPool()
	require.NoError(t, pool.PushWorker(
		worker.NewWorker("one", func(worker.Worker) (bool, error) { executions.Add(1); return false, nil }),
		worker.NewWorker("two", func(worker.Worker) (bool, error) { executions.Add(1); return false, nil }),
	))

	require.NoError(t, pool.Start())
	defer pool.Close()

	// Both workers run their task once on startup
	assert.EventuallyWithT(t, func(c *assert.CollectT) {
		assert.Equal(c, int32(2), executions.Load())
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, pool.WakeupWorkers())
	assert.EventuallyWithT(t, func(c *assert.CollectT) {
		assert.GreaterOrEqual(c, executions.Load(), int32(3))
	}, time.Second, 10*time.Millisecond)
}

func Test_WorkerPool_WakeupBeforeStartIsBuffered(t *testing.T) {
	var executions atomic.Int32
	gate := make(chan struct{})
	pool := worker.NewWorkerPool()
	require.NoError(t, pool.PushWorker(
		worker.NewWorker("one", func(worker.Worker) (bool, error) {
			if executions.Add(1) == 1 {
				// Simulate work in flight while another wakeup arrives
				<-gate
				return true, nil
			}

			return false, nil
		}),
	))

	// A wakeup before the pool starts must not error; the signal is held
	// on the workers channel
	require.NoError(t, pool.WakeupWorkers())

	require.NoError(t, pool.Start())
	defer pool.Close()

	assert.EventuallyWithT(t, func(c *assert.CollectT) {
		assert.Equal(c, int32(1), executions.Load())
	}, time.Second, 10*time.Millisecond)

	// Wakeup delivered while the worker is mid-task is retained, so the
	// worker re-checks for work after its current pass rather than stalling
	require.NoError(t, pool.WakeupWorkers())
	close(gate)
	assert.EventuallyWithT(t, func(c *assert.CollectT) {
		assert.GreaterOrEqual(c, executions.Load(), int32(3))
	}, time.Second, 10*time.Millisecond)
}

func Test_WorkerPool_RejectsMisuse(t *testing.T) {
	pool := worker.NewWorkerPool()

	require.NoError(t, pool.Start())
	defer pool.Close()

	assert.Error(t, pool.Start(), "starting a started pool must error")
	assert.Error(t, pool.PushWorker(worker.NewWorker("late", func(worker.Worker) (bool, error) { return false, nil })), "pushing to a started pool must error")
}
