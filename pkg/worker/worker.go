package worker

import "github.com/reelhouse/reeld/pkg/logger"

var workerLogger = logger.Get("Worker")

type WorkerWakeupChan chan int

type WorkerStatus int

const (
	Sleeping WorkerStatus = iota
	Working
	Finished
)

// Task is the function a worker executes when woken. The boolean return
// indicates whether any work was performed; a worker keeps calling its
// task until it reports no work remaining, at which point it sleeps
// until woken again.
type Task func(Worker) (bool, error)

type Worker interface {
	Start()
	Status() WorkerStatus
	WakeupChan() WorkerWakeupChan
	Label() string
	Sleep() bool
	Close()
}

type taskWorker struct {
	label         string
	task          Task
	wakeupChan    WorkerWakeupChan
	currentStatus WorkerStatus
}

func NewWorker(label string, task Task) *taskWorker {
	return &taskWorker{
		label: label,
		task:  task,
		// Buffered so a wakeup arriving while the worker is mid-task is
		// held until it next sleeps, rather than being dropped.
		wakeupChan:    make(WorkerWakeupChan, 1),
		currentStatus: Sleeping,
	}
}

// Start runs the workers main loop; the task is called repeatedly until
// it reports no work remaining, then the worker sleeps until it's woken
// via the wakeup channel. Start only returns once the wakeup channel is
// closed, or the task returns an error.
func (worker *taskWorker) Start() {
	workerLogger.Emit(logger.NEW, "Starting worker with label %v\n", worker.label)
	worker.currentStatus = Working

	for {
		for {
			didWork, err := worker.task(worker)
			if err != nil {
				workerLogger.Emit(logger.ERROR, "Worker %v has reported an error(%T): %v\n", worker.label, err, err.Error())
				worker.currentStatus = Finished
				return
			}

			if !didWork {
				break
			}
		}

		if !worker.Sleep() {
			return
		}
	}
}

// Status returns the current status of this worker
func (worker *taskWorker) Status() WorkerStatus {
	return worker.currentStatus
}

func (worker *taskWorker) WakeupChan() WorkerWakeupChan {
	return worker.wakeupChan
}

// Close closes the Worker by closing the WakeChan.
// Note that this does not interupt currently running
// goroutines.
func (worker *taskWorker) Close() {
	close(worker.wakeupChan)
}

// Label returns the label for this worker
func (worker *taskWorker) Label() string {
	return worker.label
}

// Sleep puts a worker to sleep until it's wakeupChan is
// signalled from another goroutine. Returns a boolean that
// is 'false' if the wakeup channel was closed - indicating
// the worker should quit.
func (worker *taskWorker) Sleep() (isAlive bool) {
	worker.currentStatus = Sleeping

	if _, isAlive = <-worker.wakeupChan; isAlive {
		worker.currentStatus = Working
	} else {
		workerLogger.Emit(logger.STOP, "Wakeup channel for worker '%v' has been closed - worker is exiting\n", worker.label)
		worker.currentStatus = Finished
	}

	return isAlive
}
