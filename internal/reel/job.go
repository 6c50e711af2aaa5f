package reel

import (
	"context"
	"sync"
)

// Each state represents how far through the pipeline a job has
// progressed. A job moves strictly forwards through the working states
// before landing in exactly one of the terminal states.
type JobState int

const (
	// The job is waiting for a worker to claim it
	Idle JobState = iota

	// yt-dlp is fetching the source media
	Downloading

	// ffmpeg is producing the canonical video rendition
	Transcoding

	// ffmpeg is extracting the source audio track
	ExtractingAudio

	// ffprobe is reading metadata from the finished video
	Probing

	// Terminal: the reel is persisted and its artifacts are on disk
	Complete

	// Terminal: the pipeline failed; see the job's trouble
	Troubled

	// Terminal: the job was cancelled before it could finish
	Cancelled
)

func (state JobState) String() string {
	switch state {
	case Idle:
		return "IDLE"
	case Downloading:
		return "DOWNLOADING"
	case Transcoding:
		return "TRANSCODING"
	case ExtractingAudio:
		return "EXTRACTING_AUDIO"
	case Probing:
		return "PROBING"
	case Complete:
		return "COMPLETE"
	case Troubled:
		return "TROUBLED"
	case Cancelled:
		return "CANCELLED"
	}

	return "UNKNOWN"
}

type jobSubscriber interface {
	NotifyJobUpdate(jobID string)
	NotifyJobProgress(jobID string)
}

// Job tracks a single reel working its way through the pipeline. Many
// API requests may be waiting on the same job (concurrent submissions
// of the same URL are coalesced); each waits on the Done channel and
// reads the outcome once it closes.
type Job struct {
	ID        string
	SourceURL string

	mutex         sync.Mutex
	state         JobState
	progress      float64
	trouble       Trouble
	result        *Reel
	ctx           context.Context
	cancel        context.CancelFunc
	cancelRequest bool
	done          chan struct{}
	subscriber    jobSubscriber
}

func NewJob(id string, sourceUrl string, subscriber jobSubscriber) *Job {
	return &Job{
		ID:         id,
		SourceURL:  sourceUrl,
		state:      Idle,
		done:       make(chan struct{}),
		subscriber: subscriber,
	}
}

func (job *Job) State() JobState {
	job.mutex.Lock()
	defer job.mutex.Unlock()

	return job.state
}

func (job *Job) Progress() float64 {
	job.mutex.Lock()
	defer job.mutex.Unlock()

	return job.progress
}

// Done returns the channel which is closed once the job reaches a
// terminal state. After it closes, Outcome reports the result.
func (job *Job) Done() <-chan struct{} {
	return job.done
}

// Outcome returns the completed reel, or the trouble which halted the
// job. Only meaningful once the Done channel has closed.
func (job *Job) Outcome() (*Reel, Trouble) {
	job.mutex.Lock()
	defer job.mutex.Unlock()

	return job.result, job.trouble
}

// Cancel aborts this job. A job that no worker has claimed yet is
// concluded as Cancelled on the spot; a claimed job has its pipeline
// context cancelled and is concluded by the worker running it. Either
// way, waiters are released with a nil result. Cancelling a job that
// already reached a terminal state is a no-op.
func (job *Job) Cancel() {
	job.mutex.Lock()

	switch job.state {
	case Complete, Troubled, Cancelled:
		job.mutex.Unlock()
		return
	case Idle:
		job.state = Cancelled
		job.cancelRequest = true
		job.mutex.Unlock()

		close(job.done)
		job.subscriber.NotifyJobUpdate(job.ID)
		return
	}

	job.cancelRequest = true
	cancel := job.cancel
	job.mutex.Unlock()

	if cancel != nil {
		cancel()
	}
}

// cancelRequested reports whether Cancel has been called for this job,
// distinguishing a deliberate abort from a pipeline context expiring on
// its own (e.g. the download deadline).
func (job *Job) cancelRequested() bool {
	job.mutex.Lock()
	defer job.mutex.Unlock()

	return job.cancelRequest
}

// claim transitions an Idle job to Downloading, returning false if
// another worker got there first. The jobs context and cancel func are
// stored so the pipeline stages can be bounded and Cancel can interrupt
// them.
func (job *Job) claim(ctx context.Context, cancel context.CancelFunc) bool {
	job.mutex.Lock()
	defer job.mutex.Unlock()

	if job.state != Idle {
		return false
	}

	job.state = Downloading
	job.ctx = ctx
	job.cancel = cancel
	return true
}

func (job *Job) setState(state JobState) {
	job.mutex.Lock()
	job.state = state
	job.progress = 0
	job.mutex.Unlock()

	job.subscriber.NotifyJobUpdate(job.ID)
}

func (job *Job) setProgress(percent float64) {
	job.mutex.Lock()
	job.progress = percent
	job.mutex.Unlock()

	job.subscriber.NotifyJobProgress(job.ID)
}

// finish moves the job to its terminal state and releases all waiters.
func (job *Job) finish(state JobState, result *Reel, trouble Trouble) {
	job.mutex.Lock()
	job.state = state
	job.result = result
	job.trouble = trouble
	job.mutex.Unlock()

	close(job.done)
	job.subscriber.NotifyJobUpdate(job.ID)
}
