package reel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/floostack/transcoder"
	"github.com/reelhouse/reeld/internal/event"
	"github.com/reelhouse/reeld/internal/ffmpeg"
	"github.com/reelhouse/reeld/internal/ytdlp"
	"github.com/reelhouse/reeld/pkg/logger"
	"github.com/reelhouse/reeld/pkg/worker"
)

var (
	log = logger.Get("ReelServ")

	ErrJobNotFound = errors.New("no job found")
)

type (
	DataStore interface {
		SaveReel(reel *Reel) error
		GetReel(id string) (*Reel, error)
		ListReels() ([]*Reel, error)
		DeleteAllReels() (int64, error)
	}

	// sourceDownloader fetches the source media for a reel. Satisfied by
	// ytdlp.Downloader.
	sourceDownloader interface {
		Download(ctx context.Context, url string, outputPath string, onProgress ytdlp.ProgressCallback) error
		Version(ctx context.Context) (string, error)
	}

	// mediaTranscoder produces reel artifacts and reads their metadata.
	// Satisfied by ffmpeg.Transcoder.
	mediaTranscoder interface {
		Transcode(ctx context.Context, inputPath string, outputPath string, options transcoder.Options, onProgress func(*ffmpeg.Progress)) error
		Probe(path string) (*ffmpeg.MediaInfo, error)
	}

	// ClearReport details what a storage clear removed, broken down by
	// artifact category.
	ClearReport struct {
		VideosRemoved  int   `json:"videos_removed"`
		AudioRemoved   int   `json:"audio_removed"`
		TmpRemoved     int   `json:"tmp_removed"`
		RecordsRemoved int64 `json:"records_removed"`
	}

	// reelService owns the pipeline which turns a source URL in to a
	// stored reel. It is responsible for:
	//   - Deduplicating requests so one URL is only ever processed once at a time
	//   - Running the download/transcode/extract/probe pipeline over a worker pool
	//   - Live-tracking and reporting of ongoing jobs over the event bus
	//   - Persistence of completed reels to the reel store
	reelService struct {
		mutex      sync.Mutex
		config     *Config
		jobs       []*Job
		runCtx     context.Context
		workerPool *worker.WorkerPool
		downloader sourceDownloader
		transcoder mediaTranscoder

		eventBus  event.EventCoordinator
		dataStore DataStore
	}
)

// New creates a new reelService, injecting all required stores. An error is
// returned if the storage directories cannot be created.
func New(config Config, eventBus event.EventCoordinator, dataStore DataStore) (*reelService, error) {
	for _, dir := range []string{config.VideoDir(), config.AudioDir(), config.TmpDir()} {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}

	if config.DownloadParallelism < 1 {
		config.DownloadParallelism = 1
	}

	return &reelService{
		config:     &config,
		jobs:       make([]*Job, 0),
		workerPool: worker.NewWorkerPool(),
		downloader: ytdlp.NewDownloader(config.YtDlpBinaryPath),
		transcoder: ffmpeg.NewTranscoder(&ffmpeg.Config{
			FfmpegBinPath:  config.FfmpegBinaryPath,
			FfprobeBinPath: config.FfprobeBinaryPath,
		}),
		eventBus:  eventBus,
		dataStore: dataStore,
	}, nil
}

// Run is the main entry point for this service. The worker pool is spun up
// and this method blocks until the provided context is cancelled, at which
// point in-flight jobs are abandoned and the pool is drained.
func (service *reelService) Run(ctx context.Context) error {
	service.mutex.Lock()
	service.runCtx = ctx
	for i := 0; i < service.config.DownloadParallelism; i++ {
		if err := service.workerPool.PushWorker(worker.NewWorker(fmt.Sprintf("reel:%d", i), service.processNextJob)); err != nil {
			service.mutex.Unlock()
			return err
		}
	}
	service.mutex.Unlock()

	if err := service.workerPool.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	log.Emit(logger.STOP, "Shutting down (context cancelled). Closing worker pool.\n")
	service.workerPool.Close()
	return nil
}

// CreateReel resolves a source URL to a completed reel. Previously
// completed reels whose artifacts are still on disk are returned
// immediately; otherwise the URL is queued for processing and this method
// blocks until the pipeline finishes, the request context expires, or the
// job fails.
//
// Concurrent requests for the same URL are coalesced on to a single job.
// Abandoning a request (ctx expiry) does NOT cancel the underlying job, as
// other callers may still be waiting on it.
func (service *reelService) CreateReel(ctx context.Context, sourceUrl string) (*Reel, error) {
	id := ID(sourceUrl)

	if existing, err := service.dataStore.GetReel(id); err == nil {
		if _, statErr := os.Stat(existing.VideoPath); statErr == nil {
			log.Emit(logger.DEBUG, "Reel %s served from cache\n", id)
			return existing, nil
		}

		log.Emit(logger.WARNING, "Reel %s known to store but artifact missing from disk... reprocessing\n", id)
	}

	job := service.getOrCreateJob(id, sourceUrl)
	if err := service.workerPool.WakeupWorkers(); err != nil {
		return nil, err
	}

	select {
	case <-job.Done():
		result, trouble := job.Outcome()
		if trouble != nil {
			return nil, trouble
		}
		if result == nil {
			return nil, fmt.Errorf("job for reel %s was cancelled", id)
		}

		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AllJobs returns a snapshot of the jobs currently known to the service.
func (service *reelService) AllJobs() []*Job {
	service.mutex.Lock()
	defer service.mutex.Unlock()

	jobs := make([]*Job, len(service.jobs))
	copy(jobs, service.jobs)
	return jobs
}

// Job returns the in-flight job with the matching reel ID, if any.
func (service *reelService) Job(id string) (*Job, error) {
	service.mutex.Lock()
	defer service.mutex.Unlock()

	for _, job := range service.jobs {
		if job.ID == id {
			return job, nil
		}
	}

	return nil, ErrJobNotFound
}

// CancelJob aborts the in-flight job with the matching reel ID.
func (service *reelService) CancelJob(id string) error {
	job, err := service.Job(id)
	if err != nil {
		return err
	}

	job.Cancel()

	// A job cancelled before any worker claimed it is concluded by Cancel
	// itself; no worker will remove it from the queue, so do that here.
	if job.State() == Cancelled {
		service.removeJob(id)
	}

	return nil
}

// GetReel returns the persisted reel with the given ID.
func (service *reelService) GetReel(id string) (*Reel, error) {
	return service.dataStore.GetReel(id)
}

// ListReels returns all persisted reels.
func (service *reelService) ListReels() ([]*Reel, error) {
	return service.dataStore.ListReels()
}

// ClearStorage removes every stored artifact (completed videos, audio
// tracks, and any leftover temporary downloads) along with the persisted
// reel records, and reports what was removed.
func (service *reelService) ClearStorage() (*ClearReport, error) {
	report := &ClearReport{}
	report.VideosRemoved = clearDir(service.config.VideoDir())
	report.AudioRemoved = clearDir(service.config.AudioDir())
	report.TmpRemoved = clearDir(service.config.TmpDir())

	records, err := service.dataStore.DeleteAllReels()
	if err != nil {
		return nil, err
	}
	report.RecordsRemoved = records

	log.Emit(logger.REMOVE, "Storage cleared: %d videos, %d audio tracks, %d tmp files, %d records\n",
		report.VideosRemoved, report.AudioRemoved, report.TmpRemoved, report.RecordsRemoved)
	service.eventBus.Dispatch(event.StorageClearEvent, nil)
	return report, nil
}

// ToolVersions queries the external binaries the pipeline depends on and
// returns their version strings. Binaries which cannot be queried are
// reported as "unavailable".
func (service *reelService) ToolVersions(ctx context.Context) map[string]string {
	versions := make(map[string]string, 3)

	if version, err := service.downloader.Version(ctx); err == nil {
		versions["yt-dlp"] = version
	} else {
		versions["yt-dlp"] = "unavailable"
	}

	for label, bin := range map[string]string{"ffmpeg": service.config.FfmpegBinaryPath, "ffprobe": service.config.FfprobeBinaryPath} {
		if version, err := ffmpeg.BinaryVersion(ctx, bin); err == nil {
			versions[label] = version
		} else {
			versions[label] = "unavailable"
		}
	}

	return versions
}

// getOrCreateJob coalesces requests on to in-flight jobs: if a job for
// this reel ID already exists it is returned, otherwise a new Idle job is
// queued.
func (service *reelService) getOrCreateJob(id string, sourceUrl string) *Job {
	service.mutex.Lock()
	defer service.mutex.Unlock()

	for _, job := range service.jobs {
		if job.ID == id {
			return job
		}
	}

	job := NewJob(id, sourceUrl, service)
	service.jobs = append(service.jobs, job)
	log.Emit(logger.NEW, "Queued job for reel %s (source %s)\n", id, sourceUrl)
	return job
}

// removeJob drops a finished job from the queue. Troubled and cancelled
// jobs are removed too so a subsequent request for the same URL retries
// from scratch.
func (service *reelService) removeJob(id string) {
	service.mutex.Lock()
	defer service.mutex.Unlock()

	for i, job := range service.jobs {
		if job.ID == id {
			service.jobs = append(service.jobs[:i], service.jobs[i+1:]...)
			return
		}
	}
}

// processNextJob is the worker pool task. It claims the next Idle job and
// runs the full pipeline against it, reporting whether any work was found.
func (service *reelService) processNextJob(w worker.Worker) (bool, error) {
	job, cancel := service.claimNextJob()
	if job == nil {
		return false, nil
	}
	defer cancel()

	// Announce the Idle->Downloading transition made by the claim
	service.NotifyJobUpdate(job.ID)
	service.processJob(job)
	service.removeJob(job.ID)
	return true, nil
}

func (service *reelService) claimNextJob() (*Job, context.CancelFunc) {
	service.mutex.Lock()
	defer service.mutex.Unlock()

	if service.runCtx == nil {
		return nil, nil
	}

	for _, job := range service.jobs {
		ctx, cancel := context.WithTimeout(service.runCtx, time.Duration(service.config.DownloadTimeoutSeconds)*time.Second)
		if job.claim(ctx, cancel) {
			return job, cancel
		}

		cancel()
	}

	return nil, nil
}

// processJob walks a claimed job through the pipeline stages, finishing it
// with either a completed reel or a trouble.
func (service *reelService) processJob(job *Job) {
	ctx := job.ctx
	rawPath := filepath.Join(service.config.TmpDir(), job.ID+".source.mp4")
	defer os.Remove(rawPath)

	finishTroubled := func(troubleType TroubleType, cause error) {
		if job.cancelRequested() {
			// Deliberately aborted rather than failed; distinguish so
			// waiters don't surface a pipeline error for a cancel. Other
			// context expiries (e.g. the download deadline) are genuine
			// failures and keep their typed trouble.
			log.Emit(logger.STOP, "Job for reel %s cancelled during %s\n", job.ID, job.State())
			job.finish(Cancelled, nil, nil)
			return
		}

		trouble := NewTrouble(troubleType, job.ID, cause)
		log.Emit(logger.ERROR, "%s\n", trouble.Error())
		job.finish(Troubled, nil, trouble)
	}

	log.Emit(logger.INFO, "Downloading source for reel %s\n", job.ID)
	err := service.downloader.Download(ctx, job.SourceURL, rawPath, func(percent float64) {
		job.setProgress(percent)
	})
	if err != nil {
		finishTroubled(DownloadFailure, err)
		return
	}

	job.setState(Transcoding)
	videoPath := service.config.VideoPath(job.ID)
	if err := service.transcoder.Transcode(ctx, rawPath, videoPath, ffmpeg.ReelVideoOptions(), func(progress *ffmpeg.Progress) {
		job.setProgress(progress.Progress)
	}); err != nil {
		finishTroubled(TranscodeFailure, err)
		return
	}

	// Audio extraction failure is non-fatal: some sources simply have no
	// audio track. The reel is stored without one.
	job.setState(ExtractingAudio)
	audioPath := service.config.AudioPath(job.ID)
	if err := service.transcoder.Transcode(ctx, rawPath, audioPath, ffmpeg.ReelAudioOptions(), nil); err != nil {
		if ctx.Err() != nil {
			finishTroubled(TranscodeFailure, err)
			return
		}

		log.Emit(logger.WARNING, "Audio extraction for reel %s failed (continuing without audio): %s\n", job.ID, err.Error())
		os.Remove(audioPath)
		audioPath = ""
	}

	job.setState(Probing)
	info, err := service.transcoder.Probe(videoPath)
	if err != nil {
		finishTroubled(ProbeFailure, err)
		return
	}

	reel := &Reel{
		ID:           job.ID,
		SourceURL:    job.SourceURL,
		DurationSecs: info.DurationSecs,
		Width:        info.Width,
		Height:       info.Height,
		HasAudio:     audioPath != "",
		VideoPath:    videoPath,
	}
	if audioPath != "" {
		reel.AudioPath = &audioPath
	}

	if err := service.dataStore.SaveReel(reel); err != nil {
		finishTroubled(DatabaseFailure, err)
		return
	}

	log.Emit(logger.SUCCESS, "Reel %s complete (%.1fs %dx%d audio=%v)\n", reel.ID, reel.DurationSecs, reel.Width, reel.Height, reel.HasAudio)
	job.finish(Complete, reel, nil)
	service.eventBus.Dispatch(event.ReelCompleteEvent, reel.ID)
}

// NotifyJobUpdate dispatches a state-change notification for the job over
// the event bus.
func (service *reelService) NotifyJobUpdate(jobID string) {
	service.eventBus.Dispatch(event.ReelUpdateEvent, jobID)
}

// NotifyJobProgress dispatches a progress notification for the job over
// the event bus.
func (service *reelService) NotifyJobProgress(jobID string) {
	service.eventBus.Dispatch(event.ReelProgressEvent, jobID)
}

func clearDir(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
			removed++
		}
	}

	return removed
}
