package reels

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/reelhouse/reeld/internal/api/util"
	"github.com/reelhouse/reeld/internal/reel"
)

type (
	CreateRequest struct {
		Url string `json:"url" validate:"required,url"`
	}

	// ReelDto is the response used by endpoints that return completed
	// reels. Artifact URLs are derived from the reel ID; AudioUrl is nil
	// when the source had no audio track.
	ReelDto struct {
		ID       string  `json:"id"`
		VideoUrl string  `json:"videoUrl"`
		AudioUrl *string `json:"audioUrl"`
		Duration float64 `json:"duration"`
		Width    int     `json:"width"`
		Height   int     `json:"height"`
	}

	// JobDto describes a reel which is still working its way through
	// the pipeline.
	JobDto struct {
		ID       string  `json:"id"`
		State    string  `json:"state"`
		Progress float64 `json:"progress"`
	}

	// Service is where this controller gets its information from; this is
	// typically the reel service.
	Service interface {
		CreateReel(ctx context.Context, sourceUrl string) (*reel.Reel, error)
		GetReel(id string) (*reel.Reel, error)
		ListReels() ([]*reel.Reel, error)
		Job(id string) (*reel.Job, error)
		CancelJob(id string) error
	}

	Controller struct {
		service  Service
		validate *validator.Validate
	}
)

func New(validate *validator.Validate, service Service) *Controller {
	return &Controller{service: service, validate: validate}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.POST("/", controller.create)
	eg.GET("/", controller.list)
	// The same param name must be used for every route in this position,
	// so ':id' may carry an artifact extension on GET
	eg.GET("/:id/", controller.get)
	eg.DELETE("/:id/", controller.cancel)
}

// create accepts a source URL and blocks until the reel for it is
// available - either served from cache, or produced by the pipeline. If
// the caller gives up (closed connection) the underlying job continues
// for the benefit of any other waiters.
func (controller *Controller) create(ec echo.Context) error {
	var createRequest CreateRequest
	if err := ec.Bind(&createRequest); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid body: %s", err.Error()))
	}

	if err := controller.validate.Struct(createRequest); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid body: %s", err.Error()))
	}

	model, err := controller.service.CreateReel(ec.Request().Context(), createRequest.Url)
	if err != nil {
		var trouble reel.Trouble
		if errors.As(err, &trouble) {
			return echo.NewHTTPError(http.StatusInternalServerError, trouble.Error())
		}

		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Failed to process reel: %s", err.Error()))
	}

	return ec.JSON(http.StatusOK, NewReelDto(model))
}

// list returns all the stored reels - represented as DTOs.
func (controller *Controller) list(ec echo.Context) error {
	models, err := controller.service.ListReels()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return ec.JSON(http.StatusOK, util.ApplyConversion(models, NewReelDto))
}

// get dispatches on the ':id' path param: '<id>.mp4' serves the video
// artifact, '<id>.wav' serves the audio artifact, and a bare '<id>'
// returns the reels metadata (or, if the reel is still being processed,
// the state of its job).
func (controller *Controller) get(ec echo.Context) error {
	file := ec.Param("id")

	if id, found := strings.CutSuffix(file, ".mp4"); found {
		return controller.serveVideo(ec, id)
	}

	if id, found := strings.CutSuffix(file, ".wav"); found {
		return controller.serveAudio(ec, id)
	}

	return controller.getMetadata(ec, file)
}

// cancel aborts the in-flight job with the given reel ID.
func (controller *Controller) cancel(ec echo.Context) error {
	if err := controller.service.CancelJob(ec.Param("id")); err != nil {
		if errors.Is(err, reel.ErrJobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("No job found for reel %s", ec.Param("id")))
		}

		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return ec.NoContent(http.StatusOK)
}

// serveVideo streams the transcoded video for the given reel.
// echo's File helper handles range requests, which clients rely on to
// scrub through the video.
func (controller *Controller) serveVideo(ec echo.Context, id string) error {
	model, err := controller.service.GetReel(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Reel %s does not exist", id))
	}

	return ec.File(model.VideoPath)
}

// serveAudio streams the extracted audio track for the given reel, if
// it has one.
func (controller *Controller) serveAudio(ec echo.Context, id string) error {
	model, err := controller.service.GetReel(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Reel %s does not exist", id))
	}

	if model.AudioPath == nil {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Reel %s has no audio track", id))
	}

	return ec.File(*model.AudioPath)
}

// getMetadata returns the stored reel metadata. If the reel isn't stored
// yet but a job for it is in flight, the job state is returned instead.
func (controller *Controller) getMetadata(ec echo.Context, id string) error {
	if model, err := controller.service.GetReel(id); err == nil {
		return ec.JSON(http.StatusOK, NewReelDto(model))
	}

	if job, err := controller.service.Job(id); err == nil {
		return ec.JSON(http.StatusOK, NewJobDto(job))
	}

	return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Reel %s does not exist", id))
}

func NewReelDto(model *reel.Reel) *ReelDto {
	var audioUrl *string
	if model.AudioPath != nil {
		url := "/reel/" + reel.AudioFileName(model.ID)
		audioUrl = &url
	}

	return &ReelDto{
		ID:       model.ID,
		VideoUrl: "/reel/" + reel.VideoFileName(model.ID),
		AudioUrl: audioUrl,
		Duration: model.DurationSecs,
		Width:    model.Width,
		Height:   model.Height,
	}
}

func NewJobDto(job *reel.Job) *JobDto {
	return &JobDto{
		ID:       job.ID,
		State:    job.State().String(),
		Progress: job.Progress(),
	}
}
