package health

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type (
	HealthDto struct {
		Status   string            `json:"status"`
		HostAddr string            `json:"host_addr"`
		Tools    map[string]string `json:"tools"`
	}

	// Service reports the versions of the external tools the pipeline
	// shells out to.
	Service interface {
		ToolVersions(ctx context.Context) map[string]string
	}

	Controller struct {
		service  Service
		hostAddr string
	}
)

func New(service Service, hostAddr string) *Controller {
	return &Controller{service: service, hostAddr: hostAddr}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.GET("/", controller.get)
}

// get reports the gateway config and the versions of yt-dlp, ffmpeg
// and ffprobe. A tool which cannot be queried is reported as
// 'unavailable' rather than failing the whole check.
func (controller *Controller) get(ec echo.Context) error {
	return ec.JSON(http.StatusOK, &HealthDto{
		Status:   "healthy",
		HostAddr: controller.hostAddr,
		Tools:    controller.service.ToolVersions(ec.Request().Context()),
	})
}
