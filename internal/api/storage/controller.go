package storage

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/reelhouse/reeld/internal/reel"
)

type (
	// Service is where this controller gets its information from; this is
	// typically the reel service.
	Service interface {
		ClearStorage() (*reel.ClearReport, error)
	}

	Controller struct {
		service Service
	}
)

func New(service Service) *Controller {
	return &Controller{service: service}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.POST("/clear/", controller.clear)
}

// clear removes every stored artifact and record, responding with the
// per-category removal counts.
func (controller *Controller) clear(ec echo.Context) error {
	report, err := controller.service.ClearStorage()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return ec.JSON(http.StatusOK, report)
}
