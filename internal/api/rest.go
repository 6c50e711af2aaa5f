package api

import (
	"context"
	"net"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/reelhouse/reeld/internal/api/health"
	"github.com/reelhouse/reeld/internal/api/reels"
	"github.com/reelhouse/reeld/internal/api/storage"
	"github.com/reelhouse/reeld/internal/event"
	"github.com/reelhouse/reeld/internal/http/websocket"
	"github.com/reelhouse/reeld/internal/reel"
	"github.com/reelhouse/reeld/pkg/logger"
)

var log = logger.Get("API")

type (
	RestConfig struct {
		HostAddr string `yaml:"host_address" env:"HOST" env-default:"0.0.0.0"`
		HostPort string `yaml:"host_port" env:"PORT" env-default:"8000"`
	}

	controller interface {
		SetRoutes(*echo.Group)
	}

	// ReelService is the union of the controller and broadcaster
	// requirements; the reel service satisfies all of it.
	ReelService interface {
		reels.Service
		storage.Service
		health.Service
		AllJobs() []*reel.Job
	}

	// The RestGateway is a thin-wrapper around the Echo HTTP router. Its sole
	// responsibility is to create the routes reeld exposes, manage ongoing web
	// socket connections and events, and relay activity to connected clients.
	RestGateway struct {
		*broadcaster
		config            *RestConfig
		ec                *echo.Echo
		socket            *websocket.SocketHub
		eventBus          event.EventHandler
		reelController    controller
		storageController controller
		healthController  controller
	}
)

// ListenAddr combines the configured host address and port in to the
// address the gateway binds to.
func (config *RestConfig) ListenAddr() string {
	return net.JoinHostPort(config.HostAddr, config.HostPort)
}

// NewRestGateway constructs the Echo router and populates it with all the
// routes defined by the various controllers.
func NewRestGateway(config *RestConfig, service ReelService, eventBus event.EventHandler) *RestGateway {
	ec := echo.New()
	ec.OnAddRouteHandler = func(host string, route echo.Route, handler echo.HandlerFunc, middleware []echo.MiddlewareFunc) {
		log.Emit(logger.DEBUG, "Registered new route %s %s\n", route.Method, route.Path)
	}
	ec.HidePort = true
	ec.HideBanner = true

	validate := validator.New()
	socket := websocket.New()
	gateway := &RestGateway{
		broadcaster:       newBroadcaster(socket, service),
		config:            config,
		ec:                ec,
		socket:            socket,
		eventBus:          eventBus,
		reelController:    reels.New(validate, service),
		storageController: storage.New(service),
		healthController:  health.New(service, config.ListenAddr()),
	}
	gateway.bindSocketCommands(service)

	ec.Use(middleware.Logger())
	ec.Use(middleware.Recover())
	ec.Pre(middleware.AddTrailingSlash())

	ec.GET("/activity/ws/", func(ec echo.Context) error {
		gateway.socket.UpgradeToSocket(ec.Response(), ec.Request())
		return nil
	})

	reelGroup := ec.Group("/reel")
	gateway.reelController.SetRoutes(reelGroup)

	storageGroup := ec.Group("/storage")
	gateway.storageController.SetRoutes(storageGroup)

	healthGroup := ec.Group("/health")
	gateway.healthController.SetRoutes(healthGroup)

	return gateway
}

func (gateway *RestGateway) Run(parentCtx context.Context) error {
	ctx, ctxCancel := context.WithCancelCause(parentCtx)
	wg := &sync.WaitGroup{}

	// Start echo router
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := gateway.ec.Start(gateway.config.ListenAddr()); err != nil {
			ctxCancel(err)
		}
	}()

	// Start thread to listen for context cancellation
	go func(ec *echo.Echo) {
		<-ctx.Done()
		ec.Close()
	}(gateway.ec)

	// Start websocket
	wg.Add(1)
	go func() {
		defer wg.Done()
		gateway.socket.Start(ctx)
	}()

	// Relay reel activity from the event bus to connected clients
	eventChannel := make(event.HandlerChannel, 100)
	gateway.eventBus.RegisterHandlerChannel(eventChannel,
		event.ReelUpdateEvent, event.ReelProgressEvent, event.ReelCompleteEvent, event.StorageClearEvent)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case message := <-eventChannel:
				gateway.broadcastActivity(message)
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()

	// Return cancellation cause if any, otherwise nil as parent context
	// cancellation is not an error case we should report.
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}

	return nil
}
