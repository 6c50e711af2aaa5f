package internal

import (
	"context"
	"fmt"
	"sync"

	"github.com/reelhouse/reeld/internal/api"
	"github.com/reelhouse/reeld/internal/database"
	"github.com/reelhouse/reeld/internal/event"
	"github.com/reelhouse/reeld/internal/reel"
	"github.com/reelhouse/reeld/pkg/logger"
)

var log = logger.Get("Core")

type (
	RunnableService interface {
		Run(context.Context) error
	}

	ReelService interface {
		RunnableService
		api.ReelService
	}
)

// reeldImpl represents the top-level object for the server, and is
// responsible for initialising the stores, services, event handling,
// et cetera...
type reeldImpl struct {
	eventBus event.EventCoordinator
	config   ReeldConfig

	dataOrchestrator *dataOrchestrator
	reelService      ReelService
	restGateway      RunnableService
}

func New(config ReeldConfig) *reeldImpl {
	log.Emit(logger.DEBUG, "Bootstrapping reeld services using config: %#v\n", config)
	reeld := &reeldImpl{
		eventBus: event.New(),
		config:   config,
	}

	return reeld
}

// Run will start reeld by bringing up all required services and connections:
// - Database connection (+ migrations)
// - Reel pipeline service
// - REST gateway (+ activity websocket)
//
// This function will not return until reeld is stopped.
// To stop reeld, the provided context must be cancelled. Errors from which
// reeld cannot recover will also cause it to stop.
func (reeld *reeldImpl) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	crashHandler := func(label string, err error) {
		log.Emit(logger.FATAL, "Service crash (%s)! %s\n", label, err.Error())
		cancel()
	}

	log.Emit(logger.NEW, "Connecting to database...\n")
	db := database.New()
	if err := db.Connect(reeld.config.Database); err != nil {
		return err
	}
	reeld.dataOrchestrator = newDataOrchestrator(db)

	if serv, err := reel.New(reeld.config.Reels, reeld.eventBus, reeld.dataOrchestrator); err == nil {
		reeld.reelService = serv
	} else {
		return fmt.Errorf("failed to construct reel service: %w", err)
	}

	reeld.restGateway = api.NewRestGateway(&reeld.config.API, reeld.reelService, reeld.eventBus)

	wg := &sync.WaitGroup{}
	reeld.spawnAsyncService(ctx, wg, reeld.reelService, "reel-service", crashHandler)
	reeld.spawnAsyncService(ctx, wg, reeld.restGateway, "rest-gateway", crashHandler)
	log.Emit(logger.SUCCESS, "reeld services spawned!\n")

	wg.Wait()
	return nil
}

// spawnAsyncService will run the provided function/service as it's own
// go-routine, ensuring that the reeld service waitgroup is updated correctly
func (reeld *reeldImpl) spawnAsyncService(context context.Context, wg *sync.WaitGroup, service RunnableService, serviceLabel string, crashHandler func(string, error)) {
	log.Emit(logger.NEW, "Spawning %s\n", serviceLabel)
	wg.Add(1)

	go func(wg *sync.WaitGroup, label string, crash func(string, error)) {
		defer func() {
			if r := recover(); r != nil {
				crash(label, fmt.Errorf("panic %v", r))
			}
		}()

		defer wg.Done()
		if err := service.Run(context); err != nil {
			crash(label, err)
		}
	}(wg, serviceLabel, crashHandler)
}
