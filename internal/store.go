package internal

import (
	"github.com/reelhouse/reeld/internal/database"
	"github.com/reelhouse/reeld/internal/reel"
)

type (
	// dataOrchestrator is responsible for managing reeld's persisted
	// resources. The stores below this layer are 'dumb' - they operate
	// against whatever Queryable they're handed - and this layer links
	// them to the database instance.
	dataOrchestrator struct {
		db        database.Manager
		ReelStore *reel.Store
	}
)

func newDataOrchestrator(db database.Manager) *dataOrchestrator {
	return &dataOrchestrator{
		db:        db,
		ReelStore: reel.NewStore(),
	}
}

func (orchestrator *dataOrchestrator) SaveReel(model *reel.Reel) error {
	return orchestrator.ReelStore.Save(orchestrator.db.GetSqlxDb(), model)
}

func (orchestrator *dataOrchestrator) GetReel(id string) (*reel.Reel, error) {
	return orchestrator.ReelStore.Get(orchestrator.db.GetSqlxDb(), id)
}

func (orchestrator *dataOrchestrator) GetReelByURL(sourceUrl string) (*reel.Reel, error) {
	return orchestrator.ReelStore.GetByURL(orchestrator.db.GetSqlxDb(), sourceUrl)
}

func (orchestrator *dataOrchestrator) ListReels() ([]*reel.Reel, error) {
	return orchestrator.ReelStore.List(orchestrator.db.GetSqlxDb())
}

func (orchestrator *dataOrchestrator) DeleteAllReels() (int64, error) {
	return orchestrator.ReelStore.DeleteAll(orchestrator.db.GetSqlxDb())
}
