package helpers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/reelhouse/reeld/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	Host     = "0.0.0.0"
	User     = "postgres"
	Password = "postgres"
	DBName   = "REELD_DB"
	Port     = "5432"
)

var (
	ctx = context.Background()

	containerLock sync.Mutex
	pgContainer   testcontainers.Container
)

// RequirePostgres spawns (or reuses) a postgres container for the test
// suite and returns a connected database manager with migrations already
// applied. The test is skipped entirely if docker is unavailable.
func RequirePostgres(t *testing.T) (database.Manager, database.DatabaseConfig) {
	containerLock.Lock()
	defer containerLock.Unlock()

	if pgContainer == nil {
		postgresC, err := postgres.RunContainer(ctx,
			testcontainers.WithImage("docker.io/postgres:14.1-alpine"),
			postgres.WithDatabase(DBName),
			postgres.WithUsername(User),
			postgres.WithPassword(Password),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
			testcontainers.WithHostConfigModifier(func(hostConfig *container.HostConfig) { hostConfig.NetworkMode = "host" }),
		)
		if err != nil {
			t.Skipf("skipping: failed to start postgres container (docker unavailable?): %s", err)
			return nil, database.DatabaseConfig{}
		}

		pgContainer = postgresC
	}

	config := database.DatabaseConfig{
		User:     User,
		Password: Password,
		Name:     DBName,
		Host:     Host,
		Port:     Port,
	}

	manager := database.New()
	if err := manager.Connect(config); err != nil {
		t.Fatalf("failed to connect to test database: %s", err)
	}

	return manager, config
}
