package testsupport

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	postgresOnce      sync.Once
	postgresContainer *PostgresContainer
	postgresError     error
)

// PostgresContainer wraps a testcontainers Postgres instance.
type PostgresContainer struct {
	container testcontainers.Container
	host      string
	port      string
}

// StartPostgres starts a shared Postgres container for the test run.
func StartPostgres(t *testing.T) *PostgresContainer {
	t.Helper()

	postgresOnce.Do(func() {
		ctx := context.Background()

		req := testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "blogqa_test",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections"),
			).WithDeadline(60 * time.Second),
		}

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			postgresError = fmt.Errorf("start postgres container: %w", err)
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			container.Terminate(ctx)
			postgresError = fmt.Errorf("get postgres host: %w", err)
			return
		}

		mappedPort, err := container.MappedPort(ctx, "5432/tcp")
		if err != nil {
			container.Terminate(ctx)
			postgresError = fmt.Errorf("get postgres port: %w", err)
			return
		}

		postgresContainer = &PostgresContainer{
			container: container,
			host:      host,
			port:      mappedPort.Port(),
		}
	})

	if postgresError != nil {
		t.Fatalf("postgres container failed: %v", postgresError)
	}

	return postgresContainer
}

// DSN returns the connection string for pgx.
func (c *PostgresContainer) DSN() string {
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/blogqa_test?sslmode=disable", c.host, c.port)
}
