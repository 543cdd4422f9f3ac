package e2e_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	postgresOnce    sync.Once
	postgresCleanup func()
	postgresDSN     string
	postgresErr     error
)

// getSharedPostgresDatabase returns the DSN of a PostgreSQL container shared
// by all E2E tests.
func getSharedPostgresDatabase(t *testing.T) string {
	t.Helper()

	postgresOnce.Do(func() {
		ctx := context.Background()

		container, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			postgresErr = fmt.Errorf("start postgres container: %w", err)
			return
		}

		postgresCleanup = func() {
			_ = testcontainers.TerminateContainer(container)
		}

		postgresDSN, postgresErr = container.ConnectionString(ctx, "sslmode=disable")
	})

	if postgresErr != nil {
		t.Fatalf("postgres unavailable: %v", postgresErr)
	}
	return postgresDSN
}
