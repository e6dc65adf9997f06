package db

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	db        *sqlx.DB
	dbErr     error
	getDbOnce sync.Once
)

// GetDb returns a connection to POSTGRES_URL with the schema initialized. The
// connection is shared by all tests of the package.
func GetDb(t *testing.T) *sqlx.DB {
	t.Helper()

	getDbOnce.Do(func() {
		db, dbErr = Open(os.Getenv("POSTGRES_URL"))
		if dbErr != nil {
			return
		}
		dbErr = InitializeDatabaseSchema(db)
	})
	require.NoError(t, dbErr)

	return db
}

func StartPostgresContainer() (testcontainers.Container, string) {
	ctx := context.Background()
	dbName := "db"
	dbUser := "user"
	dbPassword := "password"

	postgresContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("docker.io/postgres:15.2-alpine"),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		panic(err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable", "application_name=test")
	if err != nil {
		panic(err)
	}

	return postgresContainer, connStr
}

// RunWithPostgres is a TestMain body for repository packages. It starts a
// container unless POSTGRES_URL already points at a database.
func RunWithPostgres(m *testing.M) int {
	if os.Getenv("POSTGRES_URL") != "" {
		return m.Run()
	}

	container, url := StartPostgresContainer()
	defer func() {
		if err := container.Terminate(context.Background()); err != nil {
			fmt.Printf("could not terminate postgres container: %s\n", err)
		}
	}()

	if err := os.Setenv("POSTGRES_URL", url); err != nil {
		panic(err)
	}

	return m.Run()
}

// TruncateTables clears every table of the schema.
func TruncateTables(t *testing.T, db *sqlx.DB) {
	t.Helper()

	_, err := db.Exec(`TRUNCATE tickets, ticket_history, ticket_sequences, event_settings RESTART IDENTITY`)
	require.NoError(t, err)
}
