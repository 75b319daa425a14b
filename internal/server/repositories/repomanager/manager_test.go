package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophsecrets/internal/common"
	"github.com/dmitrijs2005/gophsecrets/internal/logging"
	"github.com/dmitrijs2005/gophsecrets/internal/server/migrations"
	"github.com/dmitrijs2005/gophsecrets/internal/server/models"
	"github.com/dmitrijs2005/gophsecrets/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Postgres(t *testing.T) {
	db, m, err := Open("postgres://u:p@localhost:5432/secrets?sslmode=disable")
	require.NoError(t, err)
	defer db.Close()

	_, ok := m.(*PostgresRepositoryManager)
	assert.True(t, ok, "postgres dsn must select the postgres manager")

	var _ users.Repository = m.Users(db)
}

func TestOpen_SQLiteMemory_MigratesAndStores(t *testing.T) {
	db, m, err := Open("sqlite://:memory:")
	require.NoError(t, err)
	defer db.Close()

	_, ok := m.(*SQLiteRepositoryManager)
	require.True(t, ok, "sqlite dsn must select the sqlite manager")

	ctx := context.Background()
	require.NoError(t, m.RunMigrations(ctx, db))
	require.NoError(t, m.RunMigrations(ctx, db), "migrations must be idempotent")

	repo := m.Users(db)
	u, err := repo.Create(ctx, &models.User{Email: "alice@x.com", Name: "Alice", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.User{Email: "alice@x.com", Name: "Bob", PasswordHash: "h"})
	assert.True(t, errors.Is(err, common.ErrorAlreadyExists))

	got, err := repo.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
}

func TestOpen_Unsupported(t *testing.T) {
	_, _, err := Open("mysql://root:hunter2@db/secrets")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnsupportedDSN))
	assert.NotContains(t, err.Error(), "hunter2", "credentials must not leak into errors")
}

func TestRunMigrations_Postgres_UsesDialectDir(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, NewPostgresRepositoryManager().RunMigrations(context.Background(), db))
	assert.Equal(t, migrations.PostgresDir, gotDir)
}

func TestRunMigrations_Error(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	err = NewSQLiteRepositoryManager().RunMigrations(context.Background(), db)
	assert.EqualError(t, err, "boom")
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "mysql://...", redactDSN("mysql://root:pw@h/db"))
	assert.Equal(t, "short", redactDSN("short"))
	assert.Equal(t, "users.db...", redactDSN("users.db?x=1"))
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingLogger) record(level, msg string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, fmt.Sprint(level, " ", msg, " ", args))
}

func (r *recordingLogger) Debug(_ context.Context, msg string, args ...any) {
	r.record("DEBUG", msg, args)
}
func (r *recordingLogger) Info(_ context.Context, msg string, args ...any) {
	r.record("INFO", msg, args)
}
func (r *recordingLogger) Warn(_ context.Context, msg string, args ...any) {
	r.record("WARN", msg, args)
}
func (r *recordingLogger) Error(_ context.Context, msg string, args ...any) {
	r.record("ERROR", msg, args)
}
func (r *recordingLogger) With(...any) logging.Logger { return r }

func TestSetLogger_RoutesMigrationOutput(t *testing.T) {
	rec := &recordingLogger{}
	SetLogger(rec)
	t.Cleanup(func() { SetLogger(logging.Nop{}) })

	db, m, err := Open("sqlite://:memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, m.RunMigrations(context.Background(), db))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	joined := strings.Join(rec.lines, "\n")
	assert.Contains(t, joined, "INFO")
	assert.Contains(t, joined, "00001_create_users.sql")
}
