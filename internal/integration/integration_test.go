package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"exam-bot/internal/app"
	"exam-bot/internal/domain"
	pgbackend "exam-bot/internal/infra/postgres"
	pgmigrations "exam-bot/internal/infra/postgres/migrations"
	infraredis "exam-bot/internal/infra/redis"
	"exam-bot/internal/store"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestExamFlowOverPostgresAndRedis(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateCollections(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	s := store.New(pgbackend.NewBackend(pool), 5*time.Minute)
	if err := s.Bootstrap(ctx, domain.DefaultSubjects); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	conversations := infraredis.NewConversationStore(redisClient, "it", 5*time.Minute)
	dispatcher := app.NewDispatcher(conversations, s, nil, app.Options{
		AdminID:  1,
		Subjects: app.Catalog{{Name: "avto_test"}},
	})
	admin := app.User{ID: 1, FirstName: "Admin"}
	student := app.User{ID: 2, FirstName: "Bob"}

	for _, action := range []app.Action{
		app.ButtonAction{Command: app.ParseCommand("admin_add_question")},
		app.ButtonAction{Command: app.ParseCommand("add_avto_test")},
		app.ButtonAction{Command: app.ParseCommand("qtype_multiple_choice")},
		app.TextAction{Text: "What is 2 + 2?"},
		app.TextAction{Text: "3\n4\n5"},
		app.ButtonAction{Command: app.ParseCommand("correct_1")},
	} {
		if reply := dispatcher.Handle(ctx, admin, action); reply.Empty() {
			t.Fatalf("authoring step %+v was ignored", action)
		}
	}

	dispatcher.Handle(ctx, student, app.StartAction{})
	dispatcher.Handle(ctx, student, app.ButtonAction{Command: app.ParseCommand("subject_avto_test")})
	reply := dispatcher.Handle(ctx, student, app.ButtonAction{Command: app.ParseCommand("answer_1")})
	if reply.Outcome == nil || reply.Outcome.Score != 1 || !reply.Outcome.Saved {
		t.Fatalf("expected a saved 1/1 outcome, got %+v", reply.Outcome)
	}

	// a second store over the same database sees everything that was written
	reopened := store.New(pgbackend.NewBackend(pool), 0)
	stats, err := reopened.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Users != 1 || stats.CompletedTests != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	questions, err := reopened.Subject(ctx, "avto_test")
	if err != nil || len(questions) != 1 {
		t.Fatalf("expected one persisted question, got %v (%v)", questions, err)
	}
	if n, err := redisClient.Exists(ctx, "it:conversation:2").Result(); err != nil || n != 0 {
		t.Fatalf("expected no live conversation marker, got %d (%v)", n, err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "exam", "POSTGRES_PASSWORD": "exampass", "POSTGRES_DB": "examdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://exam:exampass@%s:%s/examdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateCollections(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
