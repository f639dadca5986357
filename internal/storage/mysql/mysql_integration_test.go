//go:build integration

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	mysqlrepo "triposo/internal/storage/mysql"
)

func TestRepo_MySQL_MissLog(t *testing.T) {
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=triposo",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/triposo?parseTime=true&charset=utf8mb4&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := mysqlrepo.New(db)
	ctx := context.Background()
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := repo.LogMiss(ctx, "location", "id=Atlantis"); err != nil {
			t.Fatalf("LogMiss: %v", err)
		}
	}
	if err := repo.LogMiss(ctx, "poi", "id=nothing"); err != nil {
		t.Fatalf("LogMiss: %v", err)
	}

	got, err := repo.ListMisses(ctx, 10)
	if err != nil {
		t.Fatalf("ListMisses: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 misses, got %d: %+v", len(got), got)
	}
	hits := map[string]int{}
	for _, m := range got {
		hits[m.Resource+"?"+m.Query] = m.Count
	}
	if hits["location?id=Atlantis"] != 3 || hits["poi?id=nothing"] != 1 {
		t.Fatalf("unexpected hit counts: %+v", hits)
	}
}
