//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"condo_calendar/internal/domain"
	mysqlrepo "condo_calendar/internal/storage/mysql"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	// package dir is internal/storage/mysql
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=condo",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/condo?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
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

	applyMigrations(t, db)
	return db
}

func TestRepo_MySQL_MirrorRoundTrip(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	first := []domain.Reservation{
		{ID: "9", GuestName: "Zoe", RoomNumber: "301", CheckIn: "2024-06-10T14:00:00", CheckOut: "2024-06-12", RawJSON: []byte(`{"id":9}`)},
		{ID: "2", GuestName: "Ana", RoomNumber: "101", ApartmentID: "11", Guests: 3, HasChildren: true, CheckIn: "2024-06-01", CheckOut: "2024-06-03"},
		{ID: "5", GuestName: "Gone", CheckIn: "2024-05-01", CheckOut: "2024-05-02"},
	}
	if err := repo.UpsertReservations(ctx, "c1", first); err != nil {
		t.Fatalf("UpsertReservations: %v", err)
	}
	if err := repo.UpsertReservations(ctx, "c2", first[:1]); err != nil {
		t.Fatalf("UpsertReservations c2: %v", err)
	}

	// a second sync drops id 5 and must keep backend order
	if err := repo.UpsertReservations(ctx, "c1", first[:2]); err != nil {
		t.Fatalf("UpsertReservations again: %v", err)
	}

	got, err := repo.ListReservations(ctx, "c1")
	if err != nil {
		t.Fatalf("ListReservations: %v", err)
	}
	if len(got) != 2 || got[0].ID != "9" || got[1].ID != "2" {
		t.Fatalf("unexpected order or rows: %+v", got)
	}
	if got[0].CheckIn != "2024-06-10T14:00:00" || len(got[0].RawJSON) == 0 {
		t.Fatalf("timestamps must round-trip as written: %+v", got[0])
	}
	if got[1].Guests != 3 || !got[1].HasChildren || got[1].ApartmentID != "11" || got[1].CondominiumID != "c1" {
		t.Fatalf("unexpected row: %+v", got[1])
	}

	other, err := repo.ListReservations(ctx, "c2")
	if err != nil || len(other) != 1 {
		t.Fatalf("other condominium must be untouched: %+v %v", other, err)
	}

	empty, err := repo.ListReservations(ctx, "nope")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty list, got %+v %v", empty, err)
	}

	countIssues := func(condo string) int {
		t.Helper()
		var n int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reservation_issues WHERE condominium_id = ?", condo).Scan(&n); err != nil {
			t.Fatalf("count issues: %v", err)
		}
		return n
	}
	issues := []domain.Issue{
		{CondominiumID: "c1", ReservationID: "5", Reason: "invalid_checkout", Detail: "empty timestamp"},
		{CondominiumID: "c1", ReservationID: "5", Reason: "invalid_checkout", Detail: "duplicate in payload"},
	}
	if err := repo.ReplaceIssues(ctx, "c1", issues); err != nil {
		t.Fatalf("ReplaceIssues: %v", err)
	}
	if err := repo.ReplaceIssues(ctx, "c2", issues[:1]); err != nil {
		t.Fatalf("ReplaceIssues c2: %v", err)
	}
	if n := countIssues("c1"); n != 1 {
		t.Fatalf("expected one c1 issue, got %d", n)
	}
	// a clean sync clears c1 and leaves c2 alone
	if err := repo.ReplaceIssues(ctx, "c1", nil); err != nil {
		t.Fatalf("ReplaceIssues empty: %v", err)
	}
	if n := countIssues("c1"); n != 0 {
		t.Fatalf("c1 issues should be cleared, got %d", n)
	}
	if n := countIssues("c2"); n != 1 {
		t.Fatalf("c2 issues must be untouched, got %d", n)
	}
	if err := repo.LogMiss(ctx, "c3", 404, "not found"); err != nil {
		t.Fatalf("LogMiss: %v", err)
	}
	if err := repo.LogMiss(ctx, "c3", 403, "forbidden"); err != nil {
		t.Fatalf("LogMiss twice: %v", err)
	}
	var status int
	if err := db.QueryRowContext(ctx, "SELECT http_status FROM sync_misses WHERE condominium_id = ?", "c3").Scan(&status); err != nil {
		t.Fatalf("read miss: %v", err)
	}
	if status != 403 {
		t.Fatalf("latest miss should win, got %d", status)
	}
}
