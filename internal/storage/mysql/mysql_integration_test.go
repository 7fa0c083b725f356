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
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
	mysqlrepo "github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string     { return &s }
func pint(i int) *int           { return &i }
func pfloat(f float64) *float64 { return &f }

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

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
			"MYSQL_DATABASE=hotel",
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

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "hotel")

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

// ---------- the tests ----------

func TestRepo_MySQL_BookingAndCallback(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	b := domain.Booking{
		ID:            "bk-int-1",
		Mode:          domain.ModeGuest,
		HotelID:       11,
		CheckIn:       "2026-03-01",
		CheckOut:      "2026-03-05",
		RoomCount:     1,
		Adults:        2,
		TotalPrice:    500.5,
		Currency:      "TND",
		Status:        domain.BookingPending,
		PaymentStatus: domain.PaymentPending,
		Customer:      domain.Customer{FirstName: "Amine", LastName: "Ben Salah", Email: "amine@example.tn"},
		TokenHash:     pstr("a3f1c2d4e5a3f1c2d4e5a3f1c2d4e5a3f1c2d4e5a3f1c2d4e5a3f1c2d4e5a3f1"),
	}
	if err := repo.CreateBooking(ctx, b); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	got, err := repo.GetBooking(ctx, "bk-int-1")
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if got.TotalPrice != 500.5 || got.Customer.Email != "amine@example.tn" {
		t.Fatalf("unexpected booking: %+v", got)
	}
	if got.TokenHash == nil || *got.TokenHash != *b.TokenHash {
		t.Fatalf("token hash did not round-trip: %v", got.TokenHash)
	}

	p := domain.Payment{
		ID:          "p-int-1",
		BookingID:   "bk-int-1",
		OrderID:     "gw-int-1",
		OrderNumber: "bk-int-1-1",
		Amount:      500500,
		Currency:    "TND",
		Status:      domain.PaymentPending,
	}
	if err := repo.CreatePayment(ctx, p); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	if err := repo.ApplyCallback(ctx, "gw-int-1",
		domain.PaymentCaptured, domain.BookingConfirmed,
		pstr("A1B2C3"), pstr("411111******1111"),
	); err != nil {
		t.Fatalf("ApplyCallback: %v", err)
	}

	gp, err := repo.GetPaymentByOrderID(ctx, "gw-int-1")
	if err != nil {
		t.Fatalf("GetPaymentByOrderID: %v", err)
	}
	if gp.Status != domain.PaymentCaptured || gp.ApprovalCode == nil || *gp.ApprovalCode != "A1B2C3" {
		t.Fatalf("payment not reconciled: %+v", gp)
	}
	gb, err := repo.GetBooking(ctx, "bk-int-1")
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if gb.Status != domain.BookingConfirmed || gb.PaymentStatus != domain.PaymentCaptured {
		t.Fatalf("booking not reconciled: %+v", gb)
	}

	// Unknown order must change nothing and report not found.
	if err := repo.ApplyCallback(ctx, "gw-nope",
		domain.PaymentFailed, domain.BookingCancelled, nil, nil,
	); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepo_MySQL_ReferenceData(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	cities := []domain.City{
		{ID: 1, Name: "Tunis", Region: pstr("Grand Tunis")},
		{ID: 2, Name: "Hammamet", Region: pstr("Cap Bon")},
	}
	if err := repo.ReplaceCities(ctx, cities); err != nil {
		t.Fatalf("ReplaceCities: %v", err)
	}

	hotels := []domain.Hotel{
		{ID: 7, Name: "Dar El Medina", CityID: 1, Star: pint(4), Lat: pfloat(36.8), Lon: pfloat(10.17)},
	}
	if err := repo.UpsertHotels(ctx, hotels); err != nil {
		t.Fatalf("UpsertHotels: %v", err)
	}
	// Upsert again with changed fields; the row must be updated, not duplicated.
	hotels[0].Name = "Dar El Medina Spa"
	if err := repo.UpsertHotels(ctx, hotels); err != nil {
		t.Fatalf("UpsertHotels again: %v", err)
	}

	got, err := repo.ListHotels(ctx, 1)
	if err != nil {
		t.Fatalf("ListHotels: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Dar El Medina Spa" {
		t.Fatalf("unexpected hotels: %+v", got)
	}

	// A second wholesale replacement drops cities absent from the new list.
	if err := repo.ReplaceCities(ctx, cities[:1]); err != nil {
		t.Fatalf("ReplaceCities again: %v", err)
	}
	cs, err := repo.ListCities(ctx)
	if err != nil {
		t.Fatalf("ListCities: %v", err)
	}
	if len(cs) != 1 || cs[0].Name != "Tunis" {
		t.Fatalf("unexpected cities: %+v", cs)
	}
}

func TestRepo_MySQL_RateLimitWindow(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := repo.Allow(ctx, "client-a", 3, time.Minute)
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !ok {
			t.Fatalf("hit %d should be under limit", i+1)
		}
	}
	ok, err := repo.Allow(ctx, "client-a", 3, time.Minute)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatal("fourth hit must exceed limit 3")
	}

	// A different key has its own window.
	ok, err = repo.Allow(ctx, "client-b", 3, time.Minute)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !ok {
		t.Fatal("other keys must not share the counter")
	}
}
