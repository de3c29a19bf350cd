package client

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rollcall/gradebook/internal/aggregate"
	"github.com/rollcall/gradebook/internal/handler"
	"github.com/rollcall/gradebook/internal/logging"
	"github.com/rollcall/gradebook/internal/record"
	"github.com/rollcall/gradebook/internal/schema"
	"github.com/rollcall/gradebook/internal/storage/csvfile"
	"github.com/rollcall/gradebook/internal/store"
)

func TestMain(m *testing.M) {
	logging.InitWithHandler(slog.NewTextHandler(io.Discard, nil))
	os.Exit(m.Run())
}

// newClient stands up a real handler over a temp file and points a Client
// at it.
func newClient(t *testing.T) *Client {
	t.Helper()

	s := schema.Default()
	gw := csvfile.New(filepath.Join(t.TempDir(), "data.csv"), s)
	if err := gw.EnsureFile(); err != nil {
		t.Fatal(err)
	}

	st := store.New(gw, s)
	engine := aggregate.New(s, &aggregate.Config{Workers: 2, Mode: aggregate.AbortOnError})

	srv := httptest.NewServer(handler.New(st, engine).Routes())
	t.Cleanup(srv.Close)

	return New(srv.URL)
}

func scores(english, maths, science string) map[string]string {
	return map[string]string{"english": english, "maths": maths, "science": science}
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	if err := c.Create(ctx, record.Record{ID: "101", Name: "Ravi", Fields: scores("90", "80", "70")}); err != nil {
		t.Fatalf("Create() = %v", err)
	}

	rec, err := c.Get(ctx, "101")
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if rec.Name != "Ravi" || rec.Fields["maths"] != "80" {
		t.Errorf("Get() = %+v", rec)
	}

	name := "Ravi K"
	rec, err = c.Update(ctx, "101", &name, map[string]string{"maths": "85"})
	if err != nil {
		t.Fatalf("Update() = %v", err)
	}
	if rec.Name != "Ravi K" || rec.Fields["maths"] != "85" {
		t.Errorf("Update() = %+v", rec)
	}

	set, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List() = %v", err)
	}
	if len(set) != 1 {
		t.Fatalf("List() returned %d records, want 1", len(set))
	}

	if err := c.Delete(ctx, "101"); err != nil {
		t.Fatalf("Delete() = %v", err)
	}
	if _, err := c.Get(ctx, "101"); err == nil {
		t.Error("Get() after delete = nil error, want not found")
	}
}

func TestClientAverages(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	if err := c.Create(ctx, record.Record{ID: "101", Name: "Ravi", Fields: scores("90", "80", "70")}); err != nil {
		t.Fatal(err)
	}
	if err := c.Create(ctx, record.Record{ID: "102", Name: "Meera", Fields: scores("100", "100", "99")}); err != nil {
		t.Fatal(err)
	}

	metrics, err := c.Averages(ctx)
	if err != nil {
		t.Fatalf("Averages() = %v", err)
	}
	if len(metrics) != 2 {
		t.Fatalf("Averages() returned %d metrics, want 2", len(metrics))
	}

	stats, err := c.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary() = %v", err)
	}
	if len(stats) != 3 {
		t.Fatalf("Summary() returned %d fields, want 3", len(stats))
	}
}

// The client surfaces the server's error message, not a bare status code.
func TestClientServerError(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	_, err := c.Get(ctx, "missing")
	if err == nil {
		t.Fatal("Get(missing) = nil error")
	}
	if !strings.Contains(err.Error(), "record not found") {
		t.Errorf("Get(missing) = %q, want the server's message", err)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("Get(missing) = %q, want the status code", err)
	}
}
