package csvfile

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rollcall/gradebook/internal/errors"
	"github.com/rollcall/gradebook/internal/record"
	"github.com/rollcall/gradebook/internal/schema"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "data.csv"), schema.Default())
}

func sampleSet() record.Set {
	return record.Set{
		{ID: "101", Name: "Ravi", Fields: map[string]string{"english": "90", "maths": "80", "science": "70"}},
		{ID: "102", Name: "Meera", Fields: map[string]string{"english": "100", "maths": "100", "science": "99"}},
		{ID: "103", Name: "Arun", Fields: map[string]string{"english": "55.5", "maths": "60", "science": "65"}},
	}
}

func TestRoundTrip(t *testing.T) {
	g := newTestGateway(t)

	want := sampleSet()
	if err := g.WriteAll(want); err != nil {
		t.Fatalf("WriteAll() = %v", err)
	}

	got, err := g.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadAll() = %+v, want %+v", got, want)
	}
}

func TestWriteAllOverwrites(t *testing.T) {
	g := newTestGateway(t)

	if err := g.WriteAll(sampleSet()); err != nil {
		t.Fatalf("WriteAll() = %v", err)
	}

	// A second write fully replaces prior contents, not append/merge.
	want := sampleSet()[:1]
	if err := g.WriteAll(want); err != nil {
		t.Fatalf("WriteAll() = %v", err)
	}

	got, err := g.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() = %v", err)
	}
	if len(got) != 1 || got[0].ID != "101" {
		t.Errorf("ReadAll() after overwrite = %+v, want only record 101", got)
	}
}

func TestReadAllMissingFile(t *testing.T) {
	g := newTestGateway(t)

	_, err := g.ReadAll()
	if !errors.IsStorage(err) {
		t.Errorf("ReadAll() on missing file = %v, want ErrStorageUnavailable", err)
	}
}

func TestEnsureFile(t *testing.T) {
	g := newTestGateway(t)

	if err := g.EnsureFile(); err != nil {
		t.Fatalf("EnsureFile() = %v", err)
	}

	set, err := g.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() after EnsureFile = %v", err)
	}
	if len(set) != 0 {
		t.Errorf("ReadAll() = %d records, want 0", len(set))
	}

	// EnsureFile on an existing file must not truncate it.
	if err := g.WriteAll(sampleSet()); err != nil {
		t.Fatalf("WriteAll() = %v", err)
	}
	if err := g.EnsureFile(); err != nil {
		t.Fatalf("EnsureFile() on existing file = %v", err)
	}
	set, err = g.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() = %v", err)
	}
	if len(set) != 3 {
		t.Errorf("ReadAll() after second EnsureFile = %d records, want 3", len(set))
	}
}

func TestHeaderMismatch(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "wrong column name", content: "Rollno,name,english,maths,history\n"},
		{name: "missing column", content: "Rollno,name,english,maths\n"},
		{name: "empty file", content: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data.csv")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			g := New(path, schema.Default())
			if _, err := g.ReadAll(); !errors.IsStorage(err) {
				t.Errorf("ReadAll() = %v, want ErrStorageUnavailable", err)
			}
		})
	}
}

func TestQuotedValuesRoundTrip(t *testing.T) {
	g := newTestGateway(t)

	want := record.Set{
		{ID: "201", Name: "Shah, Priya", Fields: map[string]string{"english": "88", "maths": "91", "science": "79"}},
	}
	if err := g.WriteAll(want); err != nil {
		t.Fatalf("WriteAll() = %v", err)
	}

	got, err := g.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadAll() = %+v, want %+v", got, want)
	}
}
