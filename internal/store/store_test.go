package store

import (
	"testing"

	"github.com/rollcall/gradebook/internal/errors"
	"github.com/rollcall/gradebook/internal/record"
	"github.com/rollcall/gradebook/internal/schema"
)

// fakeStorage is an in-memory gateway with failure injection.
type fakeStorage struct {
	set      record.Set
	readErr  error
	writeErr error
	writes   int
}

func (f *fakeStorage) ReadAll() (record.Set, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.set.Clone(), nil
}

func (f *fakeStorage) WriteAll(set record.Set) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.set = set.Clone()
	f.writes++
	return nil
}

func newTestStore(seed record.Set) (*Store, *fakeStorage) {
	fs := &fakeStorage{set: seed}
	return New(fs, schema.Default()), fs
}

func rec(id, name, english, maths, science string) record.Record {
	return record.Record{
		ID:   id,
		Name: name,
		Fields: map[string]string{
			"english": english,
			"maths":   maths,
			"science": science,
		},
	}
}

func TestCreateAndGet(t *testing.T) {
	st, fs := newTestStore(nil)

	if err := st.Create(rec("101", "Ravi", "90", "80", "70")); err != nil {
		t.Fatalf("Create() = %v", err)
	}
	if fs.writes != 1 {
		t.Errorf("writes = %d, want 1", fs.writes)
	}

	got, err := st.Get("101")
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if got.Name != "Ravi" || got.Fields["maths"] != "80" {
		t.Errorf("Get() = %+v", got)
	}
}

func TestCreateDuplicate(t *testing.T) {
	st, _ := newTestStore(record.Set{rec("101", "Ravi", "90", "80", "70")})

	err := st.Create(rec("101", "Someone Else", "1", "2", "3"))
	if !errors.IsDuplicate(err) {
		t.Errorf("Create(duplicate) = %v, want ErrDuplicateID", err)
	}
}

func TestCreateValidation(t *testing.T) {
	st, fs := newTestStore(nil)

	tests := []struct {
		name string
		r    record.Record
	}{
		{name: "empty identifier", r: rec("", "Ravi", "1", "2", "3")},
		{name: "identifier with space", r: rec("10 1", "Ravi", "1", "2", "3")},
		{name: "identifier with slash", r: rec("10/1", "Ravi", "1", "2", "3")},
		{name: "empty name", r: rec("101", "", "1", "2", "3")},
		{name: "field with newline", r: rec("101", "Ravi", "1\n2", "2", "3")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := st.Create(tt.r); err == nil {
				t.Error("Create() = nil, want validation error")
			}
		})
	}
	if fs.writes != 0 {
		t.Errorf("writes = %d, want 0", fs.writes)
	}
}

func TestCreateDropsUnknownFields(t *testing.T) {
	st, fs := newTestStore(nil)

	r := rec("101", "Ravi", "90", "80", "70")
	r.Fields["history"] = "50"
	if err := st.Create(r); err != nil {
		t.Fatalf("Create() = %v", err)
	}

	if _, ok := fs.set[0].Fields["history"]; ok {
		t.Error("persisted record carries a field outside the schema")
	}
}

func TestGetNotFound(t *testing.T) {
	st, _ := newTestStore(nil)

	_, err := st.Get("999")
	if !errors.IsNotFound(err) {
		t.Errorf("Get(absent) = %v, want ErrNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	st, _ := newTestStore(record.Set{rec("101", "Ravi", "90", "80", "70")})

	got, err := st.Update("101", map[string]string{"maths": "85", "name": "Ravi K"})
	if err != nil {
		t.Fatalf("Update() = %v", err)
	}
	if got.Fields["maths"] != "85" || got.Name != "Ravi K" {
		t.Errorf("Update() = %+v", got)
	}
	if got.Fields["english"] != "90" {
		t.Errorf("untouched field changed: english = %q, want 90", got.Fields["english"])
	}
}

func TestUpdateIgnoresKeyAndUnknownFields(t *testing.T) {
	st, fs := newTestStore(record.Set{rec("101", "Ravi", "90", "80", "70")})

	got, err := st.Update("101", map[string]string{"Rollno": "999", "history": "50"})
	if err != nil {
		t.Fatalf("Update() = %v", err)
	}
	if got.ID != "101" {
		t.Errorf("identifier changed to %q, want 101", got.ID)
	}
	if fs.writes != 0 {
		t.Errorf("writes = %d, want 0 (nothing applicable to persist)", fs.writes)
	}
}

func TestUpdateEmptyIsNoOp(t *testing.T) {
	st, fs := newTestStore(record.Set{rec("101", "Ravi", "90", "80", "70")})

	got, err := st.Update("101", nil)
	if err != nil {
		t.Fatalf("Update() = %v", err)
	}
	if got.Fields["english"] != "90" || got.Name != "Ravi" {
		t.Errorf("Update(empty) changed the record: %+v", got)
	}
	if fs.writes != 0 {
		t.Errorf("writes = %d, want 0", fs.writes)
	}
}

func TestUpdateNotFound(t *testing.T) {
	st, _ := newTestStore(nil)

	_, err := st.Update("999", map[string]string{"maths": "85"})
	if !errors.IsNotFound(err) {
		t.Errorf("Update(absent) = %v, want ErrNotFound", err)
	}
}

func TestDeleteTwice(t *testing.T) {
	st, fs := newTestStore(record.Set{rec("101", "Ravi", "90", "80", "70")})

	if err := st.Delete("101"); err != nil {
		t.Fatalf("Delete() = %v", err)
	}
	if len(fs.set) != 0 {
		t.Errorf("set after delete = %d records, want 0", len(fs.set))
	}

	// Deleting an already-absent identifier reports NotFound, every time.
	if err := st.Delete("101"); !errors.IsNotFound(err) {
		t.Errorf("second Delete() = %v, want ErrNotFound", err)
	}
	if err := st.Delete("101"); !errors.IsNotFound(err) {
		t.Errorf("third Delete() = %v, want ErrNotFound", err)
	}
}

func TestListPreservesOrder(t *testing.T) {
	seed := record.Set{
		rec("103", "C", "1", "2", "3"),
		rec("101", "A", "1", "2", "3"),
		rec("102", "B", "1", "2", "3"),
	}
	st, _ := newTestStore(seed)

	got, err := st.List()
	if err != nil {
		t.Fatalf("List() = %v", err)
	}
	for i := range seed {
		if got[i].ID != seed[i].ID {
			t.Fatalf("List()[%d] = %s, want %s", i, got[i].ID, seed[i].ID)
		}
	}
}

func TestStorageErrorsPropagate(t *testing.T) {
	fs := &fakeStorage{readErr: errors.NewStorage("open data.csv", errors.New("no such file"))}
	st := New(fs, schema.Default())

	if _, err := st.Get("101"); !errors.IsStorage(err) {
		t.Errorf("Get() = %v, want ErrStorageUnavailable", err)
	}
	if err := st.Create(rec("101", "Ravi", "1", "2", "3")); !errors.IsStorage(err) {
		t.Errorf("Create() = %v, want ErrStorageUnavailable", err)
	}
	if err := st.Delete("101"); !errors.IsStorage(err) {
		t.Errorf("Delete() = %v, want ErrStorageUnavailable", err)
	}
}
