// Package store provides record persistence for the gradebook application.
//
// Every operation follows the whole-file rewrite discipline: read the full
// record set, mutate it in memory, write the full set back. Operations are
// sequential single-pass scans; the only concurrency control is a store-level
// reader/writer lock that serializes whole-file rewrites, since two naive
// parallel read-modify-write cycles would silently lose one of the updates.
package store

import (
	"sync"

	"github.com/rollcall/gradebook/internal/errors"
	"github.com/rollcall/gradebook/internal/logging"
	"github.com/rollcall/gradebook/internal/record"
	"github.com/rollcall/gradebook/internal/schema"
	"github.com/rollcall/gradebook/internal/validation"
)

var log = logging.Component("store")

// Storage is the gateway contract the store consumes. ReadAll materializes
// the entire record set; WriteAll fully replaces prior contents.
type Storage interface {
	ReadAll() (record.Set, error)
	WriteAll(record.Set) error
}

// Store exposes create/read/update/delete operations over records keyed by
// identifier.
//
// Store is safe for concurrent use.
type Store struct {
	storage Storage
	schema  schema.Schema

	// mu is the single-writer lock. Mutations hold the write lock for the
	// whole read-modify-write cycle.
	mu sync.RWMutex
}

// New creates a Store over the given storage gateway.
func New(storage Storage, s schema.Schema) *Store {
	return &Store{storage: storage, schema: s}
}

// Schema returns the declared record layout.
func (s *Store) Schema() schema.Schema {
	return s.schema
}

// Create appends a new record and persists the full set.
// Fails with ErrDuplicateID if the identifier already exists.
func (s *Store) Create(rec record.Record) error {
	if err := validation.ValidateName(rec.ID, validation.IdentifierRules()); err != nil {
		return errors.Wrapf(err, "identifier %q", rec.ID)
	}
	if err := validation.ValidateName(rec.Name, validation.DisplayNameRules()); err != nil {
		return errors.Wrapf(err, "name %q", rec.Name)
	}
	for field, value := range rec.Fields {
		if err := validation.ValidateFieldValue(field, value); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.storage.ReadAll()
	if err != nil {
		return err
	}

	if set.IndexOf(rec.ID) >= 0 {
		log.Warn("create rejected, identifier exists", "id", rec.ID)
		return errors.NewDuplicate(rec.ID)
	}

	set = append(set, s.shaped(rec))
	if err := s.storage.WriteAll(set); err != nil {
		return err
	}

	log.Info("record created", "id", rec.ID)
	return nil
}

// Get returns the record with the given identifier.
// Fails with ErrNotFound if absent.
func (s *Store) Get(id string) (record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, err := s.storage.ReadAll()
	if err != nil {
		return record.Record{}, err
	}

	i := set.IndexOf(id)
	if i < 0 {
		return record.Record{}, errors.NewNotFound(id)
	}
	return set[i], nil
}

// List returns the full record set in insertion order.
func (s *Store) List() (record.Set, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.storage.ReadAll()
}

// Update applies a partial field update to the record with the given
// identifier and persists the full set. Only schema-updatable fields are
// applied; the key field is immutable and unknown fields are ignored.
// An empty partial update leaves the record unchanged.
// Fails with ErrNotFound if absent.
func (s *Store) Update(id string, fields map[string]string) (record.Record, error) {
	for field, value := range fields {
		if !s.schema.Updatable(field) {
			continue
		}
		if err := validation.ValidateFieldValue(field, value); err != nil {
			return record.Record{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.storage.ReadAll()
	if err != nil {
		return record.Record{}, err
	}

	i := set.IndexOf(id)
	if i < 0 {
		log.Warn("update rejected, record not found", "id", id)
		return record.Record{}, errors.NewNotFound(id)
	}

	rec := set[i].Clone()
	applied := 0
	for field, value := range fields {
		if !s.schema.Updatable(field) {
			continue
		}
		if field == s.schema.NameField {
			if err := validation.ValidateName(value, validation.DisplayNameRules()); err != nil {
				return record.Record{}, errors.Wrapf(err, "name %q", value)
			}
			rec.Name = value
		} else {
			rec.Fields[field] = value
		}
		applied++
	}

	if applied == 0 {
		// Nothing to persist.
		return set[i], nil
	}

	set[i] = rec
	if err := s.storage.WriteAll(set); err != nil {
		return record.Record{}, err
	}

	log.Info("record updated", "id", id, "fields", applied)
	return rec, nil
}

// Delete removes the record with the given identifier and persists the
// remaining set. Fails with ErrNotFound if absent; a second delete of the
// same identifier fails the same way.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.storage.ReadAll()
	if err != nil {
		return err
	}

	i := set.IndexOf(id)
	if i < 0 {
		log.Warn("delete rejected, record not found", "id", id)
		return errors.NewNotFound(id)
	}

	set = append(set[:i], set[i+1:]...)
	if err := s.storage.WriteAll(set); err != nil {
		return err
	}

	log.Info("record deleted", "id", id)
	return nil
}

// shaped returns a copy of rec restricted to the declared numeric fields so
// the backing file never grows columns outside the schema.
func (s *Store) shaped(rec record.Record) record.Record {
	shaped := record.Record{
		ID:     rec.ID,
		Name:   rec.Name,
		Fields: make(map[string]string, len(s.schema.NumericFields)),
	}
	for _, field := range s.schema.NumericFields {
		shaped.Fields[field] = rec.Fields[field]
	}
	return shaped
}
