// Package csvfile implements the storage gateway over a comma-separated
// flat file.
//
// The file holds one header row with the declared schema's column names and
// one record per subsequent row. ReadAll materializes the entire record set;
// WriteAll replaces the entire file contents. There is no partial write and
// no locking at this layer: callers serialize access externally.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/rollcall/gradebook/internal/errors"
	"github.com/rollcall/gradebook/internal/logging"
	"github.com/rollcall/gradebook/internal/record"
	"github.com/rollcall/gradebook/internal/schema"
)

var log = logging.Component("csvfile")

// Gateway reads and writes the complete record set backed by one CSV file.
type Gateway struct {
	path   string
	schema schema.Schema
}

// New creates a gateway for the given file path and schema.
func New(path string, s schema.Schema) *Gateway {
	return &Gateway{path: path, schema: s}
}

// Path returns the backing file path.
func (g *Gateway) Path() string {
	return g.path
}

// EnsureFile creates the backing file with a header row if it does not
// exist yet. Called once at startup so the first read of a fresh
// deployment succeeds.
func (g *Gateway) EnsureFile() error {
	if _, err := os.Stat(g.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.NewStorage("stat "+g.path, err)
	}
	log.Info("creating backing file", "path", g.path)
	return g.WriteAll(nil)
}

// ReadAll reads the entire record set into memory.
// It fails with ErrStorageUnavailable when the file cannot be opened or
// when its contents do not match the declared schema.
func (g *Gateway) ReadAll() (record.Set, error) {
	f, err := os.Open(g.path)
	if err != nil {
		return nil, errors.NewStorage("open "+g.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(g.schema.Header())

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.NewStorage("read "+g.path, fmt.Errorf("missing header row"))
	}
	if err != nil {
		return nil, errors.NewStorage("read "+g.path, err)
	}
	if err := g.checkHeader(header); err != nil {
		return nil, err
	}

	var set record.Set
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewStorage("read "+g.path, err)
		}
		set = append(set, g.fromRow(row))
	}

	log.Debug("read record set", "path", g.path, "records", len(set))
	return set, nil
}

// WriteAll replaces the file contents with the given record set.
// A failed write leaves the file in an undefined state; the caller treats
// this as fatal for the request and does not retry.
func (g *Gateway) WriteAll(set record.Set) error {
	f, err := os.Create(g.path)
	if err != nil {
		return errors.NewStorage("create "+g.path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(g.schema.Header()); err != nil {
		f.Close()
		return errors.NewStorage("write "+g.path, err)
	}
	for i := range set {
		if err := w.Write(g.toRow(set[i])); err != nil {
			f.Close()
			return errors.NewStorage("write "+g.path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return errors.NewStorage("flush "+g.path, err)
	}
	if err := f.Close(); err != nil {
		return errors.NewStorage("close "+g.path, err)
	}

	log.Debug("wrote record set", "path", g.path, "records", len(set))
	return nil
}

func (g *Gateway) checkHeader(header []string) error {
	want := g.schema.Header()
	if len(header) != len(want) {
		return errors.NewStorage("read "+g.path,
			fmt.Errorf("header has %d columns, schema declares %d", len(header), len(want)))
	}
	for i := range want {
		if header[i] != want[i] {
			return errors.NewStorage("read "+g.path,
				fmt.Errorf("header column %d is %q, schema declares %q", i, header[i], want[i]))
		}
	}
	return nil
}

// fromRow converts one CSV row into a record. Row layout follows
// schema.Header(): key, name, then numeric fields in order.
func (g *Gateway) fromRow(row []string) record.Record {
	rec := record.Record{
		ID:     row[0],
		Name:   row[1],
		Fields: make(map[string]string, len(g.schema.NumericFields)),
	}
	for i, field := range g.schema.NumericFields {
		rec.Fields[field] = row[2+i]
	}
	return rec
}

func (g *Gateway) toRow(rec record.Record) []string {
	row := make([]string, 0, 2+len(g.schema.NumericFields))
	row = append(row, rec.ID, rec.Name)
	for _, field := range g.schema.NumericFields {
		row = append(row, rec.Fields[field])
	}
	return row
}
