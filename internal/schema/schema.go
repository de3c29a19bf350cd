// Package schema declares the record layout consumed by the storage gateway,
// the record store, and the aggregation engine.
//
// A schema is an ordered list of columns: one key field that uniquely
// identifies a record, one name field, and one or more numeric fields whose
// values are averaged by the aggregation engine. Field values are stored as
// text; numeric parsing happens at aggregation time.
package schema

import (
	"github.com/rollcall/gradebook/config"
	"github.com/rollcall/gradebook/internal/errors"
)

// Schema describes the declared record layout.
type Schema struct {
	// KeyField is the column holding the unique record identifier.
	KeyField string `yaml:"key_field"`

	// NameField is the column holding the record display name.
	NameField string `yaml:"name_field"`

	// NumericFields are the ordered columns averaged during aggregation.
	NumericFields []string `yaml:"numeric_fields"`
}

// Default returns the stock student-record schema.
func Default() Schema {
	return Schema{
		KeyField:      config.DefaultKeyField,
		NameField:     config.DefaultNameField,
		NumericFields: config.DefaultNumericFields(),
	}
}

// Validate checks the schema for empty or duplicated field names.
func (s Schema) Validate() error {
	errs := errors.NewValidationErrors()

	if s.KeyField == "" {
		errs.AddField("schema.key_field", "cannot be empty")
	}
	if s.NameField == "" {
		errs.AddField("schema.name_field", "cannot be empty")
	}
	if len(s.NumericFields) == 0 {
		errs.AddField("schema.numeric_fields", "at least one numeric field is required")
	}

	seen := map[string]bool{s.KeyField: true}
	if seen[s.NameField] {
		errs.AddField("schema.name_field", "duplicates another field name")
	}
	seen[s.NameField] = true
	for _, f := range s.NumericFields {
		if f == "" {
			errs.AddField("schema.numeric_fields", "field name cannot be empty")
			continue
		}
		if seen[f] {
			errs.AddField("schema.numeric_fields", "duplicate field name "+f)
		}
		seen[f] = true
	}

	return errs.Err()
}

// Header returns the ordered column names: key, name, then numeric fields.
// This is the exact header row of the backing file.
func (s Schema) Header() []string {
	header := make([]string, 0, 2+len(s.NumericFields))
	header = append(header, s.KeyField, s.NameField)
	header = append(header, s.NumericFields...)
	return header
}

// IsNumeric reports whether field is one of the declared numeric fields.
func (s Schema) IsNumeric(field string) bool {
	for _, f := range s.NumericFields {
		if f == field {
			return true
		}
	}
	return false
}

// Updatable reports whether field may be changed by a partial update.
// The key field is excluded: it is the record's identity.
func (s Schema) Updatable(field string) bool {
	return field == s.NameField || s.IsNumeric(field)
}
