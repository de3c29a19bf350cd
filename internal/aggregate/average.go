package aggregate

import (
	"math"
	"strconv"
	"strings"

	"github.com/rollcall/gradebook/internal/errors"
	"github.com/rollcall/gradebook/internal/record"
)

// Round2 rounds to two decimal places, half away from zero. This is the
// single rounding rule used for every derived average: 1.125 rounds to 1.13
// and -1.125 to -1.13.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// averageOf parses the schema's numeric fields of one record and returns the
// rounded arithmetic mean. A missing, empty, or non-numeric field yields a
// FieldParseError naming the record and the offending field.
func (e *Engine) averageOf(rec record.Record) (float64, *errors.FieldParseError) {
	var sum float64
	for _, field := range e.schema.NumericFields {
		raw, ok := rec.Fields[field]
		if !ok || strings.TrimSpace(raw) == "" {
			return 0, &errors.FieldParseError{
				ID:    rec.ID,
				Field: field,
				Err:   errors.ErrMissingField,
			}
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return 0, &errors.FieldParseError{ID: rec.ID, Field: field, Err: err}
		}
		sum += v
	}
	return Round2(sum / float64(len(e.schema.NumericFields))), nil
}

// parseFields parses all numeric fields of one record, for field summaries.
func (e *Engine) parseFields(rec record.Record) (map[string]float64, *errors.FieldParseError) {
	values := make(map[string]float64, len(e.schema.NumericFields))
	for _, field := range e.schema.NumericFields {
		raw, ok := rec.Fields[field]
		if !ok || strings.TrimSpace(raw) == "" {
			return nil, &errors.FieldParseError{
				ID:    rec.ID,
				Field: field,
				Err:   errors.ErrMissingField,
			}
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, &errors.FieldParseError{ID: rec.ID, Field: field, Err: err}
		}
		values[field] = v
	}
	return values, nil
}
