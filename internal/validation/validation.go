// Package validation provides centralized input validation for gradebook.
package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rollcall/gradebook/internal/errors"
)

// =============================================================================
// Name Validation
// =============================================================================

// NameRules defines the validation rules for identifiers and names.
type NameRules struct {
	MinLength    int
	MaxLength    int
	AllowDots    bool
	AllowHyphens bool
	AllowUnders  bool
	AllowSpaces  bool
}

// IdentifierRules returns the rules for record identifiers. Identifiers end
// up as path segments in the API, so spaces and dots are rejected.
func IdentifierRules() NameRules {
	return NameRules{
		MinLength:    1,
		MaxLength:    64,
		AllowDots:    false,
		AllowHyphens: true,
		AllowUnders:  true,
		AllowSpaces:  false,
	}
}

// DisplayNameRules returns the rules for record display names.
func DisplayNameRules() NameRules {
	return NameRules{
		MinLength:    1,
		MaxLength:    255,
		AllowDots:    true,
		AllowHyphens: true,
		AllowUnders:  true,
		AllowSpaces:  true,
	}
}

// ValidateName validates a name according to the given rules.
func ValidateName(name string, rules NameRules) error {
	if len(name) < rules.MinLength {
		return errors.Wrapf(errors.ErrInvalidName,
			"too short: minimum %d characters required", rules.MinLength)
	}
	if len(name) > rules.MaxLength {
		return errors.Wrapf(errors.ErrInvalidName,
			"too long: maximum %d characters allowed", rules.MaxLength)
	}

	if name == "." || name == ".." {
		return errors.Wrap(errors.ErrInvalidName, "cannot be '.' or '..'")
	}

	if strings.HasPrefix(name, ".") {
		return errors.Wrap(errors.ErrInvalidName, "cannot start with '.'")
	}

	for i, r := range name {
		if r < 32 || r == 127 {
			return errors.Wrapf(errors.ErrInvalidName,
				"cannot contain control characters at position %d", i)
		}
		if r == '/' || r == '\\' {
			return errors.Wrapf(errors.ErrInvalidName,
				"cannot contain path separators at position %d", i)
		}
		if !isAllowedNameChar(r, rules) {
			return errors.Wrapf(errors.ErrInvalidName,
				"invalid character %q at position %d", r, i)
		}
	}

	return nil
}

func isAllowedNameChar(r rune, rules NameRules) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '.':
		return rules.AllowDots
	case '-':
		return rules.AllowHyphens
	case '_':
		return rules.AllowUnders
	case ' ':
		return rules.AllowSpaces
	}
	return false
}

// =============================================================================
// Field Value Validation
// =============================================================================

// ValidateFieldValue rejects field values the tabular file cannot represent
// on one row.
func ValidateFieldValue(field, value string) error {
	for i, r := range value {
		if r == '\n' || r == '\r' {
			return errors.Wrapf(errors.ErrInvalidName,
				"field %s: embedded newline at position %d", field, i)
		}
	}
	if len(value) > 255 {
		return fmt.Errorf("field %s: value too long: %w", field, errors.ErrInvalidName)
	}
	return nil
}
