package configform

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hatlabs/cockpit-container-apps/internal/schema"
)

// CodeValidation classifies local validation failures. They never reach the
// backend.
const CodeValidation = "VALIDATION_ERROR"

var integerPattern = regexp.MustCompile(`^[+-]?[0-9]+$`)

// ValidationError carries per-field messages keyed by field id.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	ids := make([]string, 0, len(e.Fields))
	for id := range e.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id+": "+e.Fields[id])
	}
	return fmt.Sprintf("%s: %s", CodeValidation, strings.Join(parts, "; "))
}

// Code returns CodeValidation.
func (e *ValidationError) Code() string { return CodeValidation }

// Validate checks values against s in schema order. The result is empty iff
// the values may be saved.
func Validate(s schema.Schema, values schema.Values) map[string]string {
	errs := make(map[string]string)
	for _, f := range s.Fields() {
		if msg := validateField(f, values[f.ID]); msg != "" {
			errs[f.ID] = msg
		}
	}
	return errs
}

func validateField(f schema.Field, value string) string {
	if f.Required && strings.TrimSpace(value) == "" {
		return "This field is required"
	}
	if value == "" {
		return ""
	}
	switch f.Type {
	case schema.TypeInteger:
		return validateInteger(f, value)
	case schema.TypePath:
		if strings.Contains(value, "../") {
			return "Path must not contain '../'"
		}
	case schema.TypeEnum:
		if !f.HasOption(value) {
			values := make([]string, 0, len(f.Options))
			for _, opt := range f.Options {
				values = append(values, opt.Value)
			}
			return "Must be one of: " + strings.Join(values, ", ")
		}
	}
	return ""
}

func validateInteger(f schema.Field, value string) string {
	if !integerPattern.MatchString(value) {
		return "Must be a whole number"
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return "Number is out of range"
	}
	switch {
	case f.Min != nil && f.Max != nil && (n < int64(*f.Min) || n > int64(*f.Max)):
		return fmt.Sprintf("Must be between %d and %d", *f.Min, *f.Max)
	case f.Min != nil && n < int64(*f.Min):
		return fmt.Sprintf("Must be at least %d", *f.Min)
	case f.Max != nil && n > int64(*f.Max):
		return fmt.Sprintf("Must be at most %d", *f.Max)
	}
	return ""
}
