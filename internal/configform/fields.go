package configform

import (
	"fmt"
	"strings"

	"github.com/hatlabs/cockpit-container-apps/internal/schema"
)

// passwordMask is shown instead of any password value. Its width does not
// depend on the value.
const passwordMask = "••••••••"

// Renderer holds the presentation and input rules for one field type.
type Renderer struct {
	// Display is the text shown in the control.
	Display func(f schema.Field, value string) string
	// Hint is advisory text shown next to the control; may be empty.
	Hint func(f schema.Field, value string) string
	// Filter coerces raw user input before it is stored.
	Filter func(f schema.Field, input string) string
}

var renderers = map[schema.FieldType]Renderer{
	schema.TypeString: {
		Display: verbatim,
		Hint:    noHint,
		Filter:  keepInput,
	},
	schema.TypePath: {
		Display: verbatim,
		Hint:    pathHint,
		Filter:  keepInput,
	},
	schema.TypeInteger: {
		Display: verbatim,
		Hint:    rangeHint,
		Filter:  digitsOnly,
	},
	schema.TypeBoolean: {
		Display: checkbox,
		Hint:    noHint,
		Filter:  func(_ schema.Field, input string) string { return BoolString(IsChecked(input)) },
	},
	schema.TypeEnum: {
		Display: optionLabel,
		Hint:    optionsHint,
		Filter:  keepInput,
	},
	schema.TypePassword: {
		Display: masked,
		Hint:    noHint,
		Filter:  keepInput,
	},
}

// RendererFor returns the rules for t. Unknown types render as plain strings.
func RendererFor(t schema.FieldType) Renderer {
	if r, ok := renderers[t]; ok {
		return r
	}
	return renderers[schema.TypeString]
}

// Display renders value for f.
func Display(f schema.Field, value string) string {
	return RendererFor(f.Type).Display(f, value)
}

// Hint returns the advisory text for f, or "".
func Hint(f schema.Field, value string) string {
	return RendererFor(f.Type).Hint(f, value)
}

// Filter coerces input for f.
func Filter(f schema.Field, input string) string {
	return RendererFor(f.Type).Filter(f, input)
}

func verbatim(_ schema.Field, value string) string  { return value }
func keepInput(_ schema.Field, input string) string { return input }
func noHint(schema.Field, string) string            { return "" }

func masked(_ schema.Field, value string) string {
	if value == "" {
		return ""
	}
	return passwordMask
}

func checkbox(_ schema.Field, value string) string {
	if IsChecked(value) {
		return "[x]"
	}
	return "[ ]"
}

func optionLabel(f schema.Field, value string) string {
	for _, opt := range f.Options {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

func pathHint(_ schema.Field, value string) string {
	if strings.Contains(value, "../") {
		return "Path contains '../'"
	}
	return ""
}

func rangeHint(f schema.Field, _ string) string {
	switch {
	case f.Min != nil && f.Max != nil:
		return fmt.Sprintf("%d..%d", *f.Min, *f.Max)
	case f.Min != nil:
		return fmt.Sprintf(">= %d", *f.Min)
	case f.Max != nil:
		return fmt.Sprintf("<= %d", *f.Max)
	}
	return ""
}

func optionsHint(f schema.Field, _ string) string {
	labels := make([]string, 0, len(f.Options))
	for _, opt := range f.Options {
		labels = append(labels, opt.Label)
	}
	return strings.Join(labels, " / ")
}

// digitsOnly keeps an optional leading sign followed by digits. It never
// clamps; range checks belong to validation.
func digitsOnly(_ schema.Field, input string) string {
	var b strings.Builder
	for i, r := range input {
		if i == 0 && (r == '-' || r == '+') {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsChecked reads a boolean value. "true", "1" and "yes" count as checked in
// any case.
func IsChecked(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// BoolString is the canonical stored form of b.
func BoolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Toggle flips value and returns the canonical result.
func Toggle(value string) string {
	return BoolString(!IsChecked(value))
}

// CycleOption moves delta steps through f's option values, wrapping around.
// A value that is not an option starts from the first (or last) entry.
func CycleOption(f schema.Field, value string, delta int) string {
	n := len(f.Options)
	if n == 0 {
		return value
	}
	idx := -1
	for i, opt := range f.Options {
		if opt.Value == value {
			idx = i
			break
		}
	}
	if idx < 0 {
		if delta < 0 {
			return f.Options[n-1].Value
		}
		return f.Options[0].Value
	}
	next := ((idx+delta)%n + n) % n
	return f.Options[next].Value
}
