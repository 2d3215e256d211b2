package configform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
	"github.com/hatlabs/cockpit-container-apps/internal/schema"
)

// Status is the form's position in the Clean -> Dirty -> Saving cycle.
type Status int

const (
	StatusClean Status = iota
	StatusDirty
	StatusSaving
)

func (s Status) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusDirty:
		return "dirty"
	case StatusSaving:
		return "saving"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ErrSaveInProgress is returned by Save while another save is running.
var ErrSaveInProgress = errors.New("save already in progress")

// Backend is the subset of the backend the form needs.
type Backend interface {
	GetConfig(ctx context.Context, pkg string) (schema.Values, error)
	SetConfig(ctx context.Context, pkg string, values schema.Values) (backend.SaveResult, error)
}

// Option configures a Form.
type Option func(*Form)

// WithLogger sets the form's logger. Values are never logged.
func WithLogger(l zerolog.Logger) Option {
	return func(f *Form) { f.log = l }
}

// Form is the editing session for one package's configuration. It is safe
// for concurrent use; no lock is held across backend calls.
type Form struct {
	mu sync.Mutex

	pkg     string
	schema  schema.Schema
	backend Backend
	log     zerolog.Logger

	baseline schema.Values
	values   schema.Values
	errors   map[string]string
	status   Status
	saveErr  string
	warning  string
	edits    uint64
}

// New seeds a form with persisted values merged over the schema defaults.
func New(pkg string, s schema.Schema, persisted schema.Values, b Backend, opts ...Option) *Form {
	base := schema.MergeDefaults(persisted, s)
	f := &Form{
		pkg:      pkg,
		schema:   s,
		backend:  b,
		log:      zerolog.Nop(),
		baseline: base,
		values:   base.Clone(),
		errors:   make(map[string]string),
		status:   StatusClean,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Package returns the package the form edits.
func (f *Form) Package() string { return f.pkg }

// Schema returns the form's schema.
func (f *Form) Schema() schema.Schema { return f.schema }

// Status returns the current state.
func (f *Form) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Dirty reports whether there are unsaved edits.
func (f *Form) Dirty() bool {
	return f.Status() == StatusDirty
}

// Value returns the current value of field id.
func (f *Form) Value(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[id]
}

// Values returns a copy of all current values.
func (f *Form) Values() schema.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values.Clone()
}

// Errors returns a copy of the per-field validation messages.
func (f *Form) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// SaveError returns the last save failure, or "".
func (f *Form) SaveError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveErr
}

// DismissSaveError clears the save failure message.
func (f *Form) DismissSaveError() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveErr = ""
}

// Warning returns the warning from the last successful save, or "".
func (f *Form) Warning() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.warning
}

// SetFieldValue records an edit and clears that field's error only.
func (f *Form) SetFieldValue(id, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[id] = value
	delete(f.errors, id)
	f.edits++
	if f.status != StatusSaving {
		f.status = StatusDirty
	}
}

// Validate runs every field rule and stores the result.
func (f *Form) Validate() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = Validate(f.schema, f.values)
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Save validates and, when valid, persists the full value map. Validation
// failures return a *ValidationError without calling the backend. On a
// backend failure the edited values are kept and the form returns to Dirty.
// On success the persisted values are re-fetched and become the new baseline.
func (f *Form) Save(ctx context.Context) (backend.SaveResult, error) {
	f.mu.Lock()
	if f.status == StatusSaving {
		f.mu.Unlock()
		return backend.SaveResult{}, ErrSaveInProgress
	}
	errs := Validate(f.schema, f.values)
	f.errors = errs
	if len(errs) > 0 {
		f.mu.Unlock()
		copied := make(map[string]string, len(errs))
		for k, v := range errs {
			copied[k] = v
		}
		return backend.SaveResult{}, &ValidationError{Fields: copied}
	}
	submitted := f.values.Clone()
	startEdits := f.edits
	f.status = StatusSaving
	f.saveErr = ""
	f.warning = ""
	f.mu.Unlock()

	res, err := f.backend.SetConfig(ctx, f.pkg, submitted)
	if err != nil {
		msg := f.scrub(backend.UserMessage(err), submitted)
		f.mu.Lock()
		f.status = StatusDirty
		f.saveErr = msg
		f.mu.Unlock()
		f.log.Warn().Str("package", f.pkg).Str("error", msg).Msg("config save failed")
		return backend.SaveResult{}, scrubbedError(err, msg)
	}

	fetched, fetchErr := f.backend.GetConfig(ctx, f.pkg)

	f.mu.Lock()
	defer f.mu.Unlock()
	var warnings []string
	if res.Warning != "" {
		warnings = append(warnings, f.scrub(res.Warning, submitted))
	}
	if fetchErr != nil {
		f.baseline = submitted
		warnings = append(warnings, "saved, but reloading the configuration failed: "+f.scrub(backend.UserMessage(fetchErr), submitted))
	} else {
		f.baseline = schema.MergeDefaults(fetched, f.schema)
	}
	f.warning = strings.Join(warnings, "; ")
	f.errors = make(map[string]string)
	if f.edits != startEdits {
		// Edited while saving: keep the newer input.
		f.status = StatusDirty
	} else {
		f.values = f.baseline.Clone()
		f.status = StatusClean
	}
	f.log.Info().Str("package", f.pkg).Int("fields", len(submitted)).Bool("warning", f.warning != "").Msg("config saved")
	res.Warning = f.warning
	return res, nil
}

// Cancel discards edits and returns to the last loaded values.
func (f *Form) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

// Reload re-fetches the persisted values and resets the form to them.
func (f *Form) Reload(ctx context.Context) error {
	fetched, err := f.backend.GetConfig(ctx, f.pkg)
	if err != nil {
		return fmt.Errorf("reload config for %s: %w", f.pkg, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.baseline = schema.MergeDefaults(fetched, f.schema)
	f.warning = ""
	f.resetLocked()
	return nil
}

func (f *Form) resetLocked() {
	f.values = f.baseline.Clone()
	f.errors = make(map[string]string)
	f.saveErr = ""
	f.status = StatusClean
}

// scrub masks every password value, from the submitted set and the
// baseline, that appears in msg.
func (f *Form) scrub(msg string, submitted schema.Values) string {
	secrets := append(schema.SecretValues(submitted, f.schema), schema.SecretValues(f.baseline, f.schema)...)
	return Scrub(msg, secrets)
}

// Scrub replaces every occurrence of each secret in msg with a mask.
func Scrub(msg string, secrets []string) string {
	for _, s := range secrets {
		if s == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, s, passwordMask)
	}
	return msg
}

// scrubbedError rebuilds err with a masked message, keeping its code.
func scrubbedError(err error, msg string) error {
	var gwErr *backend.Error
	if errors.As(err, &gwErr) {
		return &backend.Error{Code: gwErr.Code, Message: msg}
	}
	return errors.New(msg)
}
