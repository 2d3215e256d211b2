package configform

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
	"github.com/hatlabs/cockpit-container-apps/internal/schema"
)

type fakeBackend struct {
	mu        sync.Mutex
	persisted schema.Values
	setCalls  []schema.Values
	getCalls  int

	setErr  error
	getErr  error
	warning string
	// normalize rewrites values on save, the way the backend may.
	normalize func(schema.Values) schema.Values
	// gate, when set, blocks SetConfig until closed.
	gate chan struct{}
}

func (b *fakeBackend) GetConfig(_ context.Context, _ string) (schema.Values, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.getCalls++
	if b.getErr != nil {
		return nil, b.getErr
	}
	return b.persisted.Clone(), nil
}

func (b *fakeBackend) SetConfig(_ context.Context, _ string, values schema.Values) (backend.SaveResult, error) {
	if b.gate != nil {
		<-b.gate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setCalls = append(b.setCalls, values.Clone())
	if b.setErr != nil {
		return backend.SaveResult{}, b.setErr
	}
	if b.normalize != nil {
		values = b.normalize(values)
	}
	b.persisted = values.Clone()
	return backend.SaveResult{Warning: b.warning}, nil
}

func (b *fakeBackend) SetCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.setCalls)
}

func intPtr(v int) *int { return &v }

func portSchema() schema.Schema {
	var s schema.Schema
	raw := `{"version":"1.0","groups":[{"id":"general","label":"General","fields":[
		{"id":"PORT","type":"integer","label":"Port","default":"3000","min":1,"max":65535}]}]}`
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		panic(err)
	}
	return s
}

func fullSchema() schema.Schema {
	return schema.Schema{
		Version: "1.0",
		Groups: []schema.Group{
			{ID: "general", Label: "General", Fields: []schema.Field{
				{ID: "SERVER_NAME", Type: schema.TypeString, Label: "Server name", Required: true},
				{ID: "PORT", Type: schema.TypeInteger, Label: "Port", Default: "3000", Min: intPtr(1), Max: intPtr(65535)},
				{ID: "ENABLED", Type: schema.TypeBoolean, Label: "Enabled", Default: "true"},
			}},
			{ID: "advanced", Label: "Advanced", Fields: []schema.Field{
				{ID: "LOG_LEVEL", Type: schema.TypeEnum, Label: "Log level", Default: "info", Options: []schema.Option{
					{Value: "info", Label: "Info"}, {Value: "debug", Label: "Debug"},
				}},
				{ID: "DATA_DIR", Type: schema.TypePath, Label: "Data dir", Default: "/var/lib/app"},
				{ID: "ADMIN_PASSWORD", Type: schema.TypePassword, Label: "Admin password"},
			}},
		},
	}
}

func TestForm_InitialValuesFromDefaults(t *testing.T) {
	f := New("signalk-server", portSchema(), schema.Values{}, &fakeBackend{})

	assert.Equal(t, "3000", f.Value("PORT"))
	assert.Equal(t, StatusClean, f.Status())
	assert.Equal(t, schema.Values{"PORT": "3000"}, f.Values())
}

func TestForm_PortOutOfRangeBlocksSave(t *testing.T) {
	b := &fakeBackend{persisted: schema.Values{}}
	f := New("signalk-server", portSchema(), schema.Values{}, b)

	f.SetFieldValue("PORT", "70000")
	_, err := f.Save(context.Background())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeValidation, verr.Code())
	assert.Contains(t, verr.Fields["PORT"], "65535")
	assert.Contains(t, f.Errors()["PORT"], "65535")
	assert.Zero(t, b.SetCalls())
	assert.Equal(t, StatusDirty, f.Status())
}

func TestForm_RequiredFieldBlocksSave(t *testing.T) {
	b := &fakeBackend{persisted: schema.Values{"SERVER_NAME": "Test Server"}}
	f := New("app", fullSchema(), b.persisted, b)
	require.Equal(t, "Test Server", f.Value("SERVER_NAME"))

	f.SetFieldValue("SERVER_NAME", "")
	_, err := f.Save(context.Background())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields["SERVER_NAME"], "required")
	assert.Zero(t, b.SetCalls())
}

func TestForm_SetFieldValueClearsOnlyThatError(t *testing.T) {
	f := New("app", fullSchema(), schema.Values{"PORT": "abc", "LOG_LEVEL": "trace"}, &fakeBackend{})

	errs := f.Validate()
	require.Contains(t, errs, "SERVER_NAME")
	require.Contains(t, errs, "PORT")
	require.Contains(t, errs, "LOG_LEVEL")

	f.SetFieldValue("PORT", "8080")
	got := f.Errors()
	assert.NotContains(t, got, "PORT")
	assert.Contains(t, got, "SERVER_NAME")
	assert.Contains(t, got, "LOG_LEVEL")
}

func TestForm_SaveRefetchesPersistedValues(t *testing.T) {
	b := &fakeBackend{
		persisted: schema.Values{"SERVER_NAME": "boat"},
		normalize: func(v schema.Values) schema.Values {
			out := v.Clone()
			out["PORT"] = "8080"
			return out
		},
	}
	f := New("app", fullSchema(), b.persisted, b)

	f.SetFieldValue("PORT", "9090")
	require.True(t, f.Dirty())
	res, err := f.Save(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Warning)

	assert.Equal(t, StatusClean, f.Status())
	assert.Equal(t, "8080", f.Value("PORT"), "baseline comes from the re-fetch, not the submission")
	assert.Equal(t, 1, b.getCalls)
	require.Len(t, b.setCalls, 1)
	assert.Len(t, b.setCalls[0], 6, "the full value map is submitted")
}

func TestForm_SaveFailureKeepsInputAndScrubsPasswords(t *testing.T) {
	b := &fakeBackend{
		persisted: schema.Values{"SERVER_NAME": "boat"},
		setErr: &backend.Error{
			Code:    "CONFIG_ERROR",
			Message: "Failed to write ADMIN_PASSWORD=hunter2",
			Details: "value hunter2 rejected",
		},
	}
	f := New("app", fullSchema(), b.persisted, b)
	f.SetFieldValue("ADMIN_PASSWORD", "hunter2")
	f.SetFieldValue("PORT", "4000")

	_, err := f.Save(context.Background())
	require.Error(t, err)
	assert.True(t, backend.HasCode(err, "CONFIG_ERROR"))
	assert.NotContains(t, err.Error(), "hunter2")
	assert.NotContains(t, f.SaveError(), "hunter2")
	assert.Contains(t, f.SaveError(), "Failed to write")

	assert.Equal(t, StatusDirty, f.Status())
	assert.Equal(t, "hunter2", f.Value("ADMIN_PASSWORD"))
	assert.Equal(t, "4000", f.Value("PORT"))

	f.DismissSaveError()
	assert.Empty(t, f.SaveError())
}

func TestForm_WarningStillCountsAsSaved(t *testing.T) {
	b := &fakeBackend{
		persisted: schema.Values{"SERVER_NAME": "boat"},
		warning:   "Configuration saved but service restart failed: unit not found",
	}
	f := New("app", fullSchema(), b.persisted, b)
	f.SetFieldValue("LOG_LEVEL", "debug")

	res, err := f.Save(context.Background())
	require.NoError(t, err)
	assert.Contains(t, res.Warning, "restart failed")
	assert.Contains(t, f.Warning(), "restart failed")
	assert.Empty(t, f.SaveError())
	assert.Equal(t, StatusClean, f.Status())
	assert.Equal(t, "debug", f.Value("LOG_LEVEL"))
}

func TestForm_RefetchFailureKeepsSubmittedBaseline(t *testing.T) {
	b := &fakeBackend{persisted: schema.Values{"SERVER_NAME": "boat"}}
	f := New("app", fullSchema(), b.persisted, b)
	f.SetFieldValue("PORT", "5000")
	b.getErr = errors.New("backend unavailable")

	_, err := f.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusClean, f.Status())
	assert.Contains(t, f.Warning(), "reloading")

	f.SetFieldValue("PORT", "6000")
	f.Cancel()
	assert.Equal(t, "5000", f.Value("PORT"))
}

func TestForm_CancelRestoresBaseline(t *testing.T) {
	f := New("app", fullSchema(), schema.Values{"SERVER_NAME": "boat"}, &fakeBackend{})
	f.SetFieldValue("SERVER_NAME", "")
	f.Validate()

	f.Cancel()
	assert.Equal(t, "boat", f.Value("SERVER_NAME"))
	assert.Empty(t, f.Errors())
	assert.Equal(t, StatusClean, f.Status())
}

func TestForm_Reload(t *testing.T) {
	b := &fakeBackend{persisted: schema.Values{"SERVER_NAME": "new"}}
	f := New("app", fullSchema(), schema.Values{"SERVER_NAME": "old"}, b)
	f.SetFieldValue("PORT", "1")

	require.NoError(t, f.Reload(context.Background()))
	assert.Equal(t, "new", f.Value("SERVER_NAME"))
	assert.Equal(t, "3000", f.Value("PORT"))
	assert.Equal(t, StatusClean, f.Status())

	b.getErr = errors.New("nope")
	assert.Error(t, f.Reload(context.Background()))
	assert.Equal(t, "new", f.Value("SERVER_NAME"))
}

func TestForm_EditDuringSaveStaysDirty(t *testing.T) {
	b := &fakeBackend{persisted: schema.Values{"SERVER_NAME": "boat"}, gate: make(chan struct{})}
	f := New("app", fullSchema(), b.persisted, b)
	f.SetFieldValue("PORT", "1000")

	done := make(chan error, 1)
	go func() {
		_, err := f.Save(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return f.Status() == StatusSaving }, time.Second, time.Millisecond)
	_, err := f.Save(context.Background())
	assert.ErrorIs(t, err, ErrSaveInProgress)

	f.SetFieldValue("PORT", "2000")
	assert.Equal(t, StatusSaving, f.Status())
	close(b.gate)
	require.NoError(t, <-done)

	assert.Equal(t, StatusDirty, f.Status())
	assert.Equal(t, "2000", f.Value("PORT"))
}
