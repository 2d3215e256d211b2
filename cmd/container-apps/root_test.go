package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatlabs/cockpit-container-apps/internal/app"
	"github.com/hatlabs/cockpit-container-apps/internal/backend"
	"github.com/hatlabs/cockpit-container-apps/internal/config"
	"github.com/hatlabs/cockpit-container-apps/internal/configform"
	"github.com/hatlabs/cockpit-container-apps/internal/schema"
)

type fakeAPI struct {
	stores   []backend.Store
	data     map[string]backend.StoreData
	schema   schema.Schema
	config   schema.Values
	saved    []schema.Values
	warning  string
	opErr    error
	installs []string
	removes  []string
}

func (f *fakeAPI) ListStores(context.Context) ([]backend.Store, error) { return f.stores, nil }

func (f *fakeAPI) ListCategories(context.Context, string) ([]backend.Category, error) {
	return nil, nil
}

func (f *fakeAPI) GetStoreData(_ context.Context, id string) (backend.StoreData, error) {
	d, ok := f.data[id]
	if !ok {
		return backend.StoreData{}, &backend.Error{Code: "STORE_NOT_FOUND", Message: "store not found"}
	}
	return d, nil
}

func (f *fakeAPI) ListPackagesByCategory(context.Context, string, string) ([]backend.Package, error) {
	return nil, nil
}

func (f *fakeAPI) FilterPackages(context.Context, backend.FilterQuery) (backend.FilterResult, error) {
	return backend.FilterResult{Packages: f.data["marine"].Packages}, nil
}

func (f *fakeAPI) Install(_ context.Context, name string, onProgress backend.ProgressFunc) error {
	f.installs = append(f.installs, name)
	onProgress(10, "Downloading")
	onProgress(10, "Downloading")
	onProgress(100, "Done")
	return f.opErr
}

func (f *fakeAPI) Remove(_ context.Context, name string, _ backend.ProgressFunc) error {
	f.removes = append(f.removes, name)
	return f.opErr
}

func (f *fakeAPI) GetConfigSchema(context.Context, string) (schema.Schema, error) {
	return f.schema, nil
}

func (f *fakeAPI) GetConfig(context.Context, string) (schema.Values, error) {
	return f.config.Clone(), nil
}

func (f *fakeAPI) SetConfig(_ context.Context, _ string, values schema.Values) (backend.SaveResult, error) {
	f.saved = append(f.saved, values.Clone())
	f.config = values.Clone()
	return backend.SaveResult{Warning: f.warning}, nil
}

func intPtr(v int) *int { return &v }

func newFake() *fakeAPI {
	return &fakeAPI{
		stores: []backend.Store{{ID: "marine", Name: "Marine Apps"}, {ID: "dev", Name: "Developer Tools"}},
		data: map[string]backend.StoreData{
			"marine": {Packages: []backend.Package{
				{Name: "signalk-server", Summary: "Signal K server", Installed: true, Categories: []string{"navigation"}},
				{Name: "opencpn", Summary: "Chart plotter", Categories: []string{"navigation"}},
				{Name: "grafana", Summary: "Dashboards", Categories: []string{"monitoring"}},
			}},
		},
		schema: schema.Schema{Version: "1.0", Groups: []schema.Group{{
			ID: "network", Label: "Network",
			Fields: []schema.Field{
				{ID: "PORT", Type: schema.TypeInteger, Default: "3000", Min: intPtr(1), Max: intPtr(65535)},
				{ID: "ADMIN_PASSWORD", Type: schema.TypePassword},
			},
		}}},
		config: schema.Values{"PORT": "8080", "ADMIN_PASSWORD": "s3cret"},
	}
}

// executeCommand runs the command tree against api with a config path that
// does not exist, so defaults apply.
func executeCommand(t *testing.T, api backend.API, args ...string) (string, error) {
	t.Helper()
	e := &env{
		newAPI: func(config.Config, zerolog.Logger) backend.API { return api },
		runTUI: func(context.Context, app.Options) error { return nil },
	}
	buf := new(bytes.Buffer)
	cmd := newRootCmd(e)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.toml")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootRunsTUIWithFlags(t *testing.T) {
	var got app.Options
	e := &env{runTUI: func(_ context.Context, opts app.Options) error {
		got = opts
		return nil
	}}
	cmd := newRootCmd(e)
	cmd.SetArgs([]string{"--store", "dev", "--location", "/app/gitea", "--prefs", "/tmp/p.toml"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "dev", got.Store)
	assert.Equal(t, "/app/gitea", got.Location)
	assert.Equal(t, "/tmp/p.toml", got.PrefsPath)
}

func TestStoresCommand(t *testing.T) {
	out, err := executeCommand(t, newFake(), "stores")
	require.NoError(t, err)
	assert.Contains(t, out, "marine")
	assert.Contains(t, out, "Developer Tools")
}

func TestStoresCommand_NoStores(t *testing.T) {
	api := newFake()
	api.stores = nil
	out, err := executeCommand(t, api, "stores")
	require.NoError(t, err)
	assert.Contains(t, out, "No stores configured")
}

func TestAppsCommand_FiltersFromCache(t *testing.T) {
	out, err := executeCommand(t, newFake(), "apps", "--category", "navigation", "--filter", "available")
	require.NoError(t, err)
	assert.Contains(t, out, "opencpn")
	assert.NotContains(t, out, "signalk-server")
	assert.NotContains(t, out, "grafana")
	assert.Contains(t, out, "1 of 3 apps")
}

func TestAppsCommand_UnknownFilter(t *testing.T) {
	_, err := executeCommand(t, newFake(), "apps", "--filter", "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown filter")
}

func TestAppsCommand_MissingStore(t *testing.T) {
	_, err := executeCommand(t, newFake(), "apps", "--store", "nope")
	require.Error(t, err)
	assert.True(t, backend.HasCode(err, "STORE_NOT_FOUND"))
}

func TestInstallCommand_PrintsProgress(t *testing.T) {
	api := newFake()
	out, err := executeCommand(t, api, "install", "opencpn")
	require.NoError(t, err)
	assert.Equal(t, []string{"opencpn"}, api.installs)
	assert.Contains(t, out, "Installing opencpn")
	assert.Contains(t, out, "[ 10%] Downloading")
	assert.Contains(t, out, "[100%] Done")
	assert.Equal(t, 1, bytes.Count([]byte(out), []byte("Downloading")))
}

func TestRemoveCommand_Failure(t *testing.T) {
	api := newFake()
	api.opErr = &backend.Error{Code: backend.CodeCommandFailed, Message: "dpkg failed"}
	out, err := executeCommand(t, api, "remove", "grafana")
	require.Error(t, err)
	assert.Equal(t, []string{"grafana"}, api.removes)
	assert.Contains(t, out, "grafana failed")
}

func TestConfigGet_MasksPasswords(t *testing.T) {
	out, err := executeCommand(t, newFake(), "config", "get", "signalk-server")
	require.NoError(t, err)
	assert.Contains(t, out, "Network")
	assert.Contains(t, out, "8080")
	assert.NotContains(t, out, "s3cret")
}

func TestConfigSet_ValidatesBeforeSaving(t *testing.T) {
	api := newFake()
	_, err := executeCommand(t, api, "config", "set", "signalk-server", "PORT=70000")
	var verr *configform.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "PORT")
	assert.Empty(t, api.saved)
}

func TestConfigSet_SavesFullValueMap(t *testing.T) {
	api := newFake()
	api.warning = "service restart failed"
	out, err := executeCommand(t, api, "config", "set", "signalk-server", "PORT=9090")
	require.NoError(t, err)
	require.Len(t, api.saved, 1)
	assert.Equal(t, schema.Values{"PORT": "9090", "ADMIN_PASSWORD": "s3cret"}, api.saved[0])
	assert.Contains(t, out, "saved configuration")
	assert.Contains(t, out, "service restart failed")
}

func TestConfigSet_RejectsUnknownKeyAndBadSyntax(t *testing.T) {
	api := newFake()
	_, err := executeCommand(t, api, "config", "set", "signalk-server", "NOPE=1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no setting "NOPE"`)

	_, err = executeCommand(t, api, "config", "set", "signalk-server", "PORT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KEY=VALUE")
	assert.Empty(t, api.saved)
}

func TestConfigSet_NoChanges(t *testing.T) {
	api := newFake()
	out, err := executeCommand(t, api, "config", "set", "signalk-server", "PORT=8080")
	require.NoError(t, err)
	assert.Contains(t, out, "No changes.")
	assert.Empty(t, api.saved)
}

func TestSchemaCheck(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yml")
	require.NoError(t, os.WriteFile(good, []byte(`version: "1.0"
groups:
  - id: network
    label: Network
    fields:
      - id: PORT
        type: integer
        label: Port
        default: 3000
        min: 1
        max: 65535
`), 0o644))
	out, err := executeCommand(t, newFake(), "schema", "check", good)
	require.NoError(t, err)
	assert.Contains(t, out, "1 groups, 1 fields")

	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("groups: []\n"), 0o644))
	_, err = executeCommand(t, newFake(), "schema", "check", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, newFake(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "container-apps dev")
}
