package backend

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records invocations and replays scripted output.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string

	stdout, stderr string
	err            error
	block          bool          // wait for ctx cancellation before returning
	delay          time.Duration // sleep before returning, ignoring ctx

	chunks []string // streamed stdout

	cancelled chan struct{}
}

func (f *fakeRunner) record(name string, args []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))
}

func (f *fakeRunner) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.record(name, args)
	if f.block {
		<-ctx.Done()
		if f.cancelled != nil {
			close(f.cancelled)
		}
		return nil, nil, ctx.Err()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func (f *fakeRunner) Stream(ctx context.Context, name string, args []string, onStdout func([]byte)) ([]byte, error) {
	f.record(name, args)
	for _, chunk := range f.chunks {
		onStdout([]byte(chunk))
	}
	return []byte(f.stderr), f.err
}

func newTestGateway(r Runner, timeout time.Duration) *Gateway {
	return NewGateway(GatewayOptions{Runner: r, Timeout: timeout})
}

func TestInvoke_ReturnsJSONDocument(t *testing.T) {
	r := &fakeRunner{stdout: `{"version":"0.3.0","name":"cockpit-container-apps"}` + "\n"}
	c := NewClient(newTestGateway(r, time.Second))

	info, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.3.0", info.Version)
	assert.Equal(t, [][]string{{"cockpit-container-apps", "version"}}, r.Calls())
}

func TestInvoke_ErrorEnvelopeShortCircuits(t *testing.T) {
	r := &fakeRunner{stdout: `{"error":"Store 'x' not found","code":"STORE_NOT_FOUND","details":"x"}`}
	gw := newTestGateway(r, time.Second)

	_, err := gw.Invoke(context.Background(), "get-store-data", []string{"x"})
	require.Error(t, err)
	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "STORE_NOT_FOUND", gwErr.Code)
	assert.Equal(t, "Store 'x' not found: x", UserMessage(err))
}

func TestInvoke_NullErrorKeyIsSuccess(t *testing.T) {
	r := &fakeRunner{stdout: `{"error":null,"ok":true}`}
	_, err := newTestGateway(r, time.Second).Invoke(context.Background(), "version", nil)
	assert.NoError(t, err)
}

func TestInvoke_MalformedOutputIsParseError(t *testing.T) {
	for _, out := range []string{"", "not json", `{"truncated":`} {
		r := &fakeRunner{stdout: out}
		_, err := newTestGateway(r, time.Second).Invoke(context.Background(), "list-stores", nil)
		assert.True(t, HasCode(err, CodeParse), "output %q: err = %v", out, err)
	}
}

func TestInvoke_ProcessFailureParsesStructuredStderr(t *testing.T) {
	r := &fakeRunner{
		stderr: `{"error": "Package not found: nope", "code": "PACKAGE_NOT_FOUND", "details": "nope"}`,
		err:    errors.New("exit status 1"),
	}
	_, err := newTestGateway(r, time.Second).Invoke(context.Background(), "get-config", []string{"nope"})
	assert.True(t, HasCode(err, "PACKAGE_NOT_FOUND"), "err = %v", err)
}

func TestInvoke_ProcessFailureFallsBackToCommandFailed(t *testing.T) {
	r := &fakeRunner{stderr: "Traceback (most recent call last):\n  boom\n", err: errors.New("exit status 2")}
	_, err := newTestGateway(r, time.Second).Invoke(context.Background(), "list-stores", nil)

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, CodeCommandFailed, gwErr.Code)
	assert.Contains(t, gwErr.Message, "Traceback")
	assert.EqualError(t, errors.Unwrap(err), "exit status 2")
}

func TestInvoke_SpawnFailureUsesCauseText(t *testing.T) {
	r := &fakeRunner{err: errors.New(`exec: "cockpit-container-apps": executable file not found in $PATH`)}
	_, err := newTestGateway(r, time.Second).Invoke(context.Background(), "list-stores", nil)
	assert.True(t, HasCode(err, CodeCommandFailed))
	assert.Contains(t, UserMessage(err), "executable file not found")
}

func TestInvoke_TimeoutTerminatesProcess(t *testing.T) {
	r := &fakeRunner{block: true, cancelled: make(chan struct{})}
	gw := newTestGateway(r, 20*time.Millisecond)

	_, err := gw.Invoke(context.Background(), "list-stores", nil)
	assert.True(t, HasCode(err, CodeTimeout), "err = %v", err)

	select {
	case <-r.cancelled:
	case <-time.After(time.Second):
		require.FailNow(t, "process context was not cancelled after timeout")
	}
}

func TestInvoke_LateCompletionDoesNotOverrideTimeout(t *testing.T) {
	r := &fakeRunner{delay: 60 * time.Millisecond, stdout: `{"ok":true}`}
	gw := newTestGateway(r, 10*time.Millisecond)

	payload, err := gw.Invoke(context.Background(), "list-stores", nil)
	assert.Nil(t, payload)
	assert.True(t, HasCode(err, CodeTimeout))
}

func TestInvoke_PerCallTimeoutOverride(t *testing.T) {
	r := &fakeRunner{delay: 30 * time.Millisecond, stdout: `[]`}
	gw := newTestGateway(r, 5*time.Millisecond)

	_, err := gw.Invoke(context.Background(), "list-stores", nil, WithTimeout(time.Second))
	assert.NoError(t, err)
}

func TestInvoke_ConcurrentCallsSettleIndependently(t *testing.T) {
	fast := &fakeRunner{stdout: `{"n":1}`}
	slow := &fakeRunner{block: true}
	gwFast := newTestGateway(fast, time.Second)
	gwSlow := newTestGateway(slow, 30*time.Millisecond)

	var wg sync.WaitGroup
	var fastErr, slowErr error
	wg.Add(2)
	go func() { defer wg.Done(); _, slowErr = gwSlow.Invoke(context.Background(), "install", nil) }()
	go func() { defer wg.Done(); _, fastErr = gwFast.Invoke(context.Background(), "get-config", nil) }()
	wg.Wait()

	assert.NoError(t, fastErr)
	assert.True(t, HasCode(slowErr, CodeTimeout))
}

func TestFlag_SingleToken(t *testing.T) {
	assert.Equal(t, "--store=-rf", Flag("store", "-rf"))
}

func TestClient_OptionalParametersAreSingleTokens(t *testing.T) {
	r := &fakeRunner{stdout: `{"packages":[],"total_count":0,"applied_filters":[],"limit":50,"limited":false}`}
	c := NewClient(newTestGateway(r, time.Second))

	_, err := c.FilterPackages(context.Background(), FilterQuery{
		Store:    "marine",
		Category: "navigation",
		Tab:      "installed",
		Search:   "--help",
		Limit:    50,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"cockpit-container-apps", "filter-packages",
		"--store=marine", "--category=navigation", "--tab=installed", "--search=--help", "--limit=50",
	}, r.Calls()[0])
}

func TestClient_RejectsFlagLikePositionals(t *testing.T) {
	r := &fakeRunner{stdout: `{}`}
	c := NewClient(newTestGateway(r, time.Second))

	_, err := c.GetConfig(context.Background(), "--all")
	assert.True(t, HasCode(err, CodeInvalidArguments))
	_, err = c.GetStoreData(context.Background(), "  ")
	assert.True(t, HasCode(err, CodeInvalidArguments))
	assert.Empty(t, r.Calls())
}

func TestClient_SchemaFailureWithoutCodeGetsSchemaError(t *testing.T) {
	r := &fakeRunner{stdout: `{"success": false, "error": "Config schema not found for package 'x'"}`}
	c := NewClient(newTestGateway(r, time.Second))

	_, err := c.GetConfigSchema(context.Background(), "x")
	assert.True(t, HasCode(err, CodeSchema), "err = %v", err)
}

func TestClient_SchemaAcceptsNumericVersion(t *testing.T) {
	r := &fakeRunner{stdout: `{"success": true, "schema": {"version": 1.0, "groups": [
		{"id": "net", "label": "Network", "fields": [{"id": "PORT", "type": "integer", "label": "Port", "default": 3000}]}
	]}}`}
	c := NewClient(newTestGateway(r, time.Second))

	s, err := c.GetConfigSchema(context.Background(), "signalk-server")
	require.NoError(t, err)
	assert.Equal(t, "1.0", s.Version)
	require.Len(t, s.Groups, 1)
	require.Len(t, s.Groups[0].Fields, 1)
	assert.Equal(t, "PORT", s.Groups[0].Fields[0].ID)
	assert.Equal(t, "3000", s.Groups[0].Fields[0].Default)
}

func TestGateway_SensitiveFailureLogsCodeOnly(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r := &fakeRunner{
		stderr: `{"error": "Invalid value for PASSWORD: hunter2", "code": "CONFIG_ERROR", "details": "hunter2"}`,
		err:    errors.New("exit status 1"),
	}
	c := NewClient(NewGateway(GatewayOptions{Runner: r, Timeout: time.Second, Logger: &logger}))

	_, err := c.SetConfig(context.Background(), "signalk-server", map[string]string{"PASSWORD": "hunter2"})
	require.Error(t, err)

	logged := buf.String()
	assert.Contains(t, logged, `"code":"CONFIG_ERROR"`)
	assert.Contains(t, logged, "set-config")
	assert.NotContains(t, logged, "hunter2")
}

func TestClient_GetConfigAndSetConfig(t *testing.T) {
	r := &fakeRunner{stdout: `{"success": true, "config": {"PORT": "8080"}}`}
	c := NewClient(newTestGateway(r, time.Second))

	values, err := c.GetConfig(context.Background(), "signalk-server")
	require.NoError(t, err)
	assert.Equal(t, "8080", values["PORT"])

	r.stdout = `{"success": true, "warning": "Configuration saved but service restart failed: unit not found"}`
	res, err := c.SetConfig(context.Background(), "signalk-server", map[string]string{"PORT": "9090"})
	require.NoError(t, err)
	assert.Contains(t, res.Warning, "restart failed")

	last := r.Calls()[1]
	assert.Equal(t, []string{"cockpit-container-apps", "set-config", "signalk-server", `{"PORT":"9090"}`}, last)
}

func TestClient_SuperuserPrefix(t *testing.T) {
	r := &fakeRunner{chunks: []string{`{"success":true}` + "\n"}}
	gw := NewGateway(GatewayOptions{Runner: r, Superuser: []string{"sudo", "-n"}})
	c := NewClient(gw)

	require.NoError(t, c.Install(context.Background(), "cowsay", nil))
	assert.Equal(t, []string{"sudo", "-n", "cockpit-container-apps", "install", "cowsay"}, r.Calls()[0])
}

func TestInvokeStreaming_ProgressThenSuccess(t *testing.T) {
	r := &fakeRunner{chunks: []string{
		`{"type":"progress","perc`,
		`entage":50,"message":"Unpacking..."}` + "\n",
		`{"success":true,"message":"Successfully installed cowsay"}` + "\n",
	}}
	gw := newTestGateway(r, time.Second)

	type call struct {
		pct int
		msg string
	}
	var calls []call
	err := gw.InvokeStreaming(context.Background(), "install", []string{"cowsay"}, func(pct int, msg string) {
		calls = append(calls, call{pct, msg})
	})

	require.NoError(t, err)
	assert.Equal(t, []call{{50, "Unpacking..."}}, calls)
}

func TestInvokeStreaming_SkipsUnparsableLines(t *testing.T) {
	r := &fakeRunner{chunks: []string{
		"Reading package lists...\n",
		`{"type":"progress","percentage":10.7,"message":"a"}` + "\n" + "{broken\n",
		`{"type":"progress","percentage":100,"message":"done"}` + "\n",
		`{"success":true}`,
	}}
	var pcts []int
	err := newTestGateway(r, time.Second).InvokeStreaming(context.Background(), "install", nil, func(pct int, _ string) {
		pcts = append(pcts, pct)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 100}, pcts)
}

func TestInvokeStreaming_ErrorLineRejects(t *testing.T) {
	r := &fakeRunner{chunks: []string{`{"error":"Package manager is locked","code":"LOCKED"}` + "\n", `{"success":true}` + "\n"}}
	err := newTestGateway(r, time.Second).InvokeStreaming(context.Background(), "remove", []string{"x"}, nil)
	assert.True(t, HasCode(err, "LOCKED"), "err = %v", err)
}

func TestInvokeStreaming_ProcessFailureUsesStderrEnvelope(t *testing.T) {
	r := &fakeRunner{
		chunks: []string{`{"type":"progress","percentage":5,"message":"x"}` + "\n"},
		stderr: `{"error":"Failed to install package 'x'","code":"INSTALL_FAILED","details":"E: broken"}`,
		err:    errors.New("exit status 1"),
	}
	err := newTestGateway(r, time.Second).InvokeStreaming(context.Background(), "install", []string{"x"}, nil)
	assert.True(t, HasCode(err, "INSTALL_FAILED"))
	assert.Equal(t, "Failed to install package 'x': E: broken", UserMessage(err))
}

func TestInvokeStreaming_CleanExitWithoutResultResolves(t *testing.T) {
	r := &fakeRunner{chunks: []string{`{"type":"progress","percentage":100,"message":"done"}` + "\n"}}
	err := newTestGateway(r, time.Second).InvokeStreaming(context.Background(), "install", []string{"x"}, nil)
	assert.NoError(t, err)
}

func TestLineBuffer_KeepsPartialLines(t *testing.T) {
	var b lineBuffer
	assert.Empty(t, b.Write([]byte(`{"a":`)))
	lines := b.Write([]byte("1}\n\n{\"b\":2}\n{\"c\""))
	require.Len(t, lines, 2)
	assert.Equal(t, `{"a":1}`, string(lines[0]))
	assert.Equal(t, `{"b":2}`, string(lines[1]))
	assert.Equal(t, `{"c"`, string(b.Flush()))
	assert.Empty(t, b.Flush())
}

func TestExecRunner_RealProcess(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	gw := NewGateway(GatewayOptions{Command: "sh", Timeout: 5 * time.Second})

	payload, err := gw.Invoke(context.Background(), "-c", []string{`printf '{"ok":true}'`})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(payload))

	_, err = gw.Invoke(context.Background(), "-c", []string{`echo '{"error":"nope","code":"X"}' >&2; exit 1`})
	assert.True(t, HasCode(err, "X"), "err = %v", err)

	var got []int
	err = gw.InvokeStreaming(context.Background(), "-c", []string{
		`echo '{"type":"progress","percentage":40,"message":"m"}'; echo '{"success":true}'`,
	}, func(pct int, _ string) { got = append(got, pct) })
	require.NoError(t, err)
	assert.Equal(t, []int{40}, got)
}
