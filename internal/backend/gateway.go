package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultCommand = "cockpit-container-apps"
	defaultTimeout = 30 * time.Second
)

// GatewayOptions configure a Gateway.
type GatewayOptions struct {
	Command   string          // backend executable; empty uses cockpit-container-apps
	Superuser []string        // elevation prefix for privileged calls, e.g. ["pkexec"]
	Timeout   time.Duration   // request/response deadline; zero uses 30s
	Runner    Runner          // nil uses ExecRunner
	Logger    *zerolog.Logger // nil disables logging
}

// Gateway invokes the backend CLI and translates its JSON output.
type Gateway struct {
	command   string
	superuser []string
	timeout   time.Duration
	runner    Runner
	log       zerolog.Logger
}

// NewGateway builds a Gateway from opts.
func NewGateway(opts GatewayOptions) *Gateway {
	g := &Gateway{
		command:   strings.TrimSpace(opts.Command),
		superuser: opts.Superuser,
		timeout:   opts.Timeout,
		runner:    opts.Runner,
		log:       zerolog.Nop(),
	}
	if opts.Logger != nil {
		g.log = *opts.Logger
	}
	if g.command == "" {
		g.command = defaultCommand
	}
	if g.timeout <= 0 {
		g.timeout = defaultTimeout
	}
	if g.runner == nil {
		g.runner = ExecRunner{}
	}
	return g
}

type callOptions struct {
	timeout   time.Duration
	superuser bool
	sensitive bool
}

// CallOption adjusts a single invocation.
type CallOption func(*callOptions)

// WithTimeout overrides the gateway deadline for one request/response call.
func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) { o.timeout = d }
}

// Superuser runs the command through the configured elevation prefix.
func Superuser() CallOption {
	return func(o *callOptions) { o.superuser = true }
}

// Sensitive keeps the arguments out of the log.
func Sensitive() CallOption {
	return func(o *callOptions) { o.sensitive = true }
}

func (g *Gateway) options(opts []CallOption) callOptions {
	co := callOptions{timeout: g.timeout}
	for _, opt := range opts {
		opt(&co)
	}
	if co.timeout <= 0 {
		co.timeout = g.timeout
	}
	return co
}

func (g *Gateway) argv(command string, args []string, co callOptions) (string, []string) {
	full := make([]string, 0, len(args)+len(g.superuser)+2)
	if co.superuser && len(g.superuser) > 0 {
		full = append(full, g.superuser[1:]...)
		full = append(full, g.command)
		full = append(full, command)
		full = append(full, args...)
		return g.superuser[0], full
	}
	full = append(full, command)
	full = append(full, args...)
	return g.command, full
}

// Flag encodes an optional parameter as a single --key=value token so a
// value beginning with '-' can never be read as a separate flag.
func Flag(key, value string) string {
	return "--" + key + "=" + value
}

func checkPositional(what, value string) error {
	if strings.TrimSpace(value) == "" {
		return &Error{Code: CodeInvalidArguments, Message: what + " is required"}
	}
	if strings.HasPrefix(value, "-") {
		return &Error{Code: CodeInvalidArguments, Message: fmt.Sprintf("invalid %s: %q", what, value)}
	}
	return nil
}

// settler lets exactly one of the competing completion paths win.
type settler[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

func newSettler[T any]() *settler[T] {
	return &settler[T]{done: make(chan struct{})}
}

func (s *settler[T]) settle(val T, err error) bool {
	won := false
	s.once.Do(func() {
		s.val, s.err = val, err
		won = true
		close(s.done)
	})
	return won
}

func (s *settler[T]) settled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *settler[T]) wait() (T, error) {
	<-s.done
	return s.val, s.err
}

// Invoke runs a request/response command and returns its JSON document. A
// top-level "error" key becomes an *Error; so do timeouts and process
// failures.
func (g *Gateway) Invoke(ctx context.Context, command string, args []string, opts ...CallOption) (json.RawMessage, error) {
	co := g.options(opts)
	name, argv := g.argv(command, args, co)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := newSettler[json.RawMessage]()
	timer := time.AfterFunc(co.timeout, func() {
		if s.settle(nil, &Error{Code: CodeTimeout, Message: fmt.Sprintf("%s timed out after %s", command, co.timeout)}) {
			cancel()
		}
	})
	defer timer.Stop()

	start := time.Now()
	go func() {
		stdout, stderr, err := g.runner.Run(runCtx, name, argv...)
		if err != nil {
			if ctx.Err() != nil {
				s.settle(nil, ctx.Err())
				return
			}
			s.settle(nil, processFailure(stdout, stderr, err))
			return
		}
		s.settle(parseResponse(stdout))
	}()

	payload, err := s.wait()
	g.logCall(command, args, co, time.Since(start), err)
	return payload, err
}

// Call invokes command and decodes the success payload into T.
func Call[T any](ctx context.Context, g *Gateway, command string, args []string, opts ...CallOption) (T, error) {
	var out T
	payload, err := g.Invoke(ctx, command, args, opts...)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, &Error{Code: CodeParse, Message: fmt.Sprintf("unexpected %s response", command), Details: err.Error(), Err: err}
	}
	return out, nil
}

func parseResponse(stdout []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 {
		return nil, &Error{Code: CodeParse, Message: "empty response from backend"}
	}
	if !json.Valid(trimmed) {
		return nil, &Error{Code: CodeParse, Message: "malformed response from backend", Details: preview(trimmed)}
	}
	if env := decodeEnvelope(trimmed); env != nil {
		return nil, env
	}
	return json.RawMessage(trimmed), nil
}

func sensitiveCode(err error) string {
	var be *Error
	if errors.As(err, &be) && be.Code != "" {
		return be.Code
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err.Error()
	}
	return CodeCommandFailed
}

func preview(data []byte) string {
	const max = 200
	if len(data) <= max {
		return string(data)
	}
	return string(data[:max]) + "..."
}

func (g *Gateway) logCall(command string, args []string, co callOptions, took time.Duration, err error) {
	ev := g.log.Debug()
	switch {
	case err == nil:
	case co.sensitive:
		// Backend text may echo the submitted values; keep only the code.
		ev = g.log.Warn().Str("code", sensitiveCode(err))
	default:
		ev = g.log.Warn().Err(err)
	}
	ev = ev.Str("command", command).Dur("took", took).Bool("superuser", co.superuser)
	if !co.sensitive {
		ev = ev.Strs("args", args)
	}
	ev.Msg("backend call")
}
