// Package backend talks to the cockpit-container-apps command-line backend.
//
// # Overview
//
// Every operation spawns the backend executable with a subcommand and reads a
// JSON document from its stdout. There is no daemon and no socket; the
// process exit is the end of the conversation.
//
// # Architecture
//
//   - runner.go: the Runner port and its os/exec implementation
//   - gateway.go: request/response invocation, timeouts, argument encoding
//   - stream.go: newline-delimited JSON progress for install and remove
//   - errors.go: the Error type and envelope classification
//   - client.go: typed wrappers, one per backend subcommand
//   - types.go: data structures mirroring the backend's JSON
//
// # Invocation
//
//	gw := backend.NewGateway(backend.GatewayOptions{
//		Superuser: []string{"pkexec"},
//		Timeout:   30 * time.Second,
//	})
//	client := backend.NewClient(gw)
//
//	data, err := client.GetStoreData(ctx, "marine")
//	if err != nil {
//		log.Printf("store load failed: %s", backend.UserMessage(err))
//	}
//
// Optional parameters are always sent as a single --key=value token.
// Positional parameters that are empty or begin with '-' are rejected before
// any process is spawned.
//
// # Completion
//
// A request/response call completes exactly once, with whichever happens
// first: the process exits, the deadline fires, or the caller's context is
// cancelled. When the deadline wins the process context is cancelled, which
// kills the child. A late exit after that is ignored.
//
// Streaming calls (Install, Remove) have no deadline. Progress records are
// delivered in order; the first success or error record settles the call,
// and anything printed afterwards is dropped.
//
// # Errors
//
// All classified failures are *Error values with a machine-readable Code:
//
//   - TIMEOUT: the deadline elapsed
//   - PARSE_ERROR: stdout was empty or not JSON
//   - COMMAND_FAILED: non-zero exit without a structured envelope
//   - INVALID_ARGUMENTS: rejected locally before spawning
//   - SCHEMA_ERROR, CONFIG_ERROR: configuration calls without a backend code
//
// Codes the backend sends in its {"error", "code", "details"} envelope pass
// through unchanged.
package backend
