package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Error codes produced locally. Codes sent by the backend pass through verbatim.
const (
	CodeTimeout          = "TIMEOUT"
	CodeParse            = "PARSE_ERROR"
	CodeCommandFailed    = "COMMAND_FAILED"
	CodeInvalidArguments = "INVALID_ARGUMENTS"
	CodeSchema           = "SCHEMA_ERROR"
	CodeConfig           = "CONFIG_ERROR"
)

// Error is a classified gateway failure.
type Error struct {
	Code    string
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// HasCode reports whether err is a gateway error with the given code.
func HasCode(err error, code string) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Code == code
}

// UserMessage renders err for display: the message, suffixed with the
// details when the backend supplied them.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		if gwErr.Details != "" {
			return gwErr.Message + ": " + gwErr.Details
		}
		return gwErr.Message
	}
	return err.Error()
}

// withDefaultCode fills in code on backend envelopes that omitted one.
func withDefaultCode(err error, code string) error {
	var gwErr *Error
	if errors.As(err, &gwErr) && gwErr.Code == "" {
		gwErr.Code = code
	}
	return err
}

// decodeEnvelope returns the error carried by a JSON object with a non-null
// top-level "error" key, or nil.
func decodeEnvelope(data []byte) *Error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil
	}
	return envelopeFrom(fields)
}

func envelopeFrom(fields map[string]json.RawMessage) *Error {
	raw, ok := fields["error"]
	if !ok || isNull(raw) {
		return nil
	}
	msg := rawText(raw)
	if msg == "" {
		msg = "backend reported an error"
	}
	return &Error{
		Code:    rawText(fields["code"]),
		Message: msg,
		Details: rawText(fields["details"]),
	}
}

// processFailure classifies a non-zero exit or spawn failure. Structured
// envelopes on stderr win over stdout; anything else is COMMAND_FAILED.
func processFailure(stdout, stderr []byte, cause error) error {
	for _, candidate := range [][]byte{stderr, stdout} {
		if env := decodeEnvelope(candidate); env != nil {
			env.Err = cause
			return env
		}
	}
	text := strings.TrimSpace(string(stderr))
	if text == "" {
		text = strings.TrimSpace(string(stdout))
	}
	if text == "" && cause != nil {
		text = cause.Error()
	}
	return &Error{Code: CodeCommandFailed, Message: text, Err: cause}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func rawText(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func truthy(raw json.RawMessage) bool {
	if isNull(raw) {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}
