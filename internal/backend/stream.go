package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"time"
)

// ProgressFunc receives install/remove progress. It is called from the
// gateway's reader goroutine.
type ProgressFunc func(percentage int, message string)

// lineBuffer accumulates stdout chunks and yields complete lines.
type lineBuffer struct {
	buf []byte
}

func (b *lineBuffer) Write(chunk []byte) [][]byte {
	b.buf = append(b.buf, chunk...)
	var lines [][]byte
	for {
		i := bytes.IndexByte(b.buf, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSpace(b.buf[:i])
		if len(line) > 0 {
			lines = append(lines, append([]byte(nil), line...))
		}
		b.buf = b.buf[i+1:]
	}
	return lines
}

// Flush returns whatever unterminated text is left.
func (b *lineBuffer) Flush() []byte {
	tail := bytes.TrimSpace(b.buf)
	b.buf = nil
	return tail
}

type streamRecord struct {
	progress   bool
	percentage int
	message    string
	success    bool
	err        *Error
}

// parseRecord decodes one NDJSON line. ok is false for lines that are not
// JSON objects; the caller skips those.
func parseRecord(line []byte) (streamRecord, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return streamRecord{}, false
	}
	if rawText(fields["type"]) == "progress" {
		rec := streamRecord{progress: true, message: rawText(fields["message"])}
		var pct float64
		if err := json.Unmarshal(fields["percentage"], &pct); err == nil {
			rec.percentage = int(pct)
		}
		return rec, true
	}
	if env := envelopeFrom(fields); env != nil {
		return streamRecord{err: env}, true
	}
	return streamRecord{success: truthy(fields["success"])}, true
}

// InvokeStreaming runs a long-running command whose stdout is
// newline-delimited JSON. Progress records go to onProgress; a success
// record resolves, an error record rejects. There is no deadline beyond ctx.
func (g *Gateway) InvokeStreaming(ctx context.Context, command string, args []string, onProgress ProgressFunc, opts ...CallOption) error {
	co := g.options(opts)
	name, argv := g.argv(command, args, co)

	s := newSettler[struct{}]()
	dispatch := func(line []byte) {
		rec, ok := parseRecord(line)
		if !ok || s.settled() {
			return
		}
		switch {
		case rec.progress:
			if onProgress != nil {
				onProgress(rec.percentage, rec.message)
			}
		case rec.err != nil:
			s.settle(struct{}{}, rec.err)
		case rec.success:
			s.settle(struct{}{}, nil)
		}
	}

	start := time.Now()
	go func() {
		var lines lineBuffer
		stderr, err := g.runner.Stream(ctx, name, argv, func(chunk []byte) {
			for _, line := range lines.Write(chunk) {
				dispatch(line)
			}
		})
		if tail := lines.Flush(); len(tail) > 0 {
			dispatch(tail)
		}
		if err != nil {
			if ctx.Err() != nil {
				s.settle(struct{}{}, ctx.Err())
				return
			}
			s.settle(struct{}{}, processFailure(nil, stderr, err))
			return
		}
		s.settle(struct{}{}, nil)
	}()

	_, err := s.wait()
	g.logCall(command, args, co, time.Since(start), err)
	return err
}
