package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
)

type opKind int

const (
	opInstall opKind = iota
	opRemove
)

func (k opKind) verb() string {
	if k == opRemove {
		return "Removing"
	}
	return "Installing"
}

func (k opKind) past() string {
	if k == opRemove {
		return "Removed"
	}
	return "Installed"
}

// operation is an install or remove in flight. Progress arrives on events
// and the channel is closed after the final operationDoneMsg.
type operation struct {
	kind    opKind
	pkg     string
	seq     int
	percent int
	message string
	events  chan tea.Msg
	cancel  context.CancelFunc
}

// startOperation runs the streaming command in the background and returns
// the operation plus the command that delivers its first event.
func startOperation(ctx context.Context, client backend.API, kind opKind, pkg string, seq int) (*operation, tea.Cmd) {
	ctx, cancel := context.WithCancel(ctx)
	op := &operation{
		kind:   kind,
		pkg:    pkg,
		seq:    seq,
		events: make(chan tea.Msg, 16),
		cancel: cancel,
	}

	go func() {
		defer close(op.events)
		defer cancel()
		onProgress := func(percent int, message string) {
			select {
			case op.events <- progressMsg{seq: seq, percent: percent, message: message}:
			case <-ctx.Done():
			}
		}
		var err error
		if kind == opRemove {
			err = client.Remove(ctx, pkg, onProgress)
		} else {
			err = client.Install(ctx, pkg, onProgress)
		}
		select {
		case op.events <- operationDoneMsg{seq: seq, kind: kind, pkg: pkg, err: err}:
		case <-ctx.Done():
		}
	}()

	return op, waitForEvent(op.events)
}
