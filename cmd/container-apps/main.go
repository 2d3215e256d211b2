package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/hatlabs/cockpit-container-apps/internal/backend"
	"github.com/hatlabs/cockpit-container-apps/internal/configform"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(defaultEnv()).ExecuteContext(ctx); err != nil {
		printError(err)
		return 1
	}
	return 0
}

func printError(err error) {
	var verr *configform.ValidationError
	if errors.As(err, &verr) {
		ids := make([]string, 0, len(verr.Fields))
		for id := range verr.Fields {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		fmt.Fprintln(os.Stderr, "container-apps: invalid configuration")
		for _, id := range ids {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", id, verr.Fields[id])
		}
		return
	}
	fmt.Fprintf(os.Stderr, "container-apps: %s\n", backend.UserMessage(err))
}
