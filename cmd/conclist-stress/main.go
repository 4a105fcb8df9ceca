// Command conclist-stress runs concurrent workloads against a
// conclist.List and reports what happened.
//
// Usage:
//
//	conclist-stress run --writers 8 --clear-every 1000
//	conclist-stress run --config stress.yaml --metrics-addr :9090
//	conclist-stress config > stress.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "conclist-stress: %v\n", err)
		stop()
		os.Exit(1)
	}
}
