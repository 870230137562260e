package main

// Notes:
// - notifyContext: context creation, stop() and parent propagation. Actual
//   signal delivery is not tested.

import (
	"context"
	"testing"
	"time"
)

func TestNotifyContext(t *testing.T) {
	t.Parallel()

	t.Run("starts live and stop cancels", func(t *testing.T) {
		t.Parallel()

		ctx, stop := notifyContext(context.Background())
		select {
		case <-ctx.Done():
			t.Fatal("context should not start canceled")
		default:
		}

		stop()
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Error("stop() should cancel the context")
		}
	})

	t.Run("parent cancellation propagates", func(t *testing.T) {
		t.Parallel()

		parent, cancel := context.WithCancel(context.Background())
		ctx, stop := notifyContext(parent)
		defer stop()

		cancel()
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Error("parent cancel should propagate")
		}
	})
}
