// Package safego provides a panic-recovering goroutine launcher for background work.
package safego

import (
	"log/slog"
	"runtime/debug"
)

// Go launches fn in a new goroutine. If fn panics, the panic is recovered and
// logged with its stack rather than crashing the process. Used for all
// fire-and-forget goroutines (audit recording, shipper flushing, stats
// collection) where an unrecovered panic would silently kill the goroutine
// forever.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered panic in background goroutine",
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	}()
}
