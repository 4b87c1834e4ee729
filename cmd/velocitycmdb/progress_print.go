package main

import (
	"fmt"

	"github.com/velocitycmdb/velocitycmdb/internal/progress"
)

// newCLIBus creates the bus a synchronous CLI subcommand runs an engine
// against, so printProgress has something to subscribe to.
func newCLIBus() *progress.Bus {
	return progress.NewBus()
}

// printProgress subscribes to bus and prints a human-readable line per
// event until the caller's run finishes and unsubscribe is invoked. The
// CLI's JSON-mode equivalent reads the same bus (§9 "the same bytes go to
// WebSocket clients and to CLI JSON mode") via the /jobs/{id}/ws route
// instead, so this is deliberately the plain-text rendering only.
func printProgress(bus *progress.Bus) func() {
	ch, unsubscribe := bus.Subscribe(64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range ch {
			switch e.Type {
			case progress.JobStart:
				fmt.Printf("[start] %s\n", e.Message)
			case progress.DeviceStart:
				fmt.Printf("[device] %s ...\n", e.Device)
			case progress.DeviceComplete:
				status := "ok"
				if e.Success != nil && !*e.Success {
					status = "failed: " + e.Message
				}
				fmt.Printf("[device] %s %s\n", e.Device, status)
			case progress.JobComplete:
				fmt.Println("[done]")
			case progress.ErrorEvent:
				fmt.Printf("[error] %s\n", e.Message)
			}
		}
	}()
	return func() {
		unsubscribe()
		<-done
	}
}
