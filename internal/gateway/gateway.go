// Package gateway exposes internal/progress's event bus over a websocket,
// the only streaming surface the external interface carries (§6), using
// plain http.HandlerFunc handlers and coder/websocket for the upgrade.
package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/velocitycmdb/velocitycmdb/internal/progress"
)

// JobLookup resolves a job ID to the bus carrying its live events.
// *jobs.Registry satisfies this.
type JobLookup interface {
	Bus(jobID string) (*progress.Bus, bool)
}

// Handler streams job's progress events to a websocket client until the
// job completes, the client disconnects, or the request context ends.
func Handler(lookup JobLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := r.PathValue("id")

		bus, ok := lookup.Bus(jobID)
		if !ok {
			http.Error(w, "unknown job", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		ch, unsubscribe := bus.Subscribe(32)
		defer unsubscribe()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusNormalClosure, "request cancelled")
				return
			case e, ok := <-ch:
				if !ok {
					conn.Close(websocket.StatusNormalClosure, "job complete")
					return
				}
				writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				err := wsjson.Write(writeCtx, conn, e)
				cancel()
				if err != nil {
					conn.Close(websocket.StatusInternalError, "write failed")
					return
				}
				if e.Type == progress.Summary {
					conn.Close(websocket.StatusNormalClosure, "job complete")
					return
				}
			}
		}
	}
}
