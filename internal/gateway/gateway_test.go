package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/velocitycmdb/velocitycmdb/internal/progress"
)

type stubLookup struct {
	buses map[string]*progress.Bus
}

func (s stubLookup) Bus(jobID string) (*progress.Bus, bool) {
	b, ok := s.buses[jobID]
	return b, ok
}

func newServer(t *testing.T, lookup JobLookup) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /jobs/{id}/ws", Handler(lookup))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, jobID string) string {
	return "ws" + srv.URL[len("http"):] + "/jobs/" + jobID + "/ws"
}

func TestHandlerUnknownJobReturns404(t *testing.T) {
	srv := newServer(t, stubLookup{buses: map[string]*progress.Bus{}})

	resp, err := http.Get(srv.URL + "/jobs/missing/ws")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestHandlerStreamsEventsUntilSummary(t *testing.T) {
	bus := progress.NewBus()
	srv := newServer(t, stubLookup{buses: map[string]*progress.Bus{"job-1": bus}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv, "job-1"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.CloseNow()

	go func() {
		time.Sleep(50 * time.Millisecond)
		bus.Publish(progress.Event{Type: progress.JobStart, JobID: "job-1"})
		bus.Publish(progress.Event{Type: progress.DeviceComplete, JobID: "job-1", Device: "sw1", Success: progress.BoolPtr(true)})
		bus.Publish(progress.Event{Type: progress.Summary, JobID: "job-1", Completed: 1, Total: 1})
	}()

	var got []progress.Event
	for {
		var e progress.Event
		if err := wsjson.Read(ctx, conn, &e); err != nil {
			t.Fatalf("Read() error = %v after %d events", err, len(got))
		}
		got = append(got, e)
		if e.Type == progress.Summary {
			break
		}
	}

	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	if got[0].Type != progress.JobStart || got[2].Type != progress.Summary {
		t.Errorf("events out of order: %+v", got)
	}
}

func TestHandlerClosesWhenBusCloses(t *testing.T) {
	bus := progress.NewBus()
	srv := newServer(t, stubLookup{buses: map[string]*progress.Bus{"job-2": bus}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv, "job-2"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.CloseNow()

	go func() {
		time.Sleep(20 * time.Millisecond)
		bus.Close()
	}()

	var e progress.Event
	err = wsjson.Read(ctx, conn, &e)
	if err == nil {
		t.Error("Read() after bus close should error (connection closed), got nil")
	}
}
