package wsfeed

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ghalamif/NetCandle/internal/adapters/observability"
	"github.com/ghalamif/NetCandle/internal/domain"
)

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, h.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastsScenes(t *testing.T) {
	h := NewHub(observability.Nop{}, 4)
	srv := httptest.NewServer(h)
	defer srv.Close()

	if err := h.Publish(&domain.Scene{Cycle: 1, Capacity: 40}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitClients(t, h, 1)

	if err := h.Publish(&domain.Scene{Cycle: 2, Capacity: 40}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	for _, want := range []uint64{1, 2} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var sc domain.Scene
		if err := json.Unmarshal(data, &sc); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if sc.Cycle != want {
			t.Fatalf("expected cycle %d, got %d", want, sc.Cycle)
		}
	}

	conn.Close()
	waitClients(t, h, 0)
}

func TestHubDropsSlowClient(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := observability.NewPromObs(reg, nil)
	h := NewHub(obs, 1)

	slow := &client{send: make(chan []byte, 1)}
	h.clients[slow] = struct{}{}

	_ = h.Publish(&domain.Scene{Cycle: 1})
	_ = h.Publish(&domain.Scene{Cycle: 2})

	if h.Clients() != 0 {
		t.Fatalf("expected slow client to be dropped")
	}
	if _, ok := <-slow.send; !ok {
		t.Fatalf("expected the first scene to remain buffered")
	}
	if _, ok := <-slow.send; ok {
		t.Fatalf("expected send channel closed")
	}
	expected := `
# HELP netcandle_ws_clients_dropped_total WebSocket clients disconnected for falling behind.
# TYPE netcandle_ws_clients_dropped_total counter
netcandle_ws_clients_dropped_total 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "netcandle_ws_clients_dropped_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}
