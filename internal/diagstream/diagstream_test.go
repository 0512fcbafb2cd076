package diagstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"a68front/internal/diag"
)

func TestFmtIDMatchesDecimalRepresentation(t *testing.T) {
	cases := map[int]string{0: "0", 7: "7", 10: "10", 123: "123"}
	for n, want := range cases {
		if got := fmtID(n); got != want {
			t.Errorf("fmtID(%d) = %q, want %q", n, got, want)
		}
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server, *websocket.Conn) {
	t.Helper()
	s := NewServer()
	h := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.HandleUpgrade(w, r); err != nil {
			t.Errorf("HandleUpgrade: %v", err)
		}
	}))
	wsURL := "ws" + strings.TrimPrefix(h.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return s, h, conn
}

func TestHandleUpgradeRegistersClient(t *testing.T) {
	s, h, conn := newTestServer(t)
	defer h.Close()
	defer conn.Close()

	// Give the handler goroutine a moment to register the client before
	// asserting on server-side state.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		s.mu.RLock()
		n := len(s.clients)
		s.mu.RUnlock()
		if n == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("HandleUpgrade did not register a client within the deadline")
}

func TestBroadcastDeliversDiagnosticToConnectedClient(t *testing.T) {
	s, h, conn := newTestServer(t)
	defer h.Close()
	defer conn.Close()

	d := diag.Diagnostic{Severity: diag.Error, File: "t.a68", Line: 2, Column: 4, Message: "undeclared identifier %q", Args: []interface{}{"x"}}

	done := make(chan error, 1)
	go func() {
		done <- s.Broadcast(context.Background(), d)
	}()
	if err := <-done; err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal broadcast payload: %v", err)
	}
	if got["severity"] != "error" || got["file"] != "t.a68" {
		t.Errorf("broadcast payload = %+v, want severity=error file=t.a68", got)
	}
}

func TestStreamAllSendsEveryDiagnosticInOrder(t *testing.T) {
	s, h, conn := newTestServer(t)
	defer h.Close()
	defer conn.Close()

	sink := diag.NewSink()
	sink.Add(diag.Diagnostic{Severity: diag.Warning, File: "t.a68", Line: 1, Column: 1, Message: "first"})
	sink.Add(diag.Diagnostic{Severity: diag.Error, File: "t.a68", Line: 2, Column: 1, Message: "second"})

	done := make(chan error, 1)
	go func() {
		done <- s.StreamAll(context.Background(), sink)
	}()
	if err := <-done; err != nil {
		t.Fatalf("StreamAll: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i, want := range []string{"first", "second"} {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage #%d: %v", i, err)
		}
		var got map[string]interface{}
		if err := json.Unmarshal(payload, &got); err != nil {
			t.Fatalf("unmarshal message #%d: %v", i, err)
		}
		if msg, _ := got["message"].(string); !strings.Contains(msg, want) {
			t.Errorf("message #%d = %q, want it to contain %q", i, msg, want)
		}
	}
}
