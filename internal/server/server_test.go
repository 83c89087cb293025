package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/orrery/internal/command"
	"github.com/san-kum/orrery/internal/config"
	"github.com/san-kum/orrery/internal/sim"
	"golang.org/x/time/rate"
)

func newSim(t *testing.T) *sim.Simulation {
	t.Helper()
	s, err := sim.New(config.GetPreset("inner"), sim.WithRand(rand.New(rand.NewSource(5))))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func postCommand(t *testing.T, url string, body string) (*http.Response, command.Result) {
	t.Helper()
	resp, err := http.Post(url+"/command", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var res command.Result
	data, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(data, &res)
	return resp, res
}

func TestClientLimiter(t *testing.T) {
	l := NewClientLimiter(rate.Limit(0.001), 2)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst of 2 should pass")
	}
	if l.Allow("a") {
		t.Error("third command should be limited")
	}
	if !l.Allow("b") {
		t.Error("clients must not share buckets")
	}
	if l.GetLimiter("b") != l.GetLimiter("b") {
		t.Error("limiter should be reused per client")
	}

	l.Forget("a")
	if !l.Allow("a") {
		t.Error("forgotten client should start with a full bucket")
	}
}

func TestClientLimiterEvictsIdleClients(t *testing.T) {
	l := NewClientLimiter(rate.Limit(100), 10)
	clock := time.Unix(1000, 0)
	l.now = func() time.Time { return clock }

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		l.Allow(ip)
	}
	if l.Len() != 3 {
		t.Fatalf("tracked = %d, want 3", l.Len())
	}

	clock = clock.Add(DefaultLimiterIdle / 2)
	l.Allow("10.0.0.1")

	clock = clock.Add(DefaultLimiterIdle * 3 / 4)
	l.Allow("10.0.0.4")
	// .1 was seen within the period; .2 and .3 went idle
	if l.Len() != 2 {
		t.Errorf("tracked = %d after sweep, want 2", l.Len())
	}
}

func TestClientLimiterIdleCoversRefill(t *testing.T) {
	l := NewClientLimiter(rate.Limit(0.01), 5)
	if l.idle < 500*time.Second {
		t.Errorf("idle = %v, shorter than the 500s refill", l.idle)
	}
}

func TestHTTPCommandsDoNotAccumulateBuckets(t *testing.T) {
	s := newSim(t)
	srv := New(s, Config{CommandRate: 100, CommandBurst: 10})
	clock := time.Unix(1000, 0)
	srv.limiter.now = func() time.Time { return clock }
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	if resp, _ := postCommand(t, ts.URL, `{"op":"pause"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if srv.limiter.Len() != 1 {
		t.Fatalf("tracked = %d, want 1", srv.limiter.Len())
	}

	clock = clock.Add(2 * DefaultLimiterIdle)
	srv.limiter.Allow("192.0.2.1")
	if srv.limiter.Len() != 1 {
		t.Errorf("idle HTTP client still tracked: %d buckets", srv.limiter.Len())
	}
}

func TestHTTPCommands(t *testing.T) {
	s := newSim(t)
	srv := New(s, Config{CommandRate: 100, CommandBurst: 10})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"speed", `{"op":"speed_scale","value":2}`, http.StatusOK},
		{"pause", `{"op":"pause"}`, http.StatusOK},
		{"negative speed", `{"op":"speed_scale","value":-1}`, http.StatusUnprocessableEntity},
		{"unknown op", `{"op":"warp"}`, http.StatusUnprocessableEntity},
		{"period by name", `{"op":"orbital_period","body":"mars","unit":"day"}`, http.StatusOK},
		{"bad json", `{"op":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, res := postCommand(t, ts.URL, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (%+v)", resp.StatusCode, tt.status, res)
			}
		})
	}

	resp, err := http.Get(ts.URL + "/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var snap sim.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.GlobalSpeed != 2 || snap.Playing || len(snap.Bodies) != 4 {
		t.Errorf("unexpected state: speed %v playing %v bodies %d", snap.GlobalSpeed, snap.Playing, len(snap.Bodies))
	}

	resp, err = http.Get(ts.URL + "/command")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /command = %d", resp.StatusCode)
	}
}

func TestRateLimitAndMetrics(t *testing.T) {
	s := newSim(t)
	reg := prometheus.NewRegistry()
	srv := New(s, Config{CommandRate: rate.Limit(0.001), CommandBurst: 1}, WithMetrics(reg, reg))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	if resp, _ := postCommand(t, ts.URL, `{"op":"pause"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("first command = %d", resp.StatusCode)
	}
	resp, res := postCommand(t, ts.URL, `{"op":"play"}`)
	if resp.StatusCode != http.StatusTooManyRequests || res.Error != ErrRateLimited.Error() {
		t.Errorf("second command = %d %+v", resp.StatusCode, res)
	}
	var playing bool
	s.Do(func(sm *sim.Simulation) { playing = sm.Playing() })
	if playing {
		t.Error("limited command must not run")
	}

	mresp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer mresp.Body.Close()
	body, _ := io.ReadAll(mresp.Body)
	if !bytes.Contains(body, []byte("orrery_commands_rejected_total 1")) {
		t.Errorf("metrics missing rejection:\n%s", body)
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, typ string) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var m Message
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v", err)
		}
		if m.Type == typ {
			return m
		}
	}
}

func TestWebSocket(t *testing.T) {
	s := newSim(t)
	srv := New(s, Config{StreamInterval: 20 * time.Millisecond})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	first := readUntil(t, conn, "state")
	if first.State == nil || len(first.State.Bodies) != 4 {
		t.Fatalf("first message should carry the state, got %+v", first)
	}

	if err := conn.WriteJSON(command.Command{Op: command.OpSpeedScale, Value: 3}); err != nil {
		t.Fatal(err)
	}
	res := readUntil(t, conn, "result")
	if res.Result == nil || res.Result.Error != "" || res.Result.Op != command.OpSpeedScale {
		t.Fatalf("unexpected result %+v", res.Result)
	}

	state := readUntil(t, conn, "state")
	if state.State.GlobalSpeed != 3 {
		t.Errorf("streamed speed = %v", state.State.GlobalSpeed)
	}

	if err := conn.WriteJSON(command.Command{Op: command.OpManualMultiplier, Body: "pluto", Value: 2}); err != nil {
		t.Fatal(err)
	}
	res = readUntil(t, conn, "result")
	if res.Result.Error == "" {
		t.Error("unknown body should report an error")
	}
}

func TestListenAndServeStops(t *testing.T) {
	s := newSim(t)
	srv := New(s, Config{Addr: "127.0.0.1:0", FPS: 120})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(150*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ListenAndServe: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}

	if s.Snapshot().Frames == 0 {
		t.Error("the loop should have run while serving")
	}
}
