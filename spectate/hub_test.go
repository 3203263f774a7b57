package spectate

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/gridsnake/game"
	"github.com/brensch/gridsnake/session"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("decode: %v\n%s", err, data)
	}
	return f
}

func waitSubscribers(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Count() != n {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers=%d want=%d", h.Count(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewFrame(t *testing.T) {
	st := game.NewState(game.DefaultConfig, 30, game.Hard, rand.New(rand.NewSource(1)))
	st.Status = game.Over
	st.Cause = game.CauseWall
	f := NewFrame("game_over", st.Snapshot(110*time.Millisecond, true))

	if f.Type != "game_over" || f.Status != "over" || f.Cause != "wall" {
		t.Fatalf("frame=%+v", f)
	}
	if len(f.Snake) != 2 || f.Snake[1] != (Point{X: 10, Y: 10}) {
		t.Fatalf("snake=%v", f.Snake)
	}
	if f.Food == nil || f.IntervalMs != 110 || !f.Flash || f.Best != 30 || f.Difficulty != "hard" {
		t.Fatalf("frame=%+v", f)
	}

	st.Cause = game.CauseNone
	if f := NewFrame("tick", st.Snapshot(0, false)); f.Cause != "" {
		t.Fatalf("cause=%q want empty", f.Cause)
	}
}

func TestHub_StreamsTicksAndEvents(t *testing.T) {
	hub := NewHub(quietLogger())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	c := session.New(game.DefaultConfig, nil,
		session.WithRand(rand.New(rand.NewSource(2))),
		session.WithListener(hub),
	)
	c.Render()

	conn := dial(t, srv)
	// The latest frame is replayed on connect.
	first := readFrame(t, conn)
	if first.Type != "tick" || first.Status != "ready" {
		t.Fatalf("first=%+v", first)
	}
	waitSubscribers(t, hub, 1)

	c.Start()
	if f := readFrame(t, conn); f.Type != "started" || f.Status != "running" {
		t.Fatalf("start frame=%+v", f)
	}
	c.Step()
	if f := readFrame(t, conn); f.Type != "tick" || f.Tick != 1 {
		t.Fatalf("tick frame=%+v", f)
	}
}

func TestHub_StateEndpoint(t *testing.T) {
	hub := NewHub(quietLogger())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status=%d before any frame", resp.StatusCode)
	}

	st := game.NewState(game.DefaultConfig, 0, game.Normal, nil)
	hub.OnTick(st.Snapshot(0, false))

	resp, err = http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var f Frame
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		t.Fatal(err)
	}
	if f.Cols != 20 || f.Status != "ready" {
		t.Fatalf("frame=%+v", f)
	}

	h, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	h.Body.Close()
	if h.StatusCode != http.StatusOK {
		t.Fatalf("healthz=%d", h.StatusCode)
	}
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	hub := NewHub(quietLogger())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	_ = dial(t, srv) // never reads
	waitSubscribers(t, hub, 1)

	st := game.NewState(game.DefaultConfig, 0, game.Normal, nil)
	snap := st.Snapshot(0, false)
	// Large frames fill the socket buffers so the queue backs up.
	for i := 0; i < 1000 && hub.Count() > 0; i++ {
		snap.Tick = i
		snap.Snake = make([]game.Point, 2000)
		hub.OnTick(snap)
	}
	if hub.Count() != 0 {
		t.Fatalf("slow subscriber still connected")
	}
}

func TestHub_CloseDisconnects(t *testing.T) {
	hub := NewHub(quietLogger())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	waitSubscribers(t, hub, 1)
	hub.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestListen_Shutdown(t *testing.T) {
	hub := NewHub(quietLogger())
	s, err := Listen("127.0.0.1:0", hub, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

