// Package spectate mirrors a running game to browsers.
//
// The Hub is a session.Listener: every render snapshot is encoded once and
// fanned out to connected WebSocket subscribers. The stream is read-only;
// messages sent by clients are discarded, so nothing here can steer the game.
package spectate

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/gridsnake/game"
	"github.com/brensch/gridsnake/session"
)

const (
	writeWait      = 2 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = pongWait * 9 / 10
	subscriberBuf  = 16
	maxInboundSize = 512
)

// Point is a board cell on the wire.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Frame is the JSON document pushed to spectators.
type Frame struct {
	Type       string  `json:"type"` // "tick" or the session event name
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	Snake      []Point `json:"snake"`
	Food       *Point  `json:"food,omitempty"`
	Direction  string  `json:"direction"`
	Score      int     `json:"score"`
	Best       int     `json:"best"`
	Level      int     `json:"level"`
	Tick       int     `json:"tick"`
	Difficulty string  `json:"difficulty"`
	Status     string  `json:"status"`
	Cause      string  `json:"cause,omitempty"`
	IntervalMs float64 `json:"interval_ms"`
	Flash      bool    `json:"flash,omitempty"`
}

// NewFrame converts a snapshot for the wire.
func NewFrame(kind string, s game.Snapshot) Frame {
	body := make([]Point, len(s.Snake))
	for i, p := range s.Snake {
		body[i] = Point{X: p.X, Y: p.Y}
	}
	f := Frame{
		Type:       kind,
		Cols:       s.Cols,
		Rows:       s.Rows,
		Snake:      body,
		Direction:  s.Direction.String(),
		Score:      s.Score,
		Best:       s.Best,
		Level:      s.Level,
		Tick:       s.Tick,
		Difficulty: s.Difficulty.String(),
		Status:     s.Status.String(),
		IntervalMs: float64(s.Interval) / float64(time.Millisecond),
		Flash:      s.Flash,
	}
	if s.HasFood {
		f.Food = &Point{X: s.Food.X, Y: s.Food.Y}
	}
	if s.Cause != game.CauseNone {
		f.Cause = s.Cause.String()
	}
	return f
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
	done chan struct{}
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// Hub tracks subscribers and the latest frame.
type Hub struct {
	log *slog.Logger

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	latest []byte
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		log:  logger,
		subs: make(map[*subscriber]struct{}),
	}
}

func (h *Hub) OnTick(s game.Snapshot) {
	h.Publish(NewFrame("tick", s))
}

func (h *Hub) OnEvent(e session.Event) {
	h.Publish(NewFrame(e.Kind.String(), e.Snapshot))
}

// Publish encodes f, remembers it as the latest frame and queues it for
// every subscriber. It never blocks: a subscriber whose queue is full is
// disconnected.
func (h *Hub) Publish(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		h.log.Warn("encode frame", "err", err)
		return
	}

	h.mu.Lock()
	h.latest = data
	var slow []*subscriber
	for sub := range h.subs {
		select {
		case sub.send <- data:
		default:
			slow = append(slow, sub)
		}
	}
	for _, sub := range slow {
		delete(h.subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range slow {
		h.log.Info("dropping slow spectator", "remote", sub.conn.RemoteAddr().String())
		sub.close()
	}
}

// Latest returns the most recent encoded frame, or nil before the first.
func (h *Hub) Latest() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Serve runs a subscriber until its connection fails. The latest frame, if
// any, is sent first so a new spectator does not wait for the next tick.
func (h *Hub) Serve(conn *websocket.Conn) {
	sub := &subscriber{
		conn: conn,
		send: make(chan []byte, subscriberBuf),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.latest != nil {
		sub.send <- h.latest
	}
	h.subs[sub] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	h.log.Info("spectator connected", "remote", conn.RemoteAddr().String(), "spectators", n)

	go h.readLoop(sub)
	h.writeLoop(sub)

	h.mu.Lock()
	delete(h.subs, sub)
	n = len(h.subs)
	h.mu.Unlock()
	sub.close()
	h.log.Info("spectator disconnected", "remote", conn.RemoteAddr().String(), "spectators", n)
}

// readLoop drains client messages so control frames (pong, close) are
// processed. Content is ignored.
func (h *Hub) readLoop(sub *subscriber) {
	defer sub.close()
	sub.conn.SetReadLimit(maxInboundSize)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-sub.done:
			return
		case data := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ping.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.subs = make(map[*subscriber]struct{})
	h.mu.Unlock()

	for _, sub := range subs {
		_ = sub.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		sub.close()
	}
}
