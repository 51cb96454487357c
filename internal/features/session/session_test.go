package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go-dashboard/internal/config"
	"go-dashboard/internal/features/document"
	"go-dashboard/pkg/utils"

	"go.uber.org/zap"
)

var errConnClosed = errors.New("connection closed")

// MockConn feeds scripted frames to a session and records what it writes.
type MockConn struct {
	in     chan []byte
	done   chan struct{}
	once   sync.Once
	mu     sync.Mutex
	frames []OutboundMessage
}

func newMockConn() *MockConn {
	return &MockConn{in: make(chan []byte, 16), done: make(chan struct{})}
}

func (c *MockConn) ReadMessage() (int, []byte, error) {
	select {
	case msg := <-c.in:
		return 1, msg, nil
	case <-c.done:
		return 0, nil, errConnClosed
	}
}

func (c *MockConn) WriteMessage(_ int, data []byte) error {
	var raw struct {
		Type MessageType     `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	msg := OutboundMessage{Type: raw.Type}
	switch raw.Type {
	case MessageState:
		var v StateView
		_ = json.Unmarshal(raw.Data, &v)
		msg.Data = v
	case MessageError:
		var v ErrorData
		_ = json.Unmarshal(raw.Data, &v)
		msg.Data = v
	}
	c.mu.Lock()
	c.frames = append(c.frames, msg)
	c.mu.Unlock()
	return nil
}

func (c *MockConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *MockConn) send(t *testing.T, typ MessageType, data interface{}) {
	t.Helper()
	env := map[string]interface{}{"type": typ}
	if data != nil {
		env["data"] = data
	}
	b, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	c.in <- b
}

func (c *MockConn) lastState() (StateView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.frames) - 1; i >= 0; i-- {
		if v, ok := c.frames[i].Data.(StateView); ok && c.frames[i].Type == MessageState {
			return v, true
		}
	}
	return StateView{}, false
}

func (c *MockConn) has(typ MessageType, match func(OutboundMessage) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.frames {
		if f.Type == typ && (match == nil || match(f)) {
			return true
		}
	}
	return false
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func testConfig() *config.Config {
	return &config.Config{
		StoreDriver:         config.StoreMemory,
		CanvasWidth:         1200,
		CanvasHeight:        800,
		SyncDebounce:        20 * time.Millisecond,
		SyncEchoWindow:      2 * time.Second,
		PresenceHeartbeat:   time.Hour,
		PresenceSweep:       time.Hour,
		PresenceStaleAfter:  5 * time.Minute,
		SessionMessageRate:  1000,
		SessionMessageBurst: 1000,
	}
}

func startSession(t *testing.T, hub *Hub, claims *utils.UserClaims) (*Session, *MockConn) {
	t.Helper()
	conn := newMockConn()
	s := hub.NewSession(conn, claims)
	go func() { _ = s.Run(context.Background()) }()
	t.Cleanup(func() { _ = s.Close() })
	waitFor(t, func() bool {
		v, ok := conn.lastState()
		return ok && !v.IsLoading
	})
	return s, conn
}

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    MessageType
		wantErr error
	}{
		{name: "Ping", raw: `{"type":"ping"}`, want: MessagePing},
		{name: "Drop", raw: `{"type":"drop","data":{"payload":{"type":"text"},"x":1,"y":2}}`, want: MessageDrop},
		{name: "Unknown", raw: `{"type":"explode"}`, wantErr: ErrUnknownMessage},
		{name: "Outbound Type", raw: `{"type":"state"}`, wantErr: ErrUnknownMessage},
		{name: "Malformed", raw: `{"type":`, wantErr: ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope([]byte(tt.raw))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || env.Type != tt.want {
				t.Errorf("ParseEnvelope() = %v, %v", env.Type, err)
			}
		})
	}
}

func TestEnvelopeDecodeRequiresData(t *testing.T) {
	env := Envelope{Type: MessageMove}
	var d MoveData
	if err := env.Decode(&d); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestSessionDropSyncsToDocument(t *testing.T) {
	repo := document.NewMemoryRepository()
	hub := NewHub(repo, testConfig(), zap.NewNop())
	_, conn := startSession(t, hub, nil)

	conn.send(t, MessageDrop, DropData{Payload: json.RawMessage(`{"type":"text"}`), X: 50, Y: 50})

	waitFor(t, func() bool {
		v, _ := conn.lastState()
		return len(v.Widgets) == 1
	})
	v, _ := conn.lastState()
	if v.DashboardID != "demo-dashboard" || v.Widgets[0].X != 50 {
		t.Errorf("unexpected state %+v", v)
	}

	waitFor(t, func() bool {
		doc, err := repo.Get(context.Background(), "demo-dashboard")
		return err == nil && len(doc.Widgets) == 1 && doc.LastModifiedBy == v.WriterID
	})
}

func TestSessionRejectsOverlappingMove(t *testing.T) {
	hub := NewHub(document.NewMemoryRepository(), testConfig(), zap.NewNop())
	_, conn := startSession(t, hub, nil)

	conn.send(t, MessageDrop, DropData{Payload: json.RawMessage(`{"type":"text"}`), X: 0, Y: 0})
	conn.send(t, MessageDrop, DropData{Payload: json.RawMessage(`{"type":"text"}`), X: 400, Y: 0})
	waitFor(t, func() bool {
		v, _ := conn.lastState()
		return len(v.Widgets) == 2
	})
	v, _ := conn.lastState()
	second := v.Widgets[1].ID

	conn.send(t, MessageMove, MoveData{ID: second, X: 100, Y: 0})
	waitFor(t, func() bool {
		v, _ := conn.lastState()
		return len(v.Overlapping) == 1 && v.Overlapping[0] == second
	})
	v, _ = conn.lastState()
	if v.Widgets[1].X != 400 {
		t.Errorf("overlapping move applied: x = %v", v.Widgets[1].X)
	}
}

func TestSessionErrorsAndPing(t *testing.T) {
	hub := NewHub(document.NewMemoryRepository(), testConfig(), zap.NewNop())
	_, conn := startSession(t, hub, nil)

	conn.send(t, MessagePing, nil)
	conn.send(t, "explode", nil)
	conn.send(t, MessageSetTheme, ThemeData{Theme: "sepia"})

	waitFor(t, func() bool { return conn.has(MessagePong, nil) })
	waitFor(t, func() bool {
		return conn.has(MessageError, func(m OutboundMessage) bool {
			return m.Data.(ErrorData).Message == `unknown message type: "explode"`
		})
	})
	waitFor(t, func() bool {
		return conn.has(MessageError, func(m OutboundMessage) bool {
			return m.Data.(ErrorData).Message == `unknown theme "sepia"`
		})
	})
}

func TestSessionRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.SessionMessageRate = 0.001
	cfg.SessionMessageBurst = 1
	hub := NewHub(document.NewMemoryRepository(), cfg, zap.NewNop())
	_, conn := startSession(t, hub, nil)

	conn.send(t, MessagePing, nil)
	conn.send(t, MessagePing, nil)

	waitFor(t, func() bool {
		return conn.has(MessageError, func(m OutboundMessage) bool {
			return m.Data.(ErrorData).Message == ErrRateLimited.Error()
		})
	})
}

func TestSessionAuthRebinds(t *testing.T) {
	utils.SetSecret("test-secret")
	token, _ := utils.GenerateToken("uid-7", "u@example.com", time.Hour)

	repo := document.NewMemoryRepository()
	hub := NewHub(repo, testConfig(), zap.NewNop())
	s, conn := startSession(t, hub, nil)

	if info := s.Info(); info.DashboardID != "demo-dashboard" {
		t.Fatalf("anonymous session bound to %q", info.DashboardID)
	}
	anonymous := s.Info().WriterID

	conn.send(t, MessageAuth, AuthData{Token: token})
	waitFor(t, func() bool {
		v, _ := conn.lastState()
		return v.DashboardID == "dashboard-uid-7" && v.WriterID == "uid-7" && !v.IsLoading
	})

	waitFor(t, func() bool {
		records, _ := repo.ListPresence(context.Background(), "demo-dashboard")
		for _, p := range records {
			if p.UserID == anonymous {
				return !p.IsOnline
			}
		}
		return false
	})

	doc, err := repo.Get(context.Background(), "dashboard-uid-7")
	if err != nil {
		t.Fatalf("dashboard not created: %v", err)
	}
	if doc.UserID != "uid-7" || doc.UserEmail != "u@example.com" {
		t.Errorf("unexpected owner fields %+v", doc)
	}

	conn.send(t, MessageAuth, AuthData{Token: "bogus"})
	waitFor(t, func() bool {
		return conn.has(MessageError, func(m OutboundMessage) bool {
			return strings.HasPrefix(m.Data.(ErrorData).Message, "invalid token:")
		})
	})
	if got := s.Info().DashboardID; got != "dashboard-uid-7" {
		t.Errorf("bad token changed binding to %q", got)
	}
}

func TestHubSessionsAndShutdown(t *testing.T) {
	repo := document.NewMemoryRepository()
	hub := NewHub(repo, testConfig(), zap.NewNop())
	a, _ := startSession(t, hub, nil)
	_, _ = startSession(t, hub, &utils.UserClaims{UserID: "uid-1"})

	if hub.Count() != 2 {
		t.Fatalf("Count() = %d", hub.Count())
	}
	demo := hub.Sessions("demo-dashboard")
	if len(demo) != 1 || demo[0].SessionID != a.ID() {
		t.Errorf("Sessions(demo) = %+v", demo)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := hub.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if hub.Count() != 0 {
		t.Errorf("sessions left after shutdown: %d", hub.Count())
	}

	records, _ := repo.ListPresence(context.Background(), "dashboard-uid-1")
	if len(records) != 1 || records[0].IsOnline {
		t.Errorf("expected offline presence after shutdown, got %+v", records)
	}
}
