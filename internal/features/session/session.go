package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go-dashboard/internal/features/board"
	"go-dashboard/internal/features/canvas"
	"go-dashboard/internal/features/realtime"
	"go-dashboard/internal/features/widget"
	"go-dashboard/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	outboundBuffer = 64
	writeTimeout   = 5 * time.Second
)

// Conn is the part of a websocket connection a session uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// binding is the per-dashboard part of a session. It is replaced when the
// session's identity changes.
type binding struct {
	identity    realtime.Identity
	dashboardID string
	store       *board.Store
	canvas      *canvas.Controller
	engine      *realtime.Engine
	unsubscribe func()
}

// Session is one connected tab: a websocket, its writer identity and the
// store, canvas and sync engine bound to its dashboard.
type Session struct {
	id          string
	hub         *Hub
	conn        Conn
	resolver    *realtime.IdentityResolver
	limiter     *rate.Limiter
	log         *zap.Logger
	connectedAt time.Time

	out   chan []byte
	dirty chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	current *binding
	retired []*realtime.Engine
	closed  bool
}

func newSession(h *Hub, conn Conn, claims *utils.UserClaims) *Session {
	id := uuid.NewString()
	resolver := realtime.NewIdentityResolver()
	if claims != nil {
		resolver.SetAuthUser(claims.UserID, claims.Email)
	}
	return &Session{
		id:          id,
		hub:         h,
		conn:        conn,
		resolver:    resolver,
		limiter:     rate.NewLimiter(rate.Limit(h.cfg.SessionMessageRate), h.cfg.SessionMessageBurst),
		log:         h.log.With(zap.String("sessionId", id)),
		connectedAt: time.Now(),
		out:         make(chan []byte, outboundBuffer),
		dirty:       make(chan struct{}, 1),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := Info{SessionID: s.id, ConnectedAt: s.connectedAt}
	if s.current != nil {
		info.DashboardID = s.current.dashboardID
		info.WriterID = s.current.identity.WriterID
	}
	return info
}

// Run binds the session to its dashboard and serves the connection until
// it is closed by either side.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return ErrSessionClosed
	}
	s.cancel = cancel
	s.mu.Unlock()
	defer s.Close()

	if err := s.bind(ctx); err != nil {
		return err
	}

	go s.writeLoop(ctx)
	s.markDirty()

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			s.log.Debug("Websocket read ended", zap.Error(err))
			return nil
		}
		if !s.limiter.Allow() {
			s.sendError(ErrRateLimited)
			continue
		}
		if err := s.Handle(ctx, msg); err != nil {
			s.log.Debug("Rejected message", zap.Error(err))
			s.sendError(err)
		}
	}
}

// Handle applies one inbound frame.
func (s *Session) Handle(ctx context.Context, raw []byte) error {
	env, err := ParseEnvelope(raw)
	if err != nil {
		return err
	}

	if env.Type == MessagePing {
		s.send(OutboundMessage{Type: MessagePong})
		return nil
	}
	if env.Type == MessageAuth {
		var d AuthData
		if len(env.Data) > 0 {
			if err := env.Decode(&d); err != nil {
				return err
			}
		}
		return s.authenticate(ctx, d.Token)
	}

	b := s.bound()
	if b == nil {
		return ErrSessionClosed
	}
	cv := b.canvas

	switch env.Type {
	case MessageDrop:
		var d DropData
		if err := env.Decode(&d); err != nil {
			return err
		}
		_, err := cv.Drop(d.Payload, d.X, d.Y)
		return err

	case MessageQuickAdd:
		var d QuickAddData
		if err := env.Decode(&d); err != nil {
			return err
		}
		_, err := cv.QuickAdd(widget.Type(d.WidgetType))
		return err

	case MessageMove:
		var d MoveData
		if err := env.Decode(&d); err != nil {
			return err
		}
		cv.CommitMove(d.ID, d.X, d.Y)
		s.markDirty()

	case MessageResize:
		var d ResizeData
		if err := env.Decode(&d); err != nil {
			return err
		}
		cv.CommitResize(d.ID, d.X, d.Y, d.Width, d.Height)
		s.markDirty()

	case MessageSelect:
		var d IDData
		if len(env.Data) > 0 {
			if err := env.Decode(&d); err != nil {
				return err
			}
		}
		cv.Select(d.ID)

	case MessageDelete:
		var d IDData
		if err := env.Decode(&d); err != nil {
			return err
		}
		cv.Delete(d.ID)
		s.markDirty()

	case MessageDeleteSelected:
		cv.DeleteSelected()
		s.markDirty()

	case MessageUpdateProps:
		var d UpdatePropsData
		if err := env.Decode(&d); err != nil {
			return err
		}
		cv.UpdateProperties(d.ID, d.Data)

	case MessageSetTheme:
		var d ThemeData
		if err := env.Decode(&d); err != nil {
			return err
		}
		return cv.SetTheme(board.Theme(d.Theme))

	case MessageClearCanvas:
		cv.ClearCanvas()
		s.markDirty()
	}
	return nil
}

// authenticate re-derives the writer identity from token. An empty token
// signs the session out. The session is rebound when the identity changes.
func (s *Session) authenticate(ctx context.Context, token string) error {
	if token == "" {
		s.resolver.SetAuthUser("", "")
	} else {
		claims, err := utils.ValidateToken(token)
		if err != nil {
			return fmt.Errorf("invalid token: %w", err)
		}
		s.resolver.SetAuthUser(claims.UserID, claims.Email)
	}

	b := s.bound()
	if b != nil && b.identity == s.resolver.Current() {
		return nil
	}

	s.log.Info("Session identity changed, rebinding")
	if err := s.unbind(); err != nil {
		s.log.Warn("Failed to release previous dashboard", zap.Error(err))
	}
	if err := s.bind(ctx); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

func (s *Session) bind(ctx context.Context) error {
	identity := s.resolver.Current()
	dashboardID := realtime.DashboardID(identity.UserID)
	log := s.log.With(zap.String("dashboardId", dashboardID), zap.String("writer", identity.WriterID))

	store := board.NewStore(log)
	b := &binding{
		identity:    identity,
		dashboardID: dashboardID,
		store:       store,
		canvas:      canvas.NewController(store, s.hub.cfg.CanvasWidth, s.hub.cfg.CanvasHeight, log),
		engine:      realtime.NewEngine(s.hub.repo, store, identity, dashboardID, s.hub.opts, log),
	}
	b.unsubscribe = store.Subscribe(func(board.Intent, board.State) { s.markDirty() })

	if err := b.engine.Start(ctx); err != nil {
		b.unsubscribe()
		return fmt.Errorf("start sync for %s: %w", dashboardID, err)
	}

	s.mu.Lock()
	if s.closed {
		s.retired = append(s.retired, b.engine)
		s.mu.Unlock()
		b.unsubscribe()
		return multierr.Append(ErrSessionClosed, b.engine.Close())
	}
	s.current = b
	s.mu.Unlock()
	return nil
}

func (s *Session) unbind() error {
	s.mu.Lock()
	b := s.current
	s.current = nil
	if b != nil {
		s.retired = append(s.retired, b.engine)
	}
	s.mu.Unlock()

	if b == nil {
		return nil
	}
	b.unsubscribe()
	return b.engine.Close()
}

func (s *Session) bound() *binding {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// View is the state currently pushed to the tab.
func (s *Session) View() (StateView, bool) {
	b := s.bound()
	if b == nil {
		return StateView{}, false
	}
	return StateView{
		State:       b.store.State(),
		DashboardID: b.dashboardID,
		WriterID:    b.identity.WriterID,
		Overlapping: b.canvas.Overlapping(),
	}, true
}

func (s *Session) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Session) send(msg OutboundMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("Failed to marshal outbound message", zap.Error(err))
		return
	}
	select {
	case s.out <- data:
	default:
		s.log.Warn("Outbound buffer full, dropping message", zap.String("type", string(msg.Type)))
	}
}

func (s *Session) sendError(err error) {
	s.send(OutboundMessage{Type: MessageError, Data: ErrorData{Message: err.Error()}})
}

// writeLoop is the only goroutine writing to the connection. State pushes
// are coalesced so a burst of changes results in one frame.
func (s *Session) writeLoop(ctx context.Context) {
	for {
		var data []byte
		select {
		case <-ctx.Done():
			return
		case data = <-s.out:
		case <-s.dirty:
			view, ok := s.View()
			if !ok {
				continue
			}
			b, err := json.Marshal(OutboundMessage{Type: MessageState, Data: view})
			if err != nil {
				s.log.Error("Failed to marshal state", zap.Error(err))
				continue
			}
			data = b
		}

		if err := s.write(data); err != nil {
			s.log.Debug("Websocket write failed", zap.Error(err))
			s.Close()
			return
		}
	}
}

func (s *Session) write(data []byte) error {
	type deadliner interface {
		SetWriteDeadline(t time.Time) error
	}
	if d, ok := s.conn.(deadliner); ok {
		if err := d.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return err
		}
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Close tears the session down: the sync engine marks the writer offline
// and the connection is closed. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()

	err := s.unbind()
	if cancel != nil {
		cancel()
	}
	err = multierr.Append(err, s.conn.Close())
	s.hub.remove(s)
	s.log.Info("Session closed")
	return err
}

// Wait blocks until the teardown writes of every engine this session used
// have finished.
func (s *Session) Wait() {
	s.mu.Lock()
	engines := append([]*realtime.Engine{}, s.retired...)
	s.mu.Unlock()
	for _, e := range engines {
		e.Wait()
	}
}
