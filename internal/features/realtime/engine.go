package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-dashboard/internal/config"
	"go-dashboard/internal/features/board"
	"go-dashboard/internal/features/document"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ErrAlreadyStarted = errors.New("sync engine already started")

const offlineWriteTimeout = 5 * time.Second

type State int

const (
	StateUninitialized State = iota
	StateListening
	StateInitialized
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateListening:
		return "listening"
	case StateInitialized:
		return "initialized"
	case StateTornDown:
		return "torn_down"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Options tunes the engine's timings. EchoWindow is a heuristic: a snapshot
// attributed to this writer that arrives within the window after a local
// write is assumed to be that write coming back.
type Options struct {
	Debounce          time.Duration
	EchoWindow        time.Duration
	HeartbeatInterval time.Duration
	SweepInterval     time.Duration
	StaleAfter        time.Duration
	Now               func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Debounce:          300 * time.Millisecond,
		EchoWindow:        2 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		SweepInterval:     2 * time.Minute,
		StaleAfter:        5 * time.Minute,
		Now:               time.Now,
	}
}

func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	opts.Debounce = cfg.SyncDebounce
	opts.EchoWindow = cfg.SyncEchoWindow
	opts.HeartbeatInterval = cfg.PresenceHeartbeat
	opts.SweepInterval = cfg.PresenceSweep
	opts.StaleAfter = cfg.PresenceStaleAfter
	return opts
}

// Engine keeps one session's board.Store convergent with the remote
// dashboard document and maintains the session's presence record.
type Engine struct {
	repo        document.Repository
	store       *board.Store
	identity    Identity
	dashboardID string
	opts        Options
	log         *zap.Logger

	mu             sync.Mutex
	state          State
	ctx            context.Context
	cancel         context.CancelFunc
	lastLocalWrite time.Time
	lastSent       uint64
	hasSent        bool
	timer          *time.Timer
	scheduler      *cron.Cron
	unsubscribe    func()
	teardown       sync.WaitGroup
}

func NewEngine(repo document.Repository, store *board.Store, identity Identity, dashboardID string, opts Options, log *zap.Logger) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		repo:        repo,
		store:       store,
		identity:    identity,
		dashboardID: dashboardID,
		opts:        opts,
		log: log.With(
			zap.String("dashboardId", dashboardID),
			zap.String("writer", identity.WriterID),
		),
		ctx: context.Background(),
	}
}

func (e *Engine) DashboardID() string { return e.dashboardID }
func (e *Engine) Identity() Identity  { return e.identity }

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start subscribes to the document and presence, announces this writer as
// online and schedules the heartbeat and stale-record sweep.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateUninitialized {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	e.ctx = ctx
	e.cancel = cancel
	e.state = StateListening
	e.unsubscribe = e.store.Subscribe(e.onStoreChange)
	e.mu.Unlock()

	if err := e.repo.Subscribe(ctx, e.dashboardID, func(doc *document.Dashboard) {
		e.HandleSnapshot(ctx, doc)
	}); err != nil {
		_ = e.Close()
		return fmt.Errorf("subscribe to dashboard %s: %w", e.dashboardID, err)
	}

	if err := e.repo.SubscribeOnlinePresence(ctx, e.dashboardID, e.HandlePresence); err != nil {
		e.log.Error("Failed to subscribe to presence", zap.Error(err))
	}

	if err := e.repo.UpsertPresence(ctx, e.dashboardID, e.presence(true)); err != nil {
		e.log.Error("Failed to announce presence", zap.Error(err))
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every "+e.opts.HeartbeatInterval.String(), func() { e.Heartbeat(ctx) }); err != nil {
		e.log.Error("Failed to schedule presence heartbeat", zap.Error(err))
	}
	if _, err := scheduler.AddFunc("@every "+e.opts.SweepInterval.String(), func() { e.Sweep(ctx) }); err != nil {
		e.log.Error("Failed to schedule presence sweep", zap.Error(err))
	}

	e.mu.Lock()
	if e.state == StateTornDown {
		e.mu.Unlock()
		return nil
	}
	e.scheduler = scheduler
	e.mu.Unlock()
	scheduler.Start()

	e.log.Info("Sync engine started")
	return nil
}

// HandleSnapshot applies one remote document snapshot. doc is nil when the
// document does not exist yet, in which case it is created with defaults.
func (e *Engine) HandleSnapshot(ctx context.Context, doc *document.Dashboard) {
	e.mu.Lock()
	if e.state == StateUninitialized || e.state == StateTornDown {
		e.mu.Unlock()
		return
	}

	if doc == nil {
		e.mu.Unlock()
		e.createDocument(ctx)
		e.markInitialized()
		return
	}

	now := e.opts.Now()
	if doc.LastModifiedBy == e.identity.WriterID &&
		!e.lastLocalWrite.IsZero() &&
		now.Sub(e.lastLocalWrite) < e.opts.EchoWindow {
		e.mu.Unlock()
		e.log.Debug("Skipping echo of own write")
		return
	}

	current := e.store.State()
	theme := current.Theme
	if doc.Theme != "" {
		theme = board.Theme(doc.Theme)
	}
	// What was just received does not need to be written back.
	e.lastSent = Fingerprint(doc.Widgets, string(theme))
	e.hasSent = true
	e.mu.Unlock()

	if WidgetsFingerprint(doc.Widgets) != WidgetsFingerprint(current.Widgets) {
		e.store.Dispatch(board.SetWidgets{Widgets: doc.Widgets})
	}
	if theme != current.Theme {
		e.store.Dispatch(board.SetTheme{Theme: theme})
	}
	if doc.LastModifiedBy != current.LastModifiedBy {
		e.store.Dispatch(board.SetLastModifiedBy{Writer: doc.LastModifiedBy})
	}
	e.markInitialized()
}

// markInitialized moves a listening engine to initialized and lifts the
// loading gate. Creation failures land here too so the session never stays
// stuck on loading.
func (e *Engine) markInitialized() {
	e.mu.Lock()
	first := e.state == StateListening
	if first {
		e.state = StateInitialized
	}
	e.mu.Unlock()

	if first {
		e.store.Dispatch(board.SetLoading{Loading: false})
	}
}

func (e *Engine) createDocument(ctx context.Context) {
	// The creation is this writer's own write; its snapshot is an echo.
	e.mu.Lock()
	e.lastSent = Fingerprint(nil, string(board.ThemeLight))
	e.hasSent = true
	e.lastLocalWrite = e.opts.Now()
	e.mu.Unlock()

	err := e.repo.Write(ctx, e.dashboardID, document.Patch{
		document.FieldWidgets:        []any{},
		document.FieldTheme:          string(board.ThemeLight),
		document.FieldCreatedAt:      document.ServerTimestamp,
		document.FieldUpdatedAt:      document.ServerTimestamp,
		document.FieldLastModifiedBy: e.identity.WriterID,
		document.FieldUserID:         e.identity.UserID,
		document.FieldUserEmail:      e.identity.Email,
	})
	if err != nil {
		e.log.Error("Failed to create dashboard document", zap.Error(err))
		return
	}
	e.log.Info("Created dashboard document")
}

func (e *Engine) onStoreChange(intent board.Intent, _ board.State) {
	if !board.TouchesDocument(intent) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateInitialized {
		return
	}
	if e.timer == nil {
		e.timer = time.AfterFunc(e.opts.Debounce, func() { _ = e.Flush(e.ctx) })
		return
	}
	e.timer.Reset(e.opts.Debounce)
}

// Flush writes the current widgets and theme unless they match what was
// last sent or received.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateInitialized {
		e.mu.Unlock()
		return nil
	}
	st := e.store.State()
	fp := Fingerprint(st.Widgets, string(st.Theme))
	if e.hasSent && fp == e.lastSent {
		e.mu.Unlock()
		return nil
	}
	e.lastSent = fp
	e.hasSent = true
	e.lastLocalWrite = e.opts.Now()
	e.mu.Unlock()

	err := e.repo.Write(ctx, e.dashboardID, document.Patch{
		document.FieldWidgets:        st.Widgets,
		document.FieldTheme:          string(st.Theme),
		document.FieldUpdatedAt:      document.ServerTimestamp,
		document.FieldLastModifiedBy: e.identity.WriterID,
	})
	if err != nil {
		e.log.Error("Failed to save dashboard", zap.Error(err))
		return err
	}
	return nil
}

// HandlePresence replaces the active user list with the de-duplicated ids
// of the online records.
func (e *Engine) HandlePresence(online []document.Presence) {
	if e.State() == StateTornDown {
		return
	}

	seen := make(map[string]struct{}, len(online))
	users := make([]string, 0, len(online))
	for _, p := range online {
		if _, dup := seen[p.UserID]; dup || p.UserID == "" {
			continue
		}
		seen[p.UserID] = struct{}{}
		users = append(users, p.UserID)
	}
	e.store.Dispatch(board.SetActiveUsers{Users: users})
}

// Heartbeat refreshes this writer's presence record.
func (e *Engine) Heartbeat(ctx context.Context) {
	if e.State() != StateInitialized {
		return
	}
	if err := e.repo.UpsertPresence(ctx, e.dashboardID, e.presence(true)); err != nil {
		e.log.Warn("Presence heartbeat failed", zap.Error(err))
	}
}

// Sweep deletes presence records not seen within StaleAfter, whatever their
// online flag says.
func (e *Engine) Sweep(ctx context.Context) {
	if e.State() == StateTornDown {
		return
	}

	records, err := e.repo.ListPresence(ctx, e.dashboardID)
	if err != nil {
		e.log.Warn("Presence sweep failed to list records", zap.Error(err))
		return
	}

	now := e.opts.Now()
	for _, p := range records {
		if !p.IsStale(now, e.opts.StaleAfter) {
			continue
		}
		if err := e.repo.DeletePresence(ctx, e.dashboardID, p.UserID); err != nil {
			e.log.Warn("Failed to delete stale presence", zap.String("userId", p.UserID), zap.Error(err))
			continue
		}
		e.log.Debug("Removed stale presence", zap.String("userId", p.UserID))
	}
}

// Close stops listening, cancels any pending debounced write and marks this
// writer offline. The offline write is not awaited; Wait blocks until it
// has finished.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.state == StateTornDown {
		e.mu.Unlock()
		return nil
	}
	started := e.state != StateUninitialized
	e.state = StateTornDown
	if e.timer != nil {
		e.timer.Stop()
	}
	cancel, scheduler, unsubscribe := e.cancel, e.scheduler, e.unsubscribe
	e.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	if cancel != nil {
		cancel()
	}

	if started {
		offline := e.presence(false)
		e.teardown.Add(1)
		go func() {
			defer e.teardown.Done()
			ctx, cancel := context.WithTimeout(context.Background(), offlineWriteTimeout)
			defer cancel()
			if err := e.repo.UpsertPresence(ctx, e.dashboardID, offline); err != nil {
				e.log.Warn("Failed to mark presence offline", zap.Error(err))
			}
		}()
	}

	e.log.Info("Sync engine stopped")
	return nil
}

// Wait blocks until teardown writes issued by Close have finished.
func (e *Engine) Wait() {
	e.teardown.Wait()
}

// presence leaves LastSeen zero so the store stamps it with its own clock.
func (e *Engine) presence(online bool) document.Presence {
	return document.Presence{
		UserID:   e.identity.WriterID,
		IsOnline: online,
	}
}
