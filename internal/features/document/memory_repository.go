package document

import (
	"context"
	"sort"
	"sync"
	"time"
)

// subscription coalesces notifications: a slow listener only ever sees the
// latest value, and publishers never block on it.
type subscription[T any] struct {
	mu      sync.Mutex
	pending T
	has     bool
	signal  chan struct{}
}

func newSubscription[T any]() *subscription[T] {
	return &subscription[T]{signal: make(chan struct{}, 1)}
}

func (s *subscription[T]) push(v T) {
	s.mu.Lock()
	s.pending = v
	s.has = true
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscription[T]) run(ctx context.Context, fn func(T)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.signal:
			s.mu.Lock()
			v, has := s.pending, s.has
			s.has = false
			s.mu.Unlock()
			if has && ctx.Err() == nil {
				fn(v)
			}
		}
	}
}

// MemoryRepository keeps documents in process. It backs single-node
// deployments and tests, and behaves like the remote stores: snapshots are
// delivered asynchronously and writes merge.
type MemoryRepository struct {
	mu           sync.Mutex
	docs         map[string]map[string]any
	presence     map[string]map[string]Presence
	docSubs      map[string]map[*subscription[*Dashboard]]struct{}
	presenceSubs map[string]map[*subscription[[]Presence]]struct{}
	now          func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		docs:         make(map[string]map[string]any),
		presence:     make(map[string]map[string]Presence),
		docSubs:      make(map[string]map[*subscription[*Dashboard]]struct{}),
		presenceSubs: make(map[string]map[*subscription[[]Presence]]struct{}),
		now:          time.Now,
	}
}

// SetClock replaces the clock used for server timestamps.
func (r *MemoryRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*Dashboard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return DashboardFromMap(id, doc), nil
}

func (r *MemoryRepository) Subscribe(ctx context.Context, id string, fn SnapshotFunc) error {
	sub := newSubscription[*Dashboard]()

	r.mu.Lock()
	if r.docSubs[id] == nil {
		r.docSubs[id] = make(map[*subscription[*Dashboard]]struct{})
	}
	r.docSubs[id][sub] = struct{}{}
	var current *Dashboard
	if doc, ok := r.docs[id]; ok {
		current = DashboardFromMap(id, doc)
	}
	r.mu.Unlock()

	sub.push(current)
	go func() {
		sub.run(ctx, func(d *Dashboard) { fn(d) })
		r.mu.Lock()
		delete(r.docSubs[id], sub)
		r.mu.Unlock()
	}()
	return nil
}

func (r *MemoryRepository) Write(ctx context.Context, id string, patch Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	doc, ok := r.docs[id]
	if !ok {
		doc = make(map[string]any)
		r.docs[id] = doc
	}
	now := r.now()
	for k, v := range patch {
		if v == ServerTimestamp {
			doc[k] = now
			continue
		}
		doc[k] = storedValue(v)
	}
	snapshot := DashboardFromMap(id, doc)
	subs := make([]*subscription[*Dashboard], 0, len(r.docSubs[id]))
	for s := range r.docSubs[id] {
		subs = append(subs, s)
	}
	r.mu.Unlock()

	for _, s := range subs {
		s.push(snapshot)
	}
	return nil
}

func (r *MemoryRepository) SubscribeOnlinePresence(ctx context.Context, dashboardID string, fn PresenceFunc) error {
	sub := newSubscription[[]Presence]()

	r.mu.Lock()
	if r.presenceSubs[dashboardID] == nil {
		r.presenceSubs[dashboardID] = make(map[*subscription[[]Presence]]struct{})
	}
	r.presenceSubs[dashboardID][sub] = struct{}{}
	online := r.onlineLocked(dashboardID)
	r.mu.Unlock()

	sub.push(online)
	go func() {
		sub.run(ctx, func(p []Presence) { fn(p) })
		r.mu.Lock()
		delete(r.presenceSubs[dashboardID], sub)
		r.mu.Unlock()
	}()
	return nil
}

func (r *MemoryRepository) UpsertPresence(ctx context.Context, dashboardID string, p Presence) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	if p.LastSeen.IsZero() {
		p.LastSeen = r.now()
	}
	if r.presence[dashboardID] == nil {
		r.presence[dashboardID] = make(map[string]Presence)
	}
	r.presence[dashboardID][p.UserID] = p
	r.mu.Unlock()

	r.notifyPresence(dashboardID)
	return nil
}

func (r *MemoryRepository) ListPresence(ctx context.Context, dashboardID string) ([]Presence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Presence, 0, len(r.presence[dashboardID]))
	for _, p := range r.presence[dashboardID] {
		out = append(out, p)
	}
	sortPresence(out)
	return out, nil
}

func (r *MemoryRepository) DeletePresence(ctx context.Context, dashboardID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.presence[dashboardID], userID)
	r.mu.Unlock()

	r.notifyPresence(dashboardID)
	return nil
}

func (r *MemoryRepository) notifyPresence(dashboardID string) {
	r.mu.Lock()
	online := r.onlineLocked(dashboardID)
	subs := make([]*subscription[[]Presence], 0, len(r.presenceSubs[dashboardID]))
	for s := range r.presenceSubs[dashboardID] {
		subs = append(subs, s)
	}
	r.mu.Unlock()

	for _, s := range subs {
		s.push(online)
	}
}

func (r *MemoryRepository) onlineLocked(dashboardID string) []Presence {
	out := []Presence{}
	for _, p := range r.presence[dashboardID] {
		if p.IsOnline {
			out = append(out, p)
		}
	}
	sortPresence(out)
	return out
}

func sortPresence(ps []Presence) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].UserID < ps[j].UserID })
}
