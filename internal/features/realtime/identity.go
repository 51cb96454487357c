package realtime

import (
	"encoding/binary"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	demoDashboardID     = "demo-dashboard"
	dashboardPrefix     = "dashboard-"
	anonymousPrefix     = "user-"
	anonymousTokenChars = 9
)

// DashboardID maps an authenticated user id to its dashboard document id.
// Anonymous sessions share the demo dashboard.
func DashboardID(uid string) string {
	if uid == "" {
		return demoDashboardID
	}
	return dashboardPrefix + uid
}

// Identity is who a session writes as.
type Identity struct {
	UserID   string // authenticated id, empty when anonymous
	Email    string
	WriterID string
}

// IdentityResolver derives the writer identity of one session: the
// authenticated user id when there is one, otherwise a random token that is
// generated once and then kept for the session's lifetime.
type IdentityResolver struct {
	mu        sync.Mutex
	userID    string
	email     string
	anonymous string
}

func NewIdentityResolver() *IdentityResolver {
	return &IdentityResolver{}
}

// SetAuthUser records the authenticated user. An empty uid returns the
// session to its anonymous identity.
func (r *IdentityResolver) SetAuthUser(uid, email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userID = uid
	r.email = email
}

func (r *IdentityResolver) Current() Identity {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.userID != "" {
		return Identity{UserID: r.userID, Email: r.email, WriterID: r.userID}
	}
	if r.anonymous == "" {
		r.anonymous = anonymousPrefix + randomToken()
	}
	return Identity{WriterID: r.anonymous}
}

// randomToken returns anonymousTokenChars base-36 characters.
func randomToken() string {
	id := uuid.New()
	s := strconv.FormatUint(binary.BigEndian.Uint64(id[:8]), 36)
	if len(s) < anonymousTokenChars {
		s = strings.Repeat("0", anonymousTokenChars-len(s)) + s
	}
	return s[:anonymousTokenChars]
}
