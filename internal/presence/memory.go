package presence

import (
	"context"
	"sync"
	"time"

	"texcollab/internal/document/model"
)

// MemoryRegistry is the single-process Registry. Stale entries are evicted
// when a read touches their document.
type MemoryRegistry struct {
	mu   sync.Mutex
	docs map[string]map[string]model.PresenceEntry // docID -> userID -> entry
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryRegistry(ttl time.Duration) *MemoryRegistry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryRegistry{
		docs: make(map[string]map[string]model.PresenceEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (r *MemoryRegistry) Heartbeat(_ context.Context, docID string, entry model.PresenceEntry) ([]model.PresenceEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.docs[docID] == nil {
		r.docs[docID] = make(map[string]model.PresenceEntry)
	}
	entry.LastSeenAt = r.now()
	r.docs[docID][entry.UserID] = entry
	return r.activeLocked(docID), nil
}

func (r *MemoryRegistry) Active(_ context.Context, docID string) ([]model.PresenceEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeLocked(docID), nil
}

func (r *MemoryRegistry) activeLocked(docID string) []model.PresenceEntry {
	now := r.now()
	users := r.docs[docID]
	active := make([]model.PresenceEntry, 0, len(users))
	for userID, entry := range users {
		if !isLive(entry, now, r.ttl) {
			delete(users, userID)
			continue
		}
		active = append(active, entry)
	}
	if len(users) == 0 {
		delete(r.docs, docID)
	}
	sortEntries(active)
	return active
}
