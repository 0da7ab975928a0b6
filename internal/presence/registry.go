// Package presence keeps the per-document set of users who recently
// heartbeated. Entries expire after a TTL and are never returned once stale.
package presence

import (
	"context"
	"sort"
	"time"

	"texcollab/internal/document/model"
)

const DefaultTTL = 30 * time.Second

// Registry registers heartbeats and lists the live entries of a document.
type Registry interface {
	// Heartbeat refreshes entry for docID and returns the live set including it.
	Heartbeat(ctx context.Context, docID string, entry model.PresenceEntry) ([]model.PresenceEntry, error)
	// Active returns the live set without refreshing anyone.
	Active(ctx context.Context, docID string) ([]model.PresenceEntry, error)
}

func isLive(entry model.PresenceEntry, now time.Time, ttl time.Duration) bool {
	return now.Sub(entry.LastSeenAt) <= ttl
}

func sortEntries(entries []model.PresenceEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].LastSeenAt.Equal(entries[j].LastSeenAt) {
			return entries[i].LastSeenAt.Before(entries[j].LastSeenAt)
		}
		return entries[i].UserID < entries[j].UserID
	})
}
