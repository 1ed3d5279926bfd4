package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// KVStore is the raw persistence backend (sqlite or redis).
type KVStore interface {
	// Get returns found=false, err=nil when key was never written.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte) error
}

// Journal records applied balance changes for the history view.
type Journal interface {
	Append(ctx context.Context, e JournalEntry) error
	Recent(ctx context.Context, limit int) ([]JournalEntry, error)
}

// StateStore is the typed persistence gateway the controller writes through.
type StateStore interface {
	Load(ctx context.Context) (Snapshot, error)
	SaveBalance(ctx context.Context, balance decimal.Decimal) error
	SaveGrades(ctx context.Context, grades Grades) error
	SaveRewards(ctx context.Context, rewards Rewards) error
	SavePinned(ctx context.Context, rewardID int64) error
}

// Snapshot is everything the store holds. PinnedID is zero when no reward
// is pinned.
type Snapshot struct {
	Balance  decimal.Decimal `json:"balance"`
	Grades   Grades          `json:"grades"`
	Rewards  Rewards         `json:"rewards"`
	PinnedID int64           `json:"pinned_id,omitempty"`
}

// ─── Calendar ───────────────────────────────────────────────────────────────

// Event is one upcoming calendar entry.
type Event struct {
	ID      string    `json:"id"`
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	AllDay  bool      `json:"all_day,omitempty"`
}

// EventSource yields upcoming events ordered by start time.
type EventSource interface {
	Upcoming(ctx context.Context, maxResults int) ([]Event, error)
}
