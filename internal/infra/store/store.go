// Package store is the typed persistence gateway. It serializes tracker
// state as JSON under four fixed keys of any domain.KVStore backend.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/foundation-app/foundation/internal/domain"
)

// Logical keys.
const (
	KeyBalance = "f_credits"
	KeyGrades  = "f_grades"
	KeyRewards = "f_rewards"
	KeyPinned  = "f_pinned"
)

// Gateway implements domain.StateStore.
type Gateway struct {
	kv  domain.KVStore
	log zerolog.Logger
}

// New returns a gateway over kv.
func New(kv domain.KVStore, log zerolog.Logger) *Gateway {
	return &Gateway{kv: kv, log: log.With().Str("component", "store").Logger()}
}

// Load reads every key, substituting defaults for missing or unreadable
// values. Grades and rewards that fail validation are dropped, and the
// single-pin invariant is enforced on the result. Only backend failures are
// returned.
func (g *Gateway) Load(ctx context.Context) (domain.Snapshot, error) {
	var (
		snap domain.Snapshot
		err  error
	)
	if snap.Balance, err = load(ctx, g, KeyBalance, decimal.Zero); err != nil {
		return domain.Snapshot{}, err
	}
	if snap.Balance.IsNegative() {
		snap.Balance = decimal.Zero
	}
	if snap.Grades, err = load(ctx, g, KeyGrades, domain.Grades{}); err != nil {
		return domain.Snapshot{}, err
	}
	if snap.Rewards, err = load(ctx, g, KeyRewards, domain.Rewards{}); err != nil {
		return domain.Snapshot{}, err
	}
	if snap.PinnedID, err = g.loadPinned(ctx); err != nil {
		return domain.Snapshot{}, err
	}
	snap.Grades = g.validGrades(snap.Grades)
	snap.Rewards = g.validRewards(snap.Rewards)

	snap.Rewards.NormalizePins(snap.PinnedID)
	snap.PinnedID = 0
	if r, ok := snap.Rewards.Pinned(); ok {
		snap.PinnedID = r.ID
	}
	return snap, nil
}

func load[T any](ctx context.Context, g *Gateway, key string, def T) (T, error) {
	raw, found, err := g.kv.Get(ctx, key)
	if err != nil {
		return def, fmt.Errorf("load %s: %w", key, err)
	}
	if !found {
		return def, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("unreadable value, using default")
		return def, nil
	}
	return v, nil
}

func (g *Gateway) validGrades(in domain.Grades) domain.Grades {
	out := make(domain.Grades, 0, len(in))
	for _, gr := range in {
		if err := gr.Validate(); err != nil {
			g.log.Warn().Err(err).Int64("grade_id", gr.ID).Msg("dropping invalid stored grade")
			continue
		}
		out = append(out, gr)
	}
	return out
}

func (g *Gateway) validRewards(in domain.Rewards) domain.Rewards {
	out := make(domain.Rewards, 0, len(in))
	for _, r := range in {
		if err := r.Validate(); err != nil {
			g.log.Warn().Err(err).Int64("reward_id", r.ID).Msg("dropping invalid stored reward")
			continue
		}
		out = append(out, r)
	}
	return out
}

// The pinned id is stored as a bare decimal string; empty means none.
func (g *Gateway) loadPinned(ctx context.Context) (int64, error) {
	raw, found, err := g.kv.Get(ctx, KeyPinned)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", KeyPinned, err)
	}
	if !found || len(raw) == 0 {
		return 0, nil
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		g.log.Warn().Err(err).Str("key", KeyPinned).Msg("unreadable value, using default")
		return 0, nil
	}
	return id, nil
}

// SaveBalance writes the balance.
func (g *Gateway) SaveBalance(ctx context.Context, balance decimal.Decimal) error {
	return g.save(ctx, KeyBalance, balance)
}

// SaveGrades writes the full grade list.
func (g *Gateway) SaveGrades(ctx context.Context, grades domain.Grades) error {
	if grades == nil {
		grades = domain.Grades{}
	}
	return g.save(ctx, KeyGrades, grades)
}

// SaveRewards writes the full reward list.
func (g *Gateway) SaveRewards(ctx context.Context, rewards domain.Rewards) error {
	if rewards == nil {
		rewards = domain.Rewards{}
	}
	return g.save(ctx, KeyRewards, rewards)
}

// SavePinned writes the pinned reward id; zero clears it.
func (g *Gateway) SavePinned(ctx context.Context, rewardID int64) error {
	v := []byte{}
	if rewardID != 0 {
		v = []byte(strconv.FormatInt(rewardID, 10))
	}
	if err := g.kv.Put(ctx, KeyPinned, v); err != nil {
		return fmt.Errorf("save %s: %w", KeyPinned, err)
	}
	return nil
}

func (g *Gateway) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := g.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
