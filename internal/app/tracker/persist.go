package tracker

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/foundation-app/foundation/internal/domain"
	"github.com/foundation-app/foundation/internal/infra/observability"
	"github.com/foundation-app/foundation/internal/infra/store"
)

// ─── Persistence ────────────────────────────────────────────────────────────
// Callers hold t.mu. Failures never propagate to the operation.

func (t *Tracker) saveBalance(ctx context.Context) {
	bal := t.account.Balance()
	observability.SetBalance(bal)
	t.write(store.KeyBalance, func() error { return t.store.SaveBalance(ctx, bal) })
}

func (t *Tracker) saveGrades(ctx context.Context) {
	t.write(store.KeyGrades, func() error { return t.store.SaveGrades(ctx, t.grades) })
}

func (t *Tracker) saveRewards(ctx context.Context) {
	t.write(store.KeyRewards, func() error { return t.store.SaveRewards(ctx, t.rewards) })
}

func (t *Tracker) savePinned(ctx context.Context) {
	var id int64
	if r, ok := t.rewards.Pinned(); ok {
		id = r.ID
	}
	t.write(store.KeyPinned, func() error { return t.store.SavePinned(ctx, id) })
}

func (t *Tracker) write(key string, save func() error) {
	if t.detached {
		return
	}
	if err := save(); err != nil {
		observability.StoreFailures.WithLabelValues(key).Inc()
		t.log.Error().Err(err).Str("key", key).Msg("persist failed, keeping in-memory state")
	}
}

func (t *Tracker) journalAppend(ctx context.Context, typ domain.TransactionType, delta decimal.Decimal, desc string) {
	if t.journal == nil || t.detached {
		return
	}
	e := domain.JournalEntry{
		Timestamp:   t.now(),
		Type:        typ,
		Delta:       delta,
		Balance:     t.account.Balance(),
		Description: desc,
	}
	if err := t.journal.Append(ctx, e); err != nil {
		t.log.Warn().Err(err).Str("type", string(typ)).Msg("journal append failed")
	}
}
