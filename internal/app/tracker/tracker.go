// Package tracker is the application controller. It owns the credit
// account, the grade ledger and the reward catalog, and is the only place
// they are mutated.
//
// Every successful mutation is followed by a synchronous save of exactly the
// collections it changed. A failed save is logged and counted; the in-memory
// state stays authoritative for the rest of the session.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/foundation-app/foundation/internal/domain"
	"github.com/foundation-app/foundation/internal/infra/observability"
)

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithJournal records every balance change to j.
func WithJournal(j domain.Journal) Option {
	return func(t *Tracker) { t.journal = j }
}

// Tracker serialises all operations behind one mutex; each runs to
// completion before the next starts.
type Tracker struct {
	mu sync.Mutex

	store   domain.StateStore
	journal domain.Journal
	log     zerolog.Logger
	now     func() time.Time

	// detached is set when the initial load failed. Writes are then skipped
	// so an empty session cannot overwrite data that is still on disk.
	detached bool
	lastID   int64

	account *domain.Account
	grades  domain.Grades
	rewards domain.Rewards
}

// Open loads state from store once and returns the controller.
func Open(ctx context.Context, store domain.StateStore, log zerolog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		store:   store,
		log:     log.With().Str("component", "tracker").Logger(),
		now:     time.Now,
		account: domain.NewAccount(decimal.Zero),
	}
	for _, o := range opts {
		o(t)
	}

	snap, err := store.Load(ctx)
	if err != nil {
		t.detached = true
		t.log.Error().Err(err).Msg("load failed, running in memory only")
	} else {
		t.account = domain.NewAccount(snap.Balance)
		t.grades = snap.Grades
		t.rewards = snap.Rewards
	}

	for _, g := range t.grades {
		t.lastID = max(t.lastID, g.ID)
	}
	for _, r := range t.rewards {
		t.lastID = max(t.lastID, r.ID)
	}
	observability.SetBalance(t.account.Balance())
	return t
}

// Detached reports whether persistence was disabled by a failed load.
func (t *Tracker) Detached() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.detached
}

// nextID returns a unique, strictly increasing millisecond timestamp.
func (t *Tracker) nextID() int64 {
	id := t.now().UnixMilli()
	if id <= t.lastID {
		id = t.lastID + 1
	}
	t.lastID = id
	return id
}

// ─── Grade Ledger ───────────────────────────────────────────────────────────

// RecordGrade stores a grade and credits the account with its award.
func (t *Tracker) RecordGrade(ctx context.Context, subjectID string, value decimal.Decimal) (domain.Grade, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	g, err := domain.NewGrade(0, subjectID, value, t.now())
	if err != nil {
		return domain.Grade{}, err
	}
	g.ID = t.nextID()
	if _, err := t.account.Credit(g.CreditsEarned); err != nil {
		return domain.Grade{}, err
	}
	t.grades = append(t.grades, g)

	observability.GradesRecorded.WithLabelValues(subjectID).Inc()
	observability.AddEarned("grade", g.CreditsEarned)
	t.log.Info().
		Int64("grade_id", g.ID).
		Str("subject", subjectID).
		Str("value", g.Value.StringFixed(2)).
		Str("credits", g.CreditsEarned.String()).
		Msg("grade recorded")

	t.saveGrades(ctx)
	if g.CreditsEarned.IsPositive() {
		t.journalAppend(ctx, domain.TxGradeEarn, g.CreditsEarned,
			fmt.Sprintf("%s %s", subjectID, g.Value.StringFixed(2)))
		t.saveBalance(ctx)
	}
	return g, nil
}

// DeleteGrade removes a grade and debits exactly the credits it granted,
// clamped at zero. Unknown ids are a no-op; the result reports removal.
func (t *Tracker) DeleteGrade(ctx context.Context, id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.grades.Find(id)
	if i < 0 {
		return false
	}
	g := t.grades[i]
	t.grades = append(t.grades[:i:i], t.grades[i+1:]...)

	before := t.account.Balance()
	after, _ := t.account.Debit(g.CreditsEarned, true)

	observability.GradesDeleted.Inc()
	t.log.Info().Int64("grade_id", id).Str("subject", g.SubjectID).Msg("grade deleted")

	t.saveGrades(ctx)
	if !after.Equal(before) {
		t.journalAppend(ctx, domain.TxGradeUndo, after.Sub(before),
			fmt.Sprintf("%s %s", g.SubjectID, g.Value.StringFixed(2)))
		t.saveBalance(ctx)
	}
	return true
}

// GradesFor lists a subject's grades, most recent first.
func (t *Tracker) GradesFor(subjectID string) []domain.Grade {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.grades.For(subjectID)
}

// AverageFor is the subject mean rounded to 2 places (0 when empty).
func (t *Tracker) AverageFor(subjectID string) decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.grades.AverageFor(subjectID)
}

// OverallAverage is the mean of per-subject averages.
func (t *Tracker) OverallAverage() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.grades.OverallAverage()
}

// SubjectSummary pairs a subject with its derived figures.
type SubjectSummary struct {
	domain.Subject
	Average decimal.Decimal `json:"average"`
	Count   int             `json:"count"`
}

// Subjects returns every catalog subject with its average and grade count.
func (t *Tracker) Subjects() []SubjectSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.subjectsLocked()
}

func (t *Tracker) subjectsLocked() []SubjectSummary {
	subs := domain.Subjects()
	out := make([]SubjectSummary, len(subs))
	for i, s := range subs {
		out[i] = SubjectSummary{
			Subject: s,
			Average: t.grades.AverageFor(s.ID),
			Count:   len(t.grades.For(s.ID)),
		}
	}
	return out
}

// ─── Credit Account ─────────────────────────────────────────────────────────

// Balance returns the current credit balance.
func (t *Tracker) Balance() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.account.Balance()
}

// LogSession grants one credit for a completed study session.
func (t *Tracker) LogSession(ctx context.Context) decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()

	bal, _ := t.account.Credit(domain.SessionCredit)
	observability.AddEarned("session", domain.SessionCredit)
	t.journalAppend(ctx, domain.TxSession, domain.SessionCredit, "study session")
	t.saveBalance(ctx)
	return bal
}

// CorrectSession takes back 1 or 0.5 credits, never going below zero.
func (t *Tracker) CorrectSession(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := domain.ValidateCorrection(amount); err != nil {
		return t.account.Balance(), err
	}
	before := t.account.Balance()
	bal, _ := t.account.Debit(amount, true)
	if bal.Equal(before) {
		return bal, nil
	}
	t.journalAppend(ctx, domain.TxCorrection, bal.Sub(before), "session correction")
	t.saveBalance(ctx)
	return bal, nil
}

// History returns recent balance changes, newest first. Empty without a journal.
func (t *Tracker) History(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	if t.journal == nil {
		return nil, nil
	}
	return t.journal.Recent(ctx, limit)
}

// ─── Reward Catalog ─────────────────────────────────────────────────────────

// AddReward appends a new, unpinned reward.
func (t *Tracker) AddReward(ctx context.Context, name string, cost decimal.Decimal, image string) (domain.Reward, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, err := domain.NewReward(0, name, cost, image)
	if err != nil {
		return domain.Reward{}, err
	}
	r.ID = t.nextID()
	t.rewards = append(t.rewards, r)
	t.log.Info().Int64("reward_id", r.ID).Str("name", r.Name).Str("cost", r.Cost.String()).Msg("reward added")
	t.saveRewards(ctx)
	return r, nil
}

// RemoveReward deletes a reward. Removing the pinned reward leaves none
// pinned. Unknown ids are a no-op; the result reports removal.
func (t *Tracker) RemoveReward(ctx context.Context, id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.rewards.Find(id)
	if i < 0 {
		return false
	}
	wasPinned := t.rewards[i].Pinned
	t.rewards, _ = t.rewards.Without(id)

	t.log.Info().Int64("reward_id", id).Msg("reward removed")
	t.saveRewards(ctx)
	if wasPinned {
		t.savePinned(ctx)
	}
	return true
}

// SetPinned toggles the pin on id and clears every other pin. Unknown ids
// are a no-op; the result reports whether anything changed.
func (t *Tracker) SetPinned(ctx context.Context, id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.rewards.TogglePin(id); err != nil {
		return false
	}
	t.saveRewards(ctx)
	t.savePinned(ctx)
	return true
}

// PinnedReward returns the featured reward, if any.
func (t *Tracker) PinnedReward() (domain.Reward, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rewards.Pinned()
}

// Rewards returns a copy of the catalog.
func (t *Tracker) Rewards() []domain.Reward {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Reward, len(t.rewards))
	copy(out, t.rewards)
	return out
}

// Redeem spends the reward's cost. The reward stays in the catalog.
// Fails with domain.ErrInsufficientBalance, changing nothing, when the
// balance does not cover the cost.
func (t *Tracker) Redeem(ctx context.Context, id int64) (decimal.Decimal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.rewards.Find(id)
	if i < 0 {
		return t.account.Balance(), domain.ErrRewardNotFound
	}
	r := t.rewards[i]
	bal, err := t.account.Debit(r.Cost, false)
	if err != nil {
		observability.RedeemRejected.Inc()
		return bal, err
	}

	observability.RewardsRedeemed.Inc()
	t.log.Info().Int64("reward_id", id).Str("name", r.Name).Str("cost", r.Cost.String()).Msg("reward redeemed")
	t.journalAppend(ctx, domain.TxRedeem, r.Cost.Neg(), r.Name)
	t.saveBalance(ctx)
	return bal, nil
}

// ─── Read Models ────────────────────────────────────────────────────────────

// Dashboard is the home screen snapshot.
type Dashboard struct {
	Balance        decimal.Decimal  `json:"balance"`
	OverallAverage decimal.Decimal  `json:"overall_average"`
	GradeCount     int              `json:"grade_count"`
	Subjects       []SubjectSummary `json:"subjects"`
	Pinned         *domain.Progress `json:"pinned,omitempty"`
}

// Dashboard assembles the home screen in one consistent read.
func (t *Tracker) Dashboard() Dashboard {
	t.mu.Lock()
	defer t.mu.Unlock()

	d := Dashboard{
		Balance:        t.account.Balance(),
		OverallAverage: t.grades.OverallAverage(),
		GradeCount:     len(t.grades),
		Subjects:       t.subjectsLocked(),
	}
	if r, ok := t.rewards.Pinned(); ok {
		p := domain.ProgressToward(r, d.Balance)
		d.Pinned = &p
	}
	return d
}

// Snapshot copies the full state (export).
func (t *Tracker) Snapshot() domain.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := domain.Snapshot{
		Balance: t.account.Balance(),
		Grades:  append(domain.Grades{}, t.grades...),
		Rewards: append(domain.Rewards{}, t.rewards...),
	}
	if r, ok := t.rewards.Pinned(); ok {
		snap.PinnedID = r.ID
	}
	return snap
}
