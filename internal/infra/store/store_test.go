package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foundation-app/foundation/internal/domain"
	"github.com/foundation-app/foundation/internal/infra/sqlite"
)

type memKV struct {
	data map[string][]byte
	err  error
}

func newMemKV() *memKV { return &memKV{data: make(map[string][]byte)} }

func (m *memKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Put(_ context.Context, key string, value []byte) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func TestLoad_EmptyStoreDefaults(t *testing.T) {
	g := New(newMemKV(), zerolog.Nop())

	snap, err := g.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Balance.IsZero())
	assert.Empty(t, snap.Grades)
	assert.Empty(t, snap.Rewards)
	assert.Zero(t, snap.PinnedID)
}

func TestRoundTrip_SQLite(t *testing.T) {
	db, err := sqlite.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	g := New(db, zerolog.Nop())
	at := time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)

	grades := domain.Grades{
		{ID: 100, SubjectID: "mat", Value: decimal.RequireFromString("8.25"), CreditsEarned: decimal.NewFromInt(2), RecordedAt: at},
		{ID: 101, SubjectID: "ing", Value: decimal.RequireFromString("9.75"), CreditsEarned: decimal.NewFromInt(5), RecordedAt: at},
	}
	rewards := domain.Rewards{
		{ID: 200, Name: "Cuffie", Cost: decimal.NewFromInt(50)},
		{ID: 201, Name: "Cinema", Cost: decimal.RequireFromString("12.5"), Pinned: true, Image: "data:image/png;base64,AAAA"},
	}

	require.NoError(t, g.SaveBalance(ctx, decimal.RequireFromString("7.5")))
	require.NoError(t, g.SaveGrades(ctx, grades))
	require.NoError(t, g.SaveRewards(ctx, rewards))
	require.NoError(t, g.SavePinned(ctx, 201))

	snap, err := g.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, "7.50", snap.Balance.StringFixed(2))
	require.Len(t, snap.Grades, 2)
	assert.Equal(t, int64(100), snap.Grades[0].ID)
	assert.True(t, snap.Grades[0].Value.Equal(decimal.RequireFromString("8.25")))
	assert.True(t, snap.Grades[1].RecordedAt.Equal(at))
	require.Len(t, snap.Rewards, 2)
	assert.Equal(t, "Cinema", snap.Rewards[1].Name)
	assert.True(t, snap.Rewards[1].Pinned)
	assert.Equal(t, "data:image/png;base64,AAAA", snap.Rewards[1].Image)
	assert.Equal(t, int64(201), snap.PinnedID)
}

func TestSavePinned_ZeroClears(t *testing.T) {
	kv := newMemKV()
	g := New(kv, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, g.SaveRewards(ctx, domain.Rewards{{ID: 1, Name: "A", Cost: decimal.NewFromInt(1), Pinned: true}}))
	require.NoError(t, g.SavePinned(ctx, 1))
	require.NoError(t, g.SavePinned(ctx, 0))
	assert.Empty(t, kv.data[KeyPinned])
}

func TestLoad_PinnedKeyWins(t *testing.T) {
	kv := newMemKV()
	kv.data[KeyRewards] = []byte(`[
		{"id":1,"name":"A","cost":"5","pinned":true},
		{"id":2,"name":"B","cost":"6","pinned":true}
	]`)
	kv.data[KeyPinned] = []byte("2")

	snap, err := New(kv, zerolog.Nop()).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.Rewards[0].Pinned)
	assert.True(t, snap.Rewards[1].Pinned)
	assert.Equal(t, int64(2), snap.PinnedID)
}

func TestLoad_LegacyNumericBalance(t *testing.T) {
	kv := newMemKV()
	kv.data[KeyBalance] = []byte(`4.5`)

	snap, err := New(kv, zerolog.Nop()).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4.50", snap.Balance.StringFixed(2))
}

func TestLoad_CorruptValueFallsBack(t *testing.T) {
	kv := newMemKV()
	kv.data[KeyGrades] = []byte(`{not json`)
	kv.data[KeyPinned] = []byte(`abc`)
	kv.data[KeyBalance] = []byte(`"3"`)

	snap, err := New(kv, zerolog.Nop()).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Grades)
	assert.Zero(t, snap.PinnedID)
	assert.Equal(t, "3", snap.Balance.String())
}

func TestLoad_DropsInvalidRecords(t *testing.T) {
	kv := newMemKV()
	kv.data[KeyRewards] = []byte(`[
		{"id":1,"name":"x","cost":"0","pinned":true},
		{"id":2,"name":"   ","cost":"5"},
		{"id":3,"name":"Pizza","cost":"-4"},
		{"id":4,"name":"Cinema","cost":"12.5"}
	]`)
	kv.data[KeyGrades] = []byte(`[
		{"id":10,"subject_id":"mat","value":"8","credits_earned":"2"},
		{"id":11,"subject_id":"chem","value":"8","credits_earned":"2"},
		{"id":12,"subject_id":"mat","value":"8.1","credits_earned":"2"},
		{"id":13,"subject_id":"ing","value":"9","credits_earned":"-3"}
	]`)
	kv.data[KeyPinned] = []byte("1")

	snap, err := New(kv, zerolog.Nop()).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Rewards, 1)
	assert.Equal(t, int64(4), snap.Rewards[0].ID)
	assert.False(t, snap.Rewards[0].Pinned, "a dropped pin must not move to another reward")
	assert.Zero(t, snap.PinnedID)

	require.Len(t, snap.Grades, 1)
	assert.Equal(t, int64(10), snap.Grades[0].ID)
}

func TestLoad_BackendError(t *testing.T) {
	kv := newMemKV()
	kv.err = errors.New("disk gone")

	_, err := New(kv, zerolog.Nop()).Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, kv.err)
}

func TestSave_BackendErrorWrapped(t *testing.T) {
	kv := newMemKV()
	kv.err = errors.New("read-only")

	err := New(kv, zerolog.Nop()).SaveBalance(context.Background(), decimal.NewFromInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyBalance)
}
