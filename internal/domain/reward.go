package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ─── Reward Catalog ─────────────────────────────────────────────────────────
// Rewards are reusable goals: redeeming one spends credits but keeps it
// in the catalog. At most one reward is pinned at any time.

// MaxRewardNameLen bounds reward names, counted in characters.
const MaxRewardNameLen = 80

// Reward is a user-defined goal with a credit cost.
type Reward struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Cost   decimal.Decimal `json:"cost"`
	Image  string          `json:"image,omitempty"` // data URI
	Pinned bool            `json:"pinned"`
}

// NewReward validates user input. The name is stored trimmed.
func NewReward(id int64, name string, cost decimal.Decimal, image string) (Reward, error) {
	r := Reward{ID: id, Name: strings.TrimSpace(name), Cost: cost, Image: image}
	if err := r.Validate(); err != nil {
		return Reward{}, err
	}
	return r, nil
}

// Validate checks the fields NewReward enforces. It also screens rewards
// read back from storage.
func (r Reward) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return ErrEmptyRewardName
	case utf8.RuneCountInString(r.Name) > MaxRewardNameLen:
		return ErrRewardNameTooLong
	case !r.Cost.IsPositive():
		return ErrInvalidCost
	case r.Image != "" && !IsImageDataURI(r.Image):
		return ErrInvalidImage
	}
	return nil
}

// IsImageDataURI reports whether s looks like data:image/<type>;base64,<payload>.
func IsImageDataURI(s string) bool {
	rest, ok := strings.CutPrefix(s, "data:image/")
	if !ok {
		return false
	}
	mime, payload, ok := strings.Cut(rest, ";base64,")
	return ok && mime != "" && payload != ""
}

// Rewards is the catalog in insertion order.
type Rewards []Reward

// Find returns the index of the reward with id, or -1.
func (rs Rewards) Find(id int64) int {
	for i, r := range rs {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Pinned returns the pinned reward, if any.
func (rs Rewards) Pinned() (Reward, bool) {
	for _, r := range rs {
		if r.Pinned {
			return r, true
		}
	}
	return Reward{}, false
}

// TogglePin flips the pin on id and clears it everywhere else in the same
// pass. Pinning the pinned reward leaves nothing pinned.
func (rs Rewards) TogglePin(id int64) error {
	i := rs.Find(id)
	if i < 0 {
		return ErrRewardNotFound
	}
	target := !rs[i].Pinned
	for j := range rs {
		rs[j].Pinned = false
	}
	rs[i].Pinned = target
	return nil
}

// Without returns the catalog minus id. Pins on other rewards are untouched.
func (rs Rewards) Without(id int64) (Rewards, bool) {
	i := rs.Find(id)
	if i < 0 {
		return rs, false
	}
	out := make(Rewards, 0, len(rs)-1)
	out = append(out, rs[:i]...)
	return append(out, rs[i+1:]...), true
}

// NormalizePins enforces the single-pin invariant on loaded data. A pinned id
// that exists wins; otherwise the first flagged reward keeps its pin.
func (rs Rewards) NormalizePins(pinnedID int64) {
	keep := -1
	if pinnedID != 0 {
		keep = rs.Find(pinnedID)
	}
	if keep < 0 {
		for i, r := range rs {
			if r.Pinned {
				keep = i
				break
			}
		}
	}
	for i := range rs {
		rs[i].Pinned = i == keep
	}
}

// Progress is how far the balance is toward a reward's cost.
type Progress struct {
	Reward  Reward          `json:"reward"`
	Balance decimal.Decimal `json:"balance"`
	Percent decimal.Decimal `json:"percent"` // 0 to 100
}

// ProgressToward computes percent of cost covered by balance, capped at 100.
// A reward without a positive cost reports 0.
func ProgressToward(r Reward, balance decimal.Decimal) Progress {
	if !r.Cost.IsPositive() {
		return Progress{Reward: r, Balance: balance, Percent: decimal.Zero}
	}
	hundred := decimal.NewFromInt(100)
	pct := balance.Div(r.Cost).Mul(hundred).Round(0)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	return Progress{Reward: r, Balance: balance, Percent: pct}
}
