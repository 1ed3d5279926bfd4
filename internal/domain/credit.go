package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Credit Account ─────────────────────────────────────────────────────────
// Every balance change goes through Credit or Debit so the balance can never
// be observed below zero.

// Account is the single spendable credit balance.
type Account struct {
	balance decimal.Decimal
}

// NewAccount opens an account at balance. Negative input is clamped to zero.
func NewAccount(balance decimal.Decimal) *Account {
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	return &Account{balance: balance}
}

// Balance returns the current balance.
func (a *Account) Balance() decimal.Decimal { return a.balance }

// Credit adds amount and returns the new balance.
func (a *Account) Credit(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return a.balance, ErrNegativeAmount
	}
	a.balance = a.balance.Add(amount)
	return a.balance, nil
}

// Debit removes amount. With clamp the result floors at zero; without it an
// amount above the balance fails with ErrInsufficientBalance and nothing
// changes.
func (a *Account) Debit(amount decimal.Decimal, clamp bool) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return a.balance, ErrNegativeAmount
	}
	if amount.GreaterThan(a.balance) {
		if !clamp {
			return a.balance, ErrInsufficientBalance
		}
		a.balance = decimal.Zero
		return a.balance, nil
	}
	a.balance = a.balance.Sub(amount)
	return a.balance, nil
}

// ─── Session Adjustments ────────────────────────────────────────────────────

var (
	SessionCredit  = decimal.NewFromInt(1)
	FullCorrection = decimal.NewFromInt(1)
	HalfCorrection = decimal.RequireFromString("0.5")
)

// ValidateCorrection accepts the two correction sizes the dashboard offers.
func ValidateCorrection(amount decimal.Decimal) error {
	if amount.Equal(FullCorrection) || amount.Equal(HalfCorrection) {
		return nil
	}
	return ErrInvalidCorrection
}

// ─── Journal ────────────────────────────────────────────────────────────────

// TransactionType represents the business reason for a balance change.
type TransactionType string

const (
	TxGradeEarn  TransactionType = "GRADE_EARN"
	TxGradeUndo  TransactionType = "GRADE_UNDO"
	TxSession    TransactionType = "SESSION"
	TxCorrection TransactionType = "CORRECTION"
	TxRedeem     TransactionType = "REDEEM"
)

// JournalEntry records one applied balance change. Delta is the change that
// actually happened, so a clamped debit records less than was requested.
type JournalEntry struct {
	ID          int64           `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Type        TransactionType `json:"type"`
	Delta       decimal.Decimal `json:"delta"`
	Balance     decimal.Decimal `json:"balance"`
	Description string          `json:"description,omitempty"`
}
