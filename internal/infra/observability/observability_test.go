package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

func TestSetBalance(t *testing.T) {
	SetBalance(decimal.RequireFromString("12.5"))
	if got := testutil.ToFloat64(CreditsBalance); got != 12.5 {
		t.Errorf("CreditsBalance = %v, want 12.5", got)
	}
}

func TestAddEarned_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(CreditsEarned.WithLabelValues("grade"))

	AddEarned("grade", decimal.Zero)
	AddEarned("grade", decimal.NewFromInt(3))

	got := testutil.ToFloat64(CreditsEarned.WithLabelValues("grade")) - before
	if got != 3 {
		t.Errorf("earned delta = %v, want 3", got)
	}
}

func TestStoreFailures_Labelled(t *testing.T) {
	before := testutil.ToFloat64(StoreFailures.WithLabelValues("f_grades"))
	StoreFailures.WithLabelValues("f_grades").Inc()
	if got := testutil.ToFloat64(StoreFailures.WithLabelValues("f_grades")); got != before+1 {
		t.Errorf("failures = %v, want %v", got, before+1)
	}
}
