package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ticketforge/foreman-bot/internal/amount"
	"github.com/ticketforge/foreman-bot/internal/ledger"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *ledger.MemoryStore) {
	t.Helper()

	store := ledger.NewMemoryStore()
	svc := NewService(store, nil, testLogger(), opts...)
	return svc, store
}

func TestEnsureAndFetchCreatesDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	first, err := svc.EnsureAndFetch(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Spent != 0 || first.LoyaltyPoints != 0 || first.Bank != 0 || first.LastRedeem != "" {
		t.Fatalf("fresh account is not default: %+v", first)
	}

	second, err := svc.EnsureAndFetch(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *second != *first {
		t.Errorf("second fetch changed the record: %+v vs %+v", second, first)
	}
}

func TestCreditSpend(t *testing.T) {
	tests := []struct {
		name        string
		amountText  string
		wantSpent   int64
		wantLoyalty int64
	}{
		{name: "below loyalty threshold", amountText: "250k", wantSpent: 250_000, wantLoyalty: 0},
		{name: "exactly one point", amountText: "10m", wantSpent: 10_000_000, wantLoyalty: 1},
		{name: "floor division", amountText: "25m", wantSpent: 25_000_000, wantLoyalty: 2},
		{name: "huge order", amountText: "10000000m", wantSpent: 10_000_000_000_000, wantLoyalty: 1_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, store := newTestService(t)

			newSpent, gained, err := svc.CreditSpend(ctx, "buyer", tt.amountText)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if newSpent != tt.wantSpent {
				t.Errorf("newSpent = %d, want %d", newSpent, tt.wantSpent)
			}
			if gained != tt.wantLoyalty {
				t.Errorf("loyaltyGained = %d, want %d", gained, tt.wantLoyalty)
			}

			account, err := store.Get(ctx, "buyer")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if account.Spent != tt.wantSpent || account.LoyaltyPoints != tt.wantLoyalty {
				t.Errorf("persisted record = %+v", account)
			}
		})
	}
}

func TestCreditSpendInvalidAmount(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	_, _, err := svc.CreditSpend(ctx, "buyer", "wat")
	if !errors.Is(err, amount.ErrInvalidAmount) {
		t.Fatalf("error = %v, want ErrInvalidAmount", err)
	}

	// Parsing fails before any ledger touch, so no record may exist.
	if _, err := store.Get(ctx, "buyer"); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("account was created despite invalid amount: %v", err)
	}
}

func TestAdjustLoyaltyAllowsNegative(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	total, err := svc.AdjustLoyalty(ctx, "u1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}

	total, err = svc.AdjustLoyalty(ctx, "u1", -12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != -7 {
		t.Errorf("total = %d, want -7 (no floor)", total)
	}
}

func TestBankAdjustments(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	balance, err := svc.AddBank(ctx, "u1", "1m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 1_000_000 {
		t.Errorf("balance = %d, want 1000000", balance)
	}

	balance, err = svc.SubtractBank(ctx, "u1", "3m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != -2_000_000 {
		t.Errorf("balance = %d, want -2000000 (no floor)", balance)
	}

	if _, err := svc.AddBank(ctx, "u1", ""); !errors.Is(err, amount.ErrInvalidAmount) {
		t.Errorf("empty amount error = %v, want ErrInvalidAmount", err)
	}
}

func TestClaimDaily(t *testing.T) {
	ctx := context.Background()

	// 21:30 local, so the cooldown runs 2h30m until midnight.
	claimTime := time.Date(2026, time.August, 31, 21, 30, 0, 0, time.UTC)
	svc, store := newTestService(t,
		WithClock(func() time.Time { return claimTime }),
		WithRewardRoll(func(min, max int64) int64 { return 77_777 }),
	)

	first, err := svc.ClaimDaily(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.Claimed {
		t.Fatal("first claim of the day should succeed")
	}
	if first.Amount != 77_777 {
		t.Errorf("amount = %d, want 77777", first.Amount)
	}

	account, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Bank != 77_777 {
		t.Errorf("bank = %d, want 77777", account.Bank)
	}
	if account.LastRedeem != "2026-08-31" {
		t.Errorf("last_redeem = %q, want 2026-08-31", account.LastRedeem)
	}

	second, err := svc.ClaimDaily(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Claimed {
		t.Fatal("second claim on the same day must be on cooldown")
	}
	if want := 2*time.Hour + 30*time.Minute; second.Remaining != want {
		t.Errorf("remaining = %v, want %v (until local midnight)", second.Remaining, want)
	}

	// Cooldown leaves the ledger untouched.
	after, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *after != *account {
		t.Errorf("cooldown mutated the record: %+v vs %+v", after, account)
	}
}

func TestClaimDailyResetsAtMidnight(t *testing.T) {
	ctx := context.Background()

	now := time.Date(2026, time.August, 31, 23, 59, 0, 0, time.UTC)
	svc, _ := newTestService(t,
		WithClock(func() time.Time { return now }),
		WithRewardRoll(func(min, max int64) int64 { return min }),
	)

	if result, err := svc.ClaimDaily(ctx, "u1"); err != nil || !result.Claimed {
		t.Fatalf("first claim: result=%+v err=%v", result, err)
	}

	// One minute later it is a new calendar day: the gate reopens even
	// though fewer than 24 hours have passed.
	now = time.Date(2026, time.September, 1, 0, 0, 30, 0, time.UTC)

	result, err := svc.ClaimDaily(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Claimed {
		t.Fatal("claim after midnight rollover should succeed")
	}
}

func TestClaimDailyRewardBounds(t *testing.T) {
	svc, _ := newTestService(t)

	for i := 0; i < 200; i++ {
		reward := svc.rewardRoll(dailyRewardMin, dailyRewardMax)
		if reward < dailyRewardMin || reward > dailyRewardMax {
			t.Fatalf("reward %d outside [%d, %d]", reward, dailyRewardMin, dailyRewardMax)
		}
	}
}
