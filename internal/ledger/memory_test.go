package ledger

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreEnsure(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	created, err := store.Ensure(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("first Ensure should report created")
	}

	created, err = store.Ensure(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatal("second Ensure should not report created")
	}

	account, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Spent != 0 || account.LoyaltyPoints != 0 || account.Bank != 0 || account.LastRedeem != "" {
		t.Errorf("fresh account has non-default values: %+v", account)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()

	if _, err := store.Get(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on missing user = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreFieldOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if _, err := store.Ensure(ctx, "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.SetField(ctx, "u1", FieldBank, int64(500)); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if err := store.IncrementField(ctx, "u1", FieldBank, -200); err != nil {
		t.Fatalf("IncrementField: %v", err)
	}
	if err := store.SetField(ctx, "u1", FieldLastRedeem, "2026-08-31"); err != nil {
		t.Fatalf("SetField last_redeem: %v", err)
	}

	account, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Bank != 300 {
		t.Errorf("bank = %d, want 300", account.Bank)
	}
	if account.LastRedeem != "2026-08-31" {
		t.Errorf("last_redeem = %q, want 2026-08-31", account.LastRedeem)
	}

	if err := store.SetField(ctx, "u1", "karma", int64(1)); !errors.Is(err, ErrInvalidField) {
		t.Errorf("SetField with unknown field = %v, want ErrInvalidField", err)
	}
	if err := store.IncrementField(ctx, "u1", FieldLastRedeem, 1); !errors.Is(err, ErrInvalidField) {
		t.Errorf("IncrementField on last_redeem = %v, want ErrInvalidField", err)
	}
}
