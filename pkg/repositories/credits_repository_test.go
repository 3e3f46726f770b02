//go:build integration

package repositories

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/easydayai/daisy-engine/pkg/models"
	"github.com/easydayai/daisy-engine/pkg/testhelpers"
)

// creditsTestContext holds test dependencies for credits repository tests.
type creditsTestContext struct {
	t    *testing.T
	repo CreditsRepository
}

func setupCreditsTest(t *testing.T) *creditsTestContext {
	testDB := testhelpers.GetTestDB(t)
	return &creditsTestContext{
		t:    t,
		repo: NewCreditsRepository(testDB.DB),
	}
}

// newFundedUser seeds a fresh user with the given balance via a purchase.
func (tc *creditsTestContext) newFundedUser(balance int64) uuid.UUID {
	tc.t.Helper()
	userID := uuid.New()
	if balance > 0 {
		err := tc.repo.Credit(context.Background(), userID, balance,
			models.CreditEventPurchase, "test:seed", uuid.New().String())
		if err != nil {
			tc.t.Fatalf("failed to seed balance: %v", err)
		}
	}
	return userID
}

func TestCreditsRepository_DebitAndBalance(t *testing.T) {
	tc := setupCreditsTest(t)
	ctx := context.Background()
	userID := tc.newFundedUser(5)

	charged, err := tc.repo.Debit(ctx, userID, 2, "assistant:create_appointment_type", uuid.New().String())
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if !charged {
		t.Fatal("expected debit to succeed")
	}

	balance, err := tc.repo.GetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance != 3 {
		t.Errorf("expected balance 3, got %d", balance)
	}
}

func TestCreditsRepository_DebitInsufficientLeavesStateUntouched(t *testing.T) {
	tc := setupCreditsTest(t)
	ctx := context.Background()
	userID := tc.newFundedUser(1)

	charged, err := tc.repo.Debit(ctx, userID, 3, "assistant:update_theme", uuid.New().String())
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if charged {
		t.Fatal("expected debit to be declined")
	}

	balance, err := tc.repo.GetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance != 1 {
		t.Errorf("declined debit must not change balance, got %d", balance)
	}

	// Only the seed purchase should be in the ledger.
	entries, err := tc.repo.ListLedger(ctx, userID, 10)
	if err != nil {
		t.Fatalf("list ledger failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("declined debit must not append a ledger entry, got %d entries", len(entries))
	}
}

func TestCreditsRepository_DebitNoBalanceRow(t *testing.T) {
	tc := setupCreditsTest(t)

	charged, err := tc.repo.Debit(context.Background(), uuid.New(), 1, "assistant:set_availability", uuid.New().String())
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if charged {
		t.Error("user without a balance row has zero credits")
	}
}

func TestCreditsRepository_ZeroDebitIsFree(t *testing.T) {
	tc := setupCreditsTest(t)
	ctx := context.Background()
	userID := tc.newFundedUser(2)

	charged, err := tc.repo.Debit(ctx, userID, 0, "assistant:get_profile", uuid.New().String())
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if !charged {
		t.Fatal("zero debit must succeed")
	}

	entries, err := tc.repo.ListLedger(ctx, userID, 10)
	if err != nil {
		t.Fatalf("list ledger failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("zero debit must not append a ledger entry, got %d entries", len(entries))
	}
}

func TestCreditsRepository_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	tc := setupCreditsTest(t)
	ctx := context.Background()
	userID := tc.newFundedUser(10)

	const workers = 25
	var wg sync.WaitGroup
	results := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			charged, err := tc.repo.Debit(ctx, userID, 1, "assistant:configure_reminders", uuid.New().String())
			if err != nil {
				t.Errorf("debit failed: %v", err)
				return
			}
			results <- charged
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for charged := range results {
		if charged {
			succeeded++
		}
	}
	if succeeded != 10 {
		t.Errorf("expected exactly 10 successful debits, got %d", succeeded)
	}

	balance, err := tc.repo.GetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance != 0 {
		t.Errorf("expected balance 0, got %d", balance)
	}

	// Ledger must reconcile with the balance: seed purchase plus debits.
	entries, err := tc.repo.ListLedger(ctx, userID, 50)
	if err != nil {
		t.Fatalf("list ledger failed: %v", err)
	}
	var sum int64
	for _, e := range entries {
		sum += e.CreditsDelta
	}
	if sum != balance {
		t.Errorf("ledger sum %d does not reconcile with balance %d", sum, balance)
	}
}

func TestCreditsRepository_RefundRestoresBalance(t *testing.T) {
	tc := setupCreditsTest(t)
	ctx := context.Background()
	userID := tc.newFundedUser(3)

	charged, err := tc.repo.Debit(ctx, userID, 2, "assistant:update_theme", uuid.New().String())
	if err != nil || !charged {
		t.Fatalf("debit failed: charged=%v err=%v", charged, err)
	}

	err = tc.repo.Credit(ctx, userID, 2, models.CreditEventRefund, "assistant:followup_failure", uuid.New().String())
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}

	balance, err := tc.repo.GetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance != 3 {
		t.Errorf("expected balance restored to 3, got %d", balance)
	}
}
