package freeze

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/walletgrid/walletgrid/internal/audit"
	"github.com/walletgrid/walletgrid/internal/ledger"
	"github.com/walletgrid/walletgrid/internal/logging"
	"github.com/walletgrid/walletgrid/internal/registry"
)

func ownerPtr(id int64) *int64 { return &id }

func newFixture(t *testing.T) (*Coordinator, map[string]ledger.QueryAdapter, *audit.MemorySink) {
	t.Helper()
	reg := registry.Default()
	adapters := make(map[string]ledger.QueryAdapter, len(reg.Assets()))
	for _, desc := range reg.List() {
		adapters[desc.Asset] = ledger.NewInMemory(desc, 500)
	}
	sink := audit.NewMemorySink()
	c, err := NewCoordinator(reg, adapters, sink, time.Second, logging.Discard())
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}
	return c, adapters, sink
}

func seedOwnerNine(t *testing.T, adapters map[string]ledger.QueryAdapter) {
	t.Helper()
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	ledger.Seed(adapters["BTC"],
		ledger.WalletRecord{WalletID: 42, Address: "bc1qFraudSuspect", Balance: "0.7", OwnerID: ownerPtr(9), CreatedAt: now},
	)
	ledger.Seed(adapters["ETH"],
		ledger.WalletRecord{WalletID: 7, Address: "0xAbCdEf", Balance: "12.5", OwnerID: ownerPtr(9), CreatedAt: now},
	)
}

func TestFreezeWallet(t *testing.T) {
	c, adapters, sink := newFixture(t)
	seedOwnerNine(t, adapters)
	ctx := context.Background()

	res, err := c.FreezeWallet(ctx, "BTC", 42, "fraud", 7)
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if !res.Success || res.Reason != "fraud" || !res.Frozen {
		t.Fatalf("unexpected result: %+v", res)
	}

	w, err := adapters["BTC"].FindOne(ctx, 42)
	if err != nil {
		t.Fatalf("find one: %v", err)
	}
	if !w.Frozen {
		t.Fatal("wallet not frozen in ledger")
	}

	records := sink.Records()
	if len(records) != 1 {
		t.Fatalf("expected exactly one audit record, got %d", len(records))
	}
	rec := records[0]
	if rec.Action != audit.ActionWalletFrozen || rec.ActorID != 7 {
		t.Fatalf("unexpected audit record: %+v", rec)
	}
	if rec.UserID == nil || *rec.UserID != 9 {
		t.Fatalf("audit record should carry the wallet owner, got %v", rec.UserID)
	}
	if rec.Detail["reason"] != "fraud" {
		t.Fatalf("audit detail missing reason: %v", rec.Detail)
	}
}

func TestFreezeWalletTwiceIsNoOpSuccess(t *testing.T) {
	c, adapters, sink := newFixture(t)
	seedOwnerNine(t, adapters)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := c.FreezeWallet(ctx, "BTC", 42, "fraud", 7)
		if err != nil {
			t.Fatalf("freeze attempt %d: %v", i+1, err)
		}
		if !res.Success || !res.Frozen {
			t.Fatalf("attempt %d not a success: %+v", i+1, res)
		}
	}
	// Each attempt is independently audited.
	if got := len(sink.Records()); got != 2 {
		t.Fatalf("expected 2 audit records, got %d", got)
	}
}

func TestUnfreezeWallet(t *testing.T) {
	c, adapters, sink := newFixture(t)
	seedOwnerNine(t, adapters)
	ctx := context.Background()

	if _, err := c.FreezeWallet(ctx, "ETH", 7, "compliance hold", 3); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	res, err := c.UnfreezeWallet(ctx, "ETH", 7, 3)
	if err != nil {
		t.Fatalf("unfreeze: %v", err)
	}
	if !res.Success || res.Frozen {
		t.Fatalf("unexpected result: %+v", res)
	}

	w, _ := adapters["ETH"].FindOne(ctx, 7)
	if w.Frozen {
		t.Fatal("wallet still frozen")
	}

	records := sink.Records()
	if len(records) != 2 || records[1].Action != audit.ActionWalletUnfrozen {
		t.Fatalf("expected freeze then unfreeze audit trail, got %+v", records)
	}
}

func TestFreezeWalletNotFound(t *testing.T) {
	c, _, sink := newFixture(t)

	_, err := c.FreezeWallet(context.Background(), "BTC", 404, "fraud", 7)
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(sink.Records()) != 0 {
		t.Fatal("failed lookup must not be audited as a mutation")
	}
}

func TestFreezeWalletUnknownAsset(t *testing.T) {
	c, _, _ := newFixture(t)
	_, err := c.FreezeWallet(context.Background(), "SHIB", 1, "fraud", 7)
	if !errors.Is(err, registry.ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
}

func TestFreezeAllForOwnerCoversEveryLedger(t *testing.T) {
	c, adapters, sink := newFixture(t)
	seedOwnerNine(t, adapters)
	ctx := context.Background()

	res, err := c.FreezeAllForOwner(ctx, 9, "compliance hold", 3)
	if err != nil {
		t.Fatalf("freeze all: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected overall success: %+v", res)
	}
	if len(res.Outcomes) != len(registry.Default().Assets()) {
		t.Fatalf("expected one outcome per ledger, got %d", len(res.Outcomes))
	}

	byAsset := make(map[string]Outcome, len(res.Outcomes))
	for _, o := range res.Outcomes {
		byAsset[o.Asset] = o
	}
	if byAsset["BTC"].RowsAffected != 1 || byAsset["ETH"].RowsAffected != 1 {
		t.Fatalf("expected one frozen wallet each in BTC and ETH, got %+v", res.Outcomes)
	}
	if byAsset["LTC"].RowsAffected != 0 || byAsset["LTC"].Error != "" {
		t.Fatalf("empty ledger should report zero rows, got %+v", byAsset["LTC"])
	}

	records := sink.Records()
	if len(records) != 1 {
		t.Fatalf("expected exactly one audit record, got %d", len(records))
	}
	rec := records[0]
	if rec.Action != audit.ActionAllWalletsFrozen {
		t.Fatalf("unexpected action %s", rec.Action)
	}
	outcomes, ok := rec.Detail["outcomes"].(map[string]any)
	if !ok {
		t.Fatalf("audit detail missing outcome map: %v", rec.Detail)
	}
	if len(outcomes) != len(res.Outcomes) {
		t.Fatalf("audit outcome count %d != ledgers attempted %d", len(outcomes), len(res.Outcomes))
	}
}

func TestFreezeAllForOwnerPartialFailure(t *testing.T) {
	c, adapters, sink := newFixture(t)
	seedOwnerNine(t, adapters)
	ledger.SetUnavailable(adapters["ETH"], errors.New("connection refused"))
	ctx := context.Background()

	res, err := c.FreezeAllForOwner(ctx, 9, "compliance hold", 3)
	if err != nil {
		t.Fatalf("freeze all: %v", err)
	}
	if !res.Success {
		t.Fatal("partial application must still report overall success")
	}

	var failed int
	for _, o := range res.Outcomes {
		if o.Error != "" {
			failed++
			if o.Asset != "ETH" {
				t.Fatalf("unexpected failed ledger %s", o.Asset)
			}
		}
	}
	if failed != 1 {
		t.Fatalf("expected exactly one errored outcome, got %d", failed)
	}

	// Siblings were still attempted.
	w, err := adapters["BTC"].FindOne(ctx, 42)
	if err != nil {
		t.Fatalf("find one: %v", err)
	}
	if !w.Frozen {
		t.Fatal("BTC wallet not frozen despite ETH failure")
	}

	// The failure stays forensically visible in the audit detail.
	records := sink.Records()
	if len(records) != 1 {
		t.Fatalf("expected one audit record, got %d", len(records))
	}
	outcomes := records[0].Detail["outcomes"].(map[string]any)
	eth, ok := outcomes["ETH"].(map[string]any)
	if !ok || eth["error"] == nil {
		t.Fatalf("audit detail should record the ETH failure, got %v", outcomes["ETH"])
	}
}

func TestUnfreezeAllForOwner(t *testing.T) {
	c, adapters, sink := newFixture(t)
	seedOwnerNine(t, adapters)
	ctx := context.Background()

	if _, err := c.FreezeAllForOwner(ctx, 9, "compliance hold", 3); err != nil {
		t.Fatalf("freeze all: %v", err)
	}
	res, err := c.UnfreezeAllForOwner(ctx, 9, 3)
	if err != nil {
		t.Fatalf("unfreeze all: %v", err)
	}
	if !res.Success || res.Frozen {
		t.Fatalf("unexpected result: %+v", res)
	}

	w, _ := adapters["BTC"].FindOne(ctx, 42)
	if w.Frozen {
		t.Fatal("wallet still frozen after bulk unfreeze")
	}
	records := sink.Records()
	if len(records) != 2 || records[1].Action != audit.ActionAllWalletsUnfrozen {
		t.Fatalf("expected freeze then unfreeze audit trail, got %d records", len(records))
	}
}

func TestAuditFailureDoesNotFailMutation(t *testing.T) {
	c, adapters, sink := newFixture(t)
	seedOwnerNine(t, adapters)
	sink.FailWith(errors.New("audit store down"))

	res, err := c.FreezeWallet(context.Background(), "BTC", 42, "fraud", 7)
	if err != nil {
		t.Fatalf("freeze should survive audit failure: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success despite audit failure: %+v", res)
	}

	w, _ := adapters["BTC"].FindOne(context.Background(), 42)
	if !w.Frozen {
		t.Fatal("mutation lost")
	}
}
