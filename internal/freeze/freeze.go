package freeze

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/walletgrid/walletgrid/internal/audit"
	"github.com/walletgrid/walletgrid/internal/ledger"
	"github.com/walletgrid/walletgrid/internal/registry"
)

const defaultLedgerTimeout = 5 * time.Second

// Outcome is one ledger's share of a mutation: rows affected, or the error
// that ledger produced. Exactly one of RowsAffected/Error is meaningful.
type Outcome struct {
	Asset        string `json:"asset"`
	RowsAffected int64  `json:"rows_affected"`
	Error        string `json:"error,omitempty"`
}

// Result reports a single-wallet state transition.
type Result struct {
	Success      bool   `json:"success"`
	Asset        string `json:"asset"`
	WalletID     int64  `json:"wallet_id"`
	Frozen       bool   `json:"frozen"`
	RowsAffected int64  `json:"rows_affected"`
	Reason       string `json:"reason,omitempty"`
}

// BulkResult aggregates per-ledger outcomes of an owner-wide transition.
// Partial application across independently-owned shards is the defined
// behaviour, so Success is true even when some ledgers errored; the failures
// stay visible in Outcomes.
type BulkResult struct {
	Success  bool      `json:"success"`
	Frozen   bool      `json:"frozen"`
	OwnerID  int64     `json:"owner_id"`
	Reason   string    `json:"reason,omitempty"`
	Outcomes []Outcome `json:"outcomes"`
}

// Coordinator applies freeze/unfreeze transitions atomically per ledger and
// best-effort across ledgers. No cross-ledger transaction or lock exists;
// every completed attempt emits exactly one audit record carrying the full
// per-ledger outcome map.
type Coordinator struct {
	reg      *registry.Registry
	adapters map[string]ledger.QueryAdapter
	sink     audit.Sink
	timeout  time.Duration
	logger   *slog.Logger
}

// NewCoordinator wires the mutation coordinator. adapters must hold one entry
// per registry descriptor.
func NewCoordinator(reg *registry.Registry, adapters map[string]ledger.QueryAdapter, sink audit.Sink, timeout time.Duration, logger *slog.Logger) (*Coordinator, error) {
	if timeout <= 0 {
		timeout = defaultLedgerTimeout
	}
	for _, asset := range reg.Assets() {
		if _, ok := adapters[asset]; !ok {
			return nil, fmt.Errorf("no adapter for ledger %s", asset)
		}
	}
	return &Coordinator{reg: reg, adapters: adapters, sink: sink, timeout: timeout, logger: logger}, nil
}

// FreezeWallet freezes one wallet. Freezing an already-frozen wallet is a
// no-op success.
func (c *Coordinator) FreezeWallet(ctx context.Context, asset string, walletID int64, reason string, actorID int64) (Result, error) {
	return c.setWallet(ctx, asset, walletID, true, reason, actorID)
}

// UnfreezeWallet unfreezes one wallet.
func (c *Coordinator) UnfreezeWallet(ctx context.Context, asset string, walletID int64, actorID int64) (Result, error) {
	return c.setWallet(ctx, asset, walletID, false, "", actorID)
}

// setWallet looks the wallet up first so an absent wallet surfaces as
// ErrNotFound instead of a zero-rows-affected success, then writes the flag
// and audits the attempt.
func (c *Coordinator) setWallet(ctx context.Context, asset string, walletID int64, frozen bool, reason string, actorID int64) (Result, error) {
	if _, err := c.reg.Get(asset); err != nil {
		return Result{}, err
	}
	adapter := c.adapters[asset]

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	record, err := adapter.FindOne(callCtx, walletID)
	if err != nil {
		return Result{}, err
	}

	affected, err := adapter.SetFrozen(callCtx, walletID, frozen)
	if err != nil {
		return Result{}, err
	}

	action := audit.ActionWalletFrozen
	if !frozen {
		action = audit.ActionWalletUnfrozen
	}
	c.append(ctx, audit.Record{
		Action:  action,
		ActorID: actorID,
		UserID:  record.OwnerID,
		Detail: map[string]any{
			"asset":         asset,
			"wallet_id":     walletID,
			"rows_affected": affected,
			"reason":        reason,
		},
	})

	return Result{
		Success:      true,
		Asset:        asset,
		WalletID:     walletID,
		Frozen:       frozen,
		RowsAffected: affected,
		Reason:       reason,
	}, nil
}

// FreezeAllForOwner freezes every wallet the owner holds, on every ledger in
// the registry. Ownership may not be discoverable without a per-ledger scan,
// so no ledger is skipped up front.
func (c *Coordinator) FreezeAllForOwner(ctx context.Context, ownerID int64, reason string, actorID int64) (BulkResult, error) {
	return c.setOwner(ctx, ownerID, true, reason, actorID)
}

// UnfreezeAllForOwner unfreezes every wallet the owner holds.
func (c *Coordinator) UnfreezeAllForOwner(ctx context.Context, ownerID int64, actorID int64) (BulkResult, error) {
	return c.setOwner(ctx, ownerID, false, "", actorID)
}

// setOwner fans the write out to every ledger concurrently and waits for all
// of them to settle. One ledger's failure never prevents the others from
// being attempted; the call reports overall success with the failure recorded
// in that ledger's outcome.
func (c *Coordinator) setOwner(ctx context.Context, ownerID int64, frozen bool, reason string, actorID int64) (BulkResult, error) {
	assets := c.reg.Assets()
	outcomes := make([]Outcome, len(assets))

	var wg sync.WaitGroup
	for i, asset := range assets {
		wg.Add(1)
		go func(i int, adapter ledger.QueryAdapter) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			affected, err := adapter.SetFrozenForOwner(callCtx, ownerID, frozen)
			if err != nil {
				outcomes[i] = Outcome{Asset: adapter.Asset(), Error: err.Error()}
				return
			}
			outcomes[i] = Outcome{Asset: adapter.Asset(), RowsAffected: affected}
		}(i, c.adapters[asset])
	}
	wg.Wait()

	action := audit.ActionAllWalletsFrozen
	if !frozen {
		action = audit.ActionAllWalletsUnfrozen
	}
	detail := map[string]any{"reason": reason, "outcomes": outcomeDetail(outcomes)}
	c.append(ctx, audit.Record{Action: action, ActorID: actorID, UserID: &ownerID, Detail: detail})

	return BulkResult{
		Success:  true,
		Frozen:   frozen,
		OwnerID:  ownerID,
		Reason:   reason,
		Outcomes: outcomes,
	}, nil
}

func outcomeDetail(outcomes []Outcome) map[string]any {
	detail := make(map[string]any, len(outcomes))
	for _, o := range outcomes {
		if o.Error != "" {
			detail[o.Asset] = map[string]any{"error": o.Error}
			continue
		}
		detail[o.Asset] = map[string]any{"rows_affected": o.RowsAffected}
	}
	return detail
}

// append writes the audit record; a sink failure is logged and never turned
// into a failure of the audited mutation.
func (c *Coordinator) append(ctx context.Context, record audit.Record) {
	record.ID = uuid.NewString()
	record.CreatedAt = time.Now().UTC()
	if err := c.sink.Append(ctx, record); err != nil {
		c.logger.Error("audit write failed", "action", record.Action, "error", err)
	}
}
