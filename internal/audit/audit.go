package audit

import (
	"context"
	"time"
)

const (
	// ActionWalletFrozen records a single-wallet freeze.
	ActionWalletFrozen = "wallet-frozen"
	// ActionWalletUnfrozen records a single-wallet unfreeze.
	ActionWalletUnfrozen = "wallet-unfrozen"
	// ActionAllWalletsFrozen records a bulk freeze across every ledger.
	ActionAllWalletsFrozen = "all-wallets-frozen"
	// ActionAllWalletsUnfrozen records a bulk unfreeze across every ledger.
	ActionAllWalletsUnfrozen = "all-wallets-unfrozen"
)

// Record is one append-only audit event. Created exactly once per completed
// mutation attempt, never mutated or deleted.
type Record struct {
	ID        string
	Action    string
	ActorID   int64
	UserID    *int64
	Detail    map[string]any
	CreatedAt time.Time
}

// Sink persists audit records. Implementations are expected to be durable;
// callers treat a failed append as loggable, not as a failure of the audited
// operation itself.
type Sink interface {
	Append(ctx context.Context, record Record) error
}
