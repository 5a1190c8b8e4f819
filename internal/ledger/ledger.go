package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound occurs when a specifically addressed wallet does not exist in
// its stated ledger.
var ErrNotFound = errors.New("wallet not found")

// UnavailableError wraps a transport or storage failure for a single ledger.
// It never aborts sibling ledgers; coordinators record it in the per-ledger
// outcome map instead of propagating it as a hard failure.
type UnavailableError struct {
	Asset string
	Err   error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("ledger %s unavailable: %v", e.Asset, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Unavailable wraps err as an UnavailableError for the given asset.
func Unavailable(asset string, err error) error {
	return &UnavailableError{Asset: asset, Err: err}
}

// WalletRecord is the normalized, ledger-agnostic view over one wallet row.
// It is constructed per query response and never persisted. A wallet is
// identified only by (Asset, WalletID); there is no global wallet UUID.
// Balances stay decimal strings end to end; this core defines no arithmetic
// on them.
type WalletRecord struct {
	Asset       string    `json:"asset"`
	WalletID    int64     `json:"wallet_id"`
	Address     string    `json:"address,omitempty"`
	Balance     string    `json:"balance"`
	FiatBalance string    `json:"fiat_balance"`
	OwnerID     *int64    `json:"owner_id,omitempty"`
	Frozen      bool      `json:"frozen"`
	Network     string    `json:"network"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter restricts wallet queries. Nil pointer fields mean "not filtered".
// Address matching is a case-insensitive substring match.
type Filter struct {
	OwnerID         *int64
	AddressContains string
	Frozen          *bool
}

// QueryResult carries the rows of an unbounded (capped) fetch and whether the
// ledger held more matching rows than the cap allowed.
type QueryResult struct {
	Rows      []WalletRecord
	Truncated bool
}

// QueryAdapter executes filtered reads and single-row freeze-state writes
// against one ledger. One adapter exists per LedgerDescriptor. Implementations
// degrade gracefully when the underlying table lacks a column implied by the
// filter, using the descriptor's capability flags rather than probing the
// store: an owner filter against an ownerless ledger matches nothing, and a
// frozen filter against a ledger without the column treats every row as
// unfrozen. Transport and storage failures surface as *UnavailableError.
type QueryAdapter interface {
	// Asset returns the asset symbol this adapter serves.
	Asset() string

	// QueryPage returns one store-paginated page ordered by creation time
	// descending, plus the total row count under the same filter.
	QueryPage(ctx context.Context, f Filter, limit, offset int) ([]WalletRecord, int64, error)

	// QueryAll returns every matching row up to the adapter's row cap,
	// reporting truncation. Used only under scatter-gather, where global
	// pagination must happen after the union.
	QueryAll(ctx context.Context, f Filter) (QueryResult, error)

	// FindOne fetches a single wallet by its ledger-local identifier.
	FindOne(ctx context.Context, walletID int64) (WalletRecord, error)

	// SetFrozen updates one wallet's freeze flag, returning rows affected
	// (0 or 1). An absent wallet is 0, not an error.
	SetFrozen(ctx context.Context, walletID int64, frozen bool) (int64, error)

	// SetFrozenForOwner updates every wallet held by the owner, returning
	// rows affected (0..N).
	SetFrozenForOwner(ctx context.Context, ownerID int64, frozen bool) (int64, error)
}
