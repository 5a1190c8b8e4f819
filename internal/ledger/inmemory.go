package ledger

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/walletgrid/walletgrid/internal/registry"
)

// InMemoryAdapter is a concurrency-safe in-memory ledger useful for unit
// tests and for running the API without a database in development. It applies
// the same capability-gap semantics as the Postgres adapter.
type InMemoryAdapter struct {
	mu      sync.RWMutex
	desc    registry.LedgerDescriptor
	rowCap  int
	rows    map[int64]WalletRecord
	fail    error
	latency time.Duration
}

// NewInMemory creates an empty in-memory adapter for the descriptor.
func NewInMemory(desc registry.LedgerDescriptor, rowCap int) *InMemoryAdapter {
	if rowCap < 1 {
		rowCap = 500
	}
	return &InMemoryAdapter{desc: desc, rowCap: rowCap, rows: make(map[int64]WalletRecord)}
}

// Asset returns the asset symbol this adapter serves.
func (a *InMemoryAdapter) Asset() string { return a.desc.Asset }

// wait simulates transport latency and honours context cancellation the way a
// real connection would.
func (a *InMemoryAdapter) wait(ctx context.Context) error {
	a.mu.RLock()
	latency := a.latency
	fail := a.fail
	a.mu.RUnlock()

	if fail != nil {
		return Unavailable(a.desc.Asset, fail)
	}
	if latency <= 0 {
		if err := ctx.Err(); err != nil {
			return Unavailable(a.desc.Asset, err)
		}
		return nil
	}
	select {
	case <-time.After(latency):
		return nil
	case <-ctx.Done():
		return Unavailable(a.desc.Asset, ctx.Err())
	}
}

// normalize applies the ledger's column capabilities to a record, the same
// defaults the select list applies in SQL.
func (a *InMemoryAdapter) normalize(w WalletRecord) WalletRecord {
	w.Asset = a.desc.Asset
	w.Network = a.desc.Network
	if !a.desc.HasOwnerColumn {
		w.OwnerID = nil
	}
	if !a.desc.HasFreezeColumn {
		w.Frozen = false
	}
	if !a.desc.HasFiatBalanceColumn || w.FiatBalance == "" {
		w.FiatBalance = "0"
	}
	if w.Balance == "" {
		w.Balance = "0"
	}
	return w
}

func (a *InMemoryAdapter) matches(w WalletRecord, f Filter) bool {
	if f.OwnerID != nil {
		if w.OwnerID == nil || *w.OwnerID != *f.OwnerID {
			return false
		}
	}
	if f.AddressContains != "" {
		if !strings.Contains(strings.ToLower(w.Address), strings.ToLower(f.AddressContains)) {
			return false
		}
	}
	if f.Frozen != nil && w.Frozen != *f.Frozen {
		return false
	}
	return true
}

// collect returns all matching rows ordered by creation time descending, id
// ascending.
func (a *InMemoryAdapter) collect(f Filter) []WalletRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if f.OwnerID != nil && !a.desc.HasOwnerColumn {
		return nil
	}
	if f.Frozen != nil && *f.Frozen && !a.desc.HasFreezeColumn {
		return nil
	}

	var out []WalletRecord
	for _, w := range a.rows {
		if a.matches(w, f) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].WalletID < out[j].WalletID
	})
	return out
}

// QueryPage returns one page of matching rows plus the total match count.
func (a *InMemoryAdapter) QueryPage(ctx context.Context, f Filter, limit, offset int) ([]WalletRecord, int64, error) {
	if err := a.wait(ctx); err != nil {
		return nil, 0, err
	}
	all := a.collect(f)
	total := int64(len(all))
	if offset < 0 || offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// QueryAll returns every matching row up to the adapter's cap.
func (a *InMemoryAdapter) QueryAll(ctx context.Context, f Filter) (QueryResult, error) {
	if err := a.wait(ctx); err != nil {
		return QueryResult{}, err
	}
	all := a.collect(f)
	if len(all) > a.rowCap {
		return QueryResult{Rows: all[:a.rowCap], Truncated: true}, nil
	}
	return QueryResult{Rows: all}, nil
}

// FindOne fetches a single wallet by id.
func (a *InMemoryAdapter) FindOne(ctx context.Context, walletID int64) (WalletRecord, error) {
	if err := a.wait(ctx); err != nil {
		return WalletRecord{}, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	w, ok := a.rows[walletID]
	if !ok {
		return WalletRecord{}, ErrNotFound
	}
	return w, nil
}

// SetFrozen updates one wallet's freeze flag; absent wallets and ledgers
// without the column report zero rows.
func (a *InMemoryAdapter) SetFrozen(ctx context.Context, walletID int64, frozen bool) (int64, error) {
	if err := a.wait(ctx); err != nil {
		return 0, err
	}
	if !a.desc.HasFreezeColumn {
		return 0, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	w, ok := a.rows[walletID]
	if !ok {
		return 0, nil
	}
	w.Frozen = frozen
	a.rows[walletID] = w
	return 1, nil
}

// SetFrozenForOwner updates every wallet held by the owner.
func (a *InMemoryAdapter) SetFrozenForOwner(ctx context.Context, ownerID int64, frozen bool) (int64, error) {
	if err := a.wait(ctx); err != nil {
		return 0, err
	}
	if !a.desc.HasFreezeColumn || !a.desc.HasOwnerColumn {
		return 0, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	var affected int64
	for id, w := range a.rows {
		if w.OwnerID != nil && *w.OwnerID == ownerID {
			w.Frozen = frozen
			a.rows[id] = w
			affected++
		}
	}
	return affected, nil
}
