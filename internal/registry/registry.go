package registry

import (
	"errors"
	"fmt"
)

// ErrUnknownAsset indicates an asset symbol outside the fixed enumeration of
// supported ledgers. Callers must reject it before issuing any query.
var ErrUnknownAsset = errors.New("unknown asset")

// LedgerDescriptor maps an asset symbol to its physical wallet table and the
// columns that table is known to carry. The legacy per-asset tables were
// created independently over several years and do not share a schema; the
// capability flags record the gaps so adapters never have to probe the store.
type LedgerDescriptor struct {
	Asset                string
	Table                string
	Network              string
	HasOwnerColumn       bool
	HasFreezeColumn      bool
	HasFiatBalanceColumn bool
}

// Registry is the ordered, immutable set of all known ledgers. Construct once
// at process start; safe for concurrent use because it is never mutated.
type Registry struct {
	ordered []LedgerDescriptor
	byAsset map[string]LedgerDescriptor
}

// New builds a registry from the provided descriptors, preserving order.
func New(descriptors []LedgerDescriptor) (*Registry, error) {
	byAsset := make(map[string]LedgerDescriptor, len(descriptors))
	ordered := make([]LedgerDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if d.Asset == "" || d.Table == "" {
			return nil, fmt.Errorf("descriptor missing asset or table: %+v", d)
		}
		if _, exists := byAsset[d.Asset]; exists {
			return nil, fmt.Errorf("duplicate ledger descriptor for asset %s", d.Asset)
		}
		byAsset[d.Asset] = d
		ordered = append(ordered, d)
	}
	return &Registry{ordered: ordered, byAsset: byAsset}, nil
}

// Default returns the registry for the supported asset enumeration. The
// capability flags mirror the live table schemas: the oldest tables (BTC era)
// predate fiat valuation columns, XRP and DOGE wallets are unowned omnibus
// addresses, and the TRX/SOL tables were provisioned without a freeze flag.
func Default() *Registry {
	r, err := New([]LedgerDescriptor{
		{Asset: "BTC", Table: "wallet_btc", Network: "bitcoin", HasOwnerColumn: true, HasFreezeColumn: true},
		{Asset: "ETH", Table: "wallet_eth", Network: "ethereum", HasOwnerColumn: true, HasFreezeColumn: true, HasFiatBalanceColumn: true},
		{Asset: "USDT", Table: "wallet_usdt", Network: "ethereum", HasOwnerColumn: true, HasFreezeColumn: true, HasFiatBalanceColumn: true},
		{Asset: "LTC", Table: "wallet_ltc", Network: "litecoin", HasOwnerColumn: true, HasFreezeColumn: true},
		{Asset: "BCH", Table: "wallet_bch", Network: "bitcoin-cash", HasOwnerColumn: true, HasFreezeColumn: true, HasFiatBalanceColumn: true},
		{Asset: "XRP", Table: "wallet_xrp", Network: "ripple", HasFreezeColumn: true, HasFiatBalanceColumn: true},
		{Asset: "DOGE", Table: "wallet_doge", Network: "dogecoin", HasFreezeColumn: true},
		{Asset: "TRX", Table: "wallet_trx", Network: "tron", HasOwnerColumn: true, HasFiatBalanceColumn: true},
		{Asset: "SOL", Table: "wallet_sol", Network: "solana", HasOwnerColumn: true, HasFiatBalanceColumn: true},
	})
	if err != nil {
		panic(err) // fixed enumeration, cannot fail
	}
	return r
}

// List returns every descriptor in registration order. The returned slice is a
// copy; callers may not mutate registry state through it.
func (r *Registry) List() []LedgerDescriptor {
	out := make([]LedgerDescriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Get resolves an asset symbol to its descriptor.
func (r *Registry) Get(asset string) (LedgerDescriptor, error) {
	d, ok := r.byAsset[asset]
	if !ok {
		return LedgerDescriptor{}, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	return d, nil
}

// Assets returns the asset symbols in registration order.
func (r *Registry) Assets() []string {
	out := make([]string, len(r.ordered))
	for i, d := range r.ordered {
		out[i] = d.Asset
	}
	return out
}
