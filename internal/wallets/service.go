package wallets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/walletgrid/walletgrid/internal/ledger"
	"github.com/walletgrid/walletgrid/internal/registry"
)

// ErrInvalidPage indicates malformed pagination arguments, rejected before
// any I/O.
var ErrInvalidPage = errors.New("page and page_size must be positive")

const defaultLedgerTimeout = 5 * time.Second

// ListInput captures one wallet listing request. An empty Asset means the
// query spans every ledger.
type ListInput struct {
	Asset           string
	OwnerID         *int64
	AddressContains string
	Frozen          *bool
	Page            int
	PageSize        int
}

// ListResult is a Page plus the degradation signals of a cross-ledger read:
// which ledgers failed and which hit their row cap. A partial result is still
// a success; callers that need exhaustive data consult these fields.
type ListResult struct {
	Page
	Partial         bool     `json:"partial"`
	FailedAssets    []string `json:"failed_assets,omitempty"`
	TruncatedAssets []string `json:"truncated_assets,omitempty"`
}

// Service answers wallet listing queries across the ledger fleet. Single-asset
// requests push LIMIT/OFFSET to that ledger's store for exact pagination;
// cross-asset requests scatter to every ledger, merge client-side, and slice,
// because no ledger can provide a globally consistent offset.
type Service struct {
	reg         *registry.Registry
	adapters    map[string]ledger.QueryAdapter
	timeout     time.Duration
	maxPageSize int
	logger      *slog.Logger
}

// NewService wires the read service. adapters must hold one entry per
// registry descriptor.
func NewService(reg *registry.Registry, adapters map[string]ledger.QueryAdapter, timeout time.Duration, maxPageSize int, logger *slog.Logger) (*Service, error) {
	if timeout <= 0 {
		timeout = defaultLedgerTimeout
	}
	if maxPageSize < 1 {
		maxPageSize = 100
	}
	for _, asset := range reg.Assets() {
		if _, ok := adapters[asset]; !ok {
			return nil, fmt.Errorf("no adapter for ledger %s", asset)
		}
	}
	return &Service{reg: reg, adapters: adapters, timeout: timeout, maxPageSize: maxPageSize, logger: logger}, nil
}

// List serves both the single-asset and the cross-asset read paths.
func (s *Service) List(ctx context.Context, in ListInput) (ListResult, error) {
	if in.Page < 1 || in.PageSize < 1 {
		return ListResult{}, ErrInvalidPage
	}
	if in.PageSize > s.maxPageSize {
		in.PageSize = s.maxPageSize
	}

	filter := ledger.Filter{OwnerID: in.OwnerID, AddressContains: in.AddressContains, Frozen: in.Frozen}

	if in.Asset != "" {
		return s.listOne(ctx, in.Asset, filter, in.Page, in.PageSize)
	}
	return s.listAll(ctx, filter, in.Page, in.PageSize)
}

// listOne delegates pagination to the ledger's own LIMIT/OFFSET. A failing
// ledger degrades to an empty partial page rather than a hard error, matching
// the cross-asset read semantics.
func (s *Service) listOne(ctx context.Context, asset string, f ledger.Filter, page, pageSize int) (ListResult, error) {
	if _, err := s.reg.Get(asset); err != nil {
		return ListResult{}, err
	}
	adapter := s.adapters[asset]

	// A page number past any representable offset cannot hold rows; asking
	// the store would overflow the offset computation.
	offset := pageStart(page, pageSize)
	if offset < 0 {
		total, err := s.countOnly(ctx, adapter, f)
		if err != nil {
			s.logger.Warn("ledger query failed", "asset", asset, "error", err)
			return ListResult{
				Page:         Page{Page: page, PageSize: pageSize},
				Partial:      true,
				FailedAssets: []string{asset},
			}, nil
		}
		return ListResult{
			Page: Page{Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages(total, pageSize)},
		}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, total, err := adapter.QueryPage(callCtx, f, pageSize, offset)
	if err != nil {
		s.logger.Warn("ledger query failed", "asset", asset, "error", err)
		return ListResult{
			Page:         Page{Page: page, PageSize: pageSize},
			Partial:      true,
			FailedAssets: []string{asset},
		}, nil
	}

	return ListResult{
		Page: Page{
			Items:      rows,
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages(total, pageSize),
		},
	}, nil
}

// countOnly fetches the filtered row count for page metadata when no rows can
// be returned.
func (s *Service) countOnly(ctx context.Context, adapter ledger.QueryAdapter, f ledger.Filter) (int64, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, total, err := adapter.QueryPage(callCtx, f, 1, 0)
	return total, err
}

// listAll scatters the query to every ledger, merges the union under a
// deterministic total order, and slices the requested page.
func (s *Service) listAll(ctx context.Context, f ledger.Filter, page, pageSize int) (ListResult, error) {
	adapters := make([]ledger.QueryAdapter, 0, len(s.adapters))
	for _, asset := range s.reg.Assets() {
		adapters = append(adapters, s.adapters[asset])
	}

	results := scatter(ctx, adapters, f, s.timeout)

	out := ListResult{Page: paginate(merge(results), page, pageSize)}
	for _, asset := range s.reg.Assets() {
		res := results[asset]
		if res.Err != nil {
			s.logger.Warn("ledger excluded from merged listing", "asset", asset, "error", res.Err)
			out.Partial = true
			out.FailedAssets = append(out.FailedAssets, asset)
			continue
		}
		if res.Truncated {
			out.TruncatedAssets = append(out.TruncatedAssets, asset)
		}
	}
	return out, nil
}
