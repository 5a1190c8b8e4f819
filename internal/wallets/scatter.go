package wallets

import (
	"context"
	"sync"
	"time"

	"github.com/walletgrid/walletgrid/internal/ledger"
)

// ScatterResult is one ledger's contribution to a fan-out read: either rows
// (possibly truncated at the adapter's cap) or the error that ledger produced.
type ScatterResult struct {
	Rows      []ledger.WalletRecord
	Truncated bool
	Err       error
}

// scatter issues QueryAll to every adapter concurrently and waits for all of
// them to settle. Each call carries its own timeout; a timed-out or failed
// ledger is recorded as an error entry and does not cancel its siblings.
// There is no retry here — retries belong to the adapter's transport layer.
func scatter(ctx context.Context, adapters []ledger.QueryAdapter, f ledger.Filter, timeout time.Duration) map[string]ScatterResult {
	results := make(map[string]ScatterResult, len(adapters))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, a := range adapters {
		wg.Add(1)
		go func(a ledger.QueryAdapter) {
			defer wg.Done()

			callCtx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			res, err := a.QueryAll(callCtx, f)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[a.Asset()] = ScatterResult{Err: err}
				return
			}
			results[a.Asset()] = ScatterResult{Rows: res.Rows, Truncated: res.Truncated}
		}(a)
	}

	wg.Wait()
	return results
}
