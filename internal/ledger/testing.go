package ledger

import "time"

// Seed loads rows into an in-memory adapter, applying the ledger's column
// capabilities the same way a real table would.
func Seed(a QueryAdapter, records ...WalletRecord) {
	mem, ok := a.(*InMemoryAdapter)
	if !ok {
		return
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	for _, w := range records {
		mem.rows[w.WalletID] = mem.normalize(w)
	}
}

// SetUnavailable makes every call on an in-memory adapter fail with the given
// cause wrapped as *UnavailableError. Pass nil to restore service.
func SetUnavailable(a QueryAdapter, cause error) {
	mem, ok := a.(*InMemoryAdapter)
	if !ok {
		return
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	mem.fail = cause
}

// SetLatency delays every call on an in-memory adapter, respecting context
// cancellation, to exercise per-ledger timeouts.
func SetLatency(a QueryAdapter, d time.Duration) {
	mem, ok := a.(*InMemoryAdapter)
	if !ok {
		return
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	mem.latency = d
}
