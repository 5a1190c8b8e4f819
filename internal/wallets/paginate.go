package wallets

import (
	"math"
	"sort"

	"github.com/walletgrid/walletgrid/internal/ledger"
)

// Page is one slice of the globally time-ordered wallet sequence.
type Page struct {
	Items      []ledger.WalletRecord `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// merge flattens per-ledger scatter results into one sequence with a
// deterministic total order: creation time descending, ties broken by
// (asset, wallet id) ascending. Failed ledgers contribute nothing; the
// caller reports them separately.
func merge(perLedger map[string]ScatterResult) []ledger.WalletRecord {
	var out []ledger.WalletRecord
	for _, res := range perLedger {
		if res.Err != nil {
			continue
		}
		out = append(out, res.Rows...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		if out[i].Asset != out[j].Asset {
			return out[i].Asset < out[j].Asset
		}
		return out[i].WalletID < out[j].WalletID
	})
	return out
}

// paginate slices [(page-1)*size, page*size) out of an already-ordered
// sequence.
func paginate(seq []ledger.WalletRecord, page, pageSize int) Page {
	total := int64(len(seq))
	p := Page{Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages(total, pageSize)}

	start := pageStart(page, pageSize)
	if start < 0 || start >= len(seq) {
		return p
	}
	end := start + pageSize
	if end > len(seq) {
		end = len(seq)
	}
	p.Items = seq[start:end]
	return p
}

// pageStart returns the zero-based offset of a page, or -1 when the
// multiplication would overflow; such a page is necessarily past the end of
// any sequence.
func pageStart(page, pageSize int) int {
	if page-1 > math.MaxInt/pageSize {
		return -1
	}
	return (page - 1) * pageSize
}

func totalPages(total int64, pageSize int) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
