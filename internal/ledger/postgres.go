package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/walletgrid/walletgrid/internal/registry"
)

// PostgresAdapter serves one per-asset wallet table through a shared pool.
// Column gaps are decided from the descriptor's capability flags at query
// construction time; the store is never probed.
type PostgresAdapter struct {
	db     *pgxpool.Pool
	desc   registry.LedgerDescriptor
	rowCap int
}

// NewPostgresAdapter builds the adapter for one ledger. rowCap bounds
// QueryAll fetches; values below 1 fall back to 500.
func NewPostgresAdapter(db *pgxpool.Pool, desc registry.LedgerDescriptor, rowCap int) *PostgresAdapter {
	if rowCap < 1 {
		rowCap = 500
	}
	return &PostgresAdapter{db: db, desc: desc, rowCap: rowCap}
}

// Asset returns the asset symbol this adapter serves.
func (a *PostgresAdapter) Asset() string { return a.desc.Asset }

// selectColumns yields a select list that normalizes schema gaps: missing
// fiat balance reads as "0", missing owner as NULL, missing freeze flag as
// false. The table and column names come from the fixed descriptor
// enumeration, never from caller input.
func (a *PostgresAdapter) selectColumns() string {
	cols := []string{"id", "COALESCE(address, '')", "balance::text"}
	if a.desc.HasFiatBalanceColumn {
		cols = append(cols, "COALESCE(fiat_balance, 0)::text")
	} else {
		cols = append(cols, "'0'")
	}
	if a.desc.HasOwnerColumn {
		cols = append(cols, "owner_id")
	} else {
		cols = append(cols, "NULL::bigint")
	}
	if a.desc.HasFreezeColumn {
		cols = append(cols, "COALESCE(frozen, false)")
	} else {
		cols = append(cols, "false")
	}
	cols = append(cols, "created_at")
	return strings.Join(cols, ", ")
}

// whereClause renders the filter against this ledger's capabilities. The
// matchNone return short-circuits queries that cannot match any row, e.g. an
// owner filter on an ownerless ledger.
func (a *PostgresAdapter) whereClause(f Filter) (clause string, args []any, matchNone bool) {
	var conds []string
	if f.OwnerID != nil {
		if !a.desc.HasOwnerColumn {
			return "", nil, true
		}
		args = append(args, *f.OwnerID)
		conds = append(conds, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if f.AddressContains != "" {
		args = append(args, escapeLike(f.AddressContains))
		conds = append(conds, fmt.Sprintf(`address ILIKE '%%' || $%d || '%%' ESCAPE '\'`, len(args)))
	}
	if f.Frozen != nil {
		if a.desc.HasFreezeColumn {
			args = append(args, *f.Frozen)
			conds = append(conds, fmt.Sprintf("COALESCE(frozen, false) = $%d", len(args)))
		} else if *f.Frozen {
			// Without the column every row counts as unfrozen.
			return "", nil, true
		}
	}
	if len(conds) == 0 {
		return "", args, false
	}
	return " WHERE " + strings.Join(conds, " AND "), args, false
}

// escapeLike neutralizes LIKE metacharacters so the caller's substring
// matches literally, the same semantics the in-memory adapter has.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (a *PostgresAdapter) scanRows(rows pgx.Rows) ([]WalletRecord, error) {
	defer rows.Close()
	var out []WalletRecord
	for rows.Next() {
		w := WalletRecord{Asset: a.desc.Asset, Network: a.desc.Network}
		if err := rows.Scan(&w.WalletID, &w.Address, &w.Balance, &w.FiatBalance, &w.OwnerID, &w.Frozen, &w.CreatedAt); err != nil {
			return nil, err
		}
		w.CreatedAt = w.CreatedAt.UTC()
		out = append(out, w)
	}
	return out, rows.Err()
}

// QueryPage pushes the filter and LIMIT/OFFSET to the store and counts total
// matches under the same filter. Ordering is creation time descending with id
// as the tiebreaker so pages are stable across requests.
func (a *PostgresAdapter) QueryPage(ctx context.Context, f Filter, limit, offset int) ([]WalletRecord, int64, error) {
	where, args, matchNone := a.whereClause(f)
	if matchNone {
		return nil, 0, nil
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", a.desc.Table, where)
	var total int64
	if err := a.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, Unavailable(a.desc.Asset, err)
	}

	pageArgs := append(append([]any{}, args...), limit, offset)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d",
		a.selectColumns(), a.desc.Table, where, len(pageArgs)-1, len(pageArgs))
	rows, err := a.db.Query(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, Unavailable(a.desc.Asset, err)
	}
	records, err := a.scanRows(rows)
	if err != nil {
		return nil, 0, Unavailable(a.desc.Asset, err)
	}
	return records, total, nil
}

// QueryAll fetches every matching row up to the adapter's cap. It asks for
// one extra row to detect truncation without a second round trip.
func (a *PostgresAdapter) QueryAll(ctx context.Context, f Filter) (QueryResult, error) {
	where, args, matchNone := a.whereClause(f)
	if matchNone {
		return QueryResult{}, nil
	}

	args = append(args, a.rowCap+1)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY created_at DESC, id ASC LIMIT $%d",
		a.selectColumns(), a.desc.Table, where, len(args))
	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return QueryResult{}, Unavailable(a.desc.Asset, err)
	}
	records, err := a.scanRows(rows)
	if err != nil {
		return QueryResult{}, Unavailable(a.desc.Asset, err)
	}

	res := QueryResult{Rows: records}
	if len(records) > a.rowCap {
		res.Rows = records[:a.rowCap]
		res.Truncated = true
	}
	return res, nil
}

// FindOne fetches a single wallet by its ledger-local identifier.
func (a *PostgresAdapter) FindOne(ctx context.Context, walletID int64) (WalletRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", a.selectColumns(), a.desc.Table)
	w := WalletRecord{Asset: a.desc.Asset, Network: a.desc.Network}
	err := a.db.QueryRow(ctx, query, walletID).
		Scan(&w.WalletID, &w.Address, &w.Balance, &w.FiatBalance, &w.OwnerID, &w.Frozen, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WalletRecord{}, ErrNotFound
		}
		return WalletRecord{}, Unavailable(a.desc.Asset, err)
	}
	w.CreatedAt = w.CreatedAt.UTC()
	return w, nil
}

// SetFrozen updates one wallet's freeze flag. A ledger without the column
// reports zero rows affected rather than erroring.
func (a *PostgresAdapter) SetFrozen(ctx context.Context, walletID int64, frozen bool) (int64, error) {
	if !a.desc.HasFreezeColumn {
		return 0, nil
	}
	query := fmt.Sprintf("UPDATE %s SET frozen = $1 WHERE id = $2", a.desc.Table)
	tag, err := a.db.Exec(ctx, query, frozen, walletID)
	if err != nil {
		return 0, Unavailable(a.desc.Asset, err)
	}
	return tag.RowsAffected(), nil
}

// SetFrozenForOwner updates every wallet held by the owner. Ledgers that
// cannot express ownership or freezing report zero rows affected.
func (a *PostgresAdapter) SetFrozenForOwner(ctx context.Context, ownerID int64, frozen bool) (int64, error) {
	if !a.desc.HasFreezeColumn || !a.desc.HasOwnerColumn {
		return 0, nil
	}
	query := fmt.Sprintf("UPDATE %s SET frozen = $1 WHERE owner_id = $2", a.desc.Table)
	tag, err := a.db.Exec(ctx, query, frozen, ownerID)
	if err != nil {
		return 0, Unavailable(a.desc.Asset, err)
	}
	return tag.RowsAffected(), nil
}
