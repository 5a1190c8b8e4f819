package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink appends audit records to the audit_log table.
type PostgresSink struct {
	db *pgxpool.Pool
}

// NewPostgresSink constructs a Postgres-backed audit sink.
func NewPostgresSink(db *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{db: db}
}

// Append inserts one audit record. The detail payload is stored as JSONB.
func (s *PostgresSink) Append(ctx context.Context, record Record) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	detail, err := json.Marshal(record.Detail)
	if err != nil {
		return fmt.Errorf("encode audit detail: %w", err)
	}
	_, err = s.db.Exec(ctx, `INSERT INTO audit_log (id, action, actor_id, user_id, detail, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID, record.Action, record.ActorID, record.UserID, detail, record.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}
