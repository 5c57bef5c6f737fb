package journal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS ledger_events (
  event_id     UUID PRIMARY KEY,
  event_type   TEXT NOT NULL,
  token_id     BIGINT NOT NULL,
  actor        TEXT NOT NULL,
  counterparty TEXT NOT NULL DEFAULT '',
  price        BIGINT NOT NULL DEFAULT 0,
  royalty      BIGINT NOT NULL DEFAULT 0,
  occurred_at  BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS ledger_events_token_idx
  ON ledger_events (token_id, occurred_at);
`

// EnsureSchema creates the ledger_events table if it does not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create ledger_events schema: %w", err)
	}
	return nil
}
