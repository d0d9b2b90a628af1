package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"survive-arena/internal/domain"
	"survive-arena/internal/observability"
	"survive-arena/internal/storage"
)

// LedgerEventStore implements storage.LedgerEventStore using ClickHouse.
type LedgerEventStore struct {
	conn *Conn
}

// NewLedgerEventStore creates a new LedgerEventStore.
func NewLedgerEventStore(conn *Conn) *LedgerEventStore {
	return &LedgerEventStore{conn: conn}
}

var _ storage.LedgerEventStore = (*LedgerEventStore)(nil)

const ledgerEventColumns = `
	id, block_number, block_hash, tx_hash, log_index, event_name,
	pool_id, actor, target, amount, value, timestamp`

// InsertBulk appends events whose id is not yet stored. Ids repeated inside
// the batch are written once.
func (s *LedgerEventStore) InsertBulk(ctx context.Context, events []*domain.LedgerEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e == nil || e.ID == "" {
			return 0, storage.ErrInvalidInput
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		ids = append(ids, e.ID)
	}

	start := time.Now()
	existing, err := s.existing(ctx, ids)
	if err != nil {
		observability.RecordDBQuery("clickhouse", "ledger_events_exists", time.Since(start).Seconds(), err)
		return 0, fmt.Errorf("check existing: %w", err)
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO ledger_events (`+ledgerEventColumns+`)`)
	if err != nil {
		return 0, fmt.Errorf("prepare batch: %w", err)
	}

	written := make(map[string]struct{}, len(ids))
	for _, e := range events {
		if _, ok := existing[e.ID]; ok {
			continue
		}
		if _, ok := written[e.ID]; ok {
			continue
		}
		written[e.ID] = struct{}{}

		err = batch.Append(
			e.ID, e.BlockNumber, strings.ToLower(e.BlockHash), strings.ToLower(e.TxHash),
			uint32(e.LogIndex), e.EventName,
			e.PoolID, domain.NormalizeAddress(e.Actor), domain.NormalizeAddress(e.Target),
			e.Amount, e.Value, e.Timestamp,
		)
		if err != nil {
			return 0, fmt.Errorf("append to batch: %w", err)
		}
	}

	if len(written) == 0 {
		_ = batch.Abort()
		return 0, nil
	}

	err = batch.Send()
	observability.RecordDBQuery("clickhouse", "insert_ledger_events", time.Since(start).Seconds(), err)
	if err != nil {
		return 0, fmt.Errorf("send batch: %w", err)
	}
	return len(written), nil
}

// GetByPool retrieves events of a pool ordered by (block, log index).
func (s *LedgerEventStore) GetByPool(ctx context.Context, poolID uint64) ([]*domain.LedgerEvent, error) {
	query := `
		SELECT` + ledgerEventColumns + `
		FROM ledger_events FINAL
		WHERE pool_id = ?
		ORDER BY block_number ASC, log_index ASC
	`

	start := time.Now()
	rows, err := s.conn.Query(ctx, query, poolID)
	observability.RecordDBQuery("clickhouse", "ledger_events_by_pool", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query by pool: %w", err)
	}
	defer rows.Close()

	return scanLedgerEvents(rows)
}

// GetByTx retrieves events of a transaction ordered by log index.
func (s *LedgerEventStore) GetByTx(ctx context.Context, txHash string) ([]*domain.LedgerEvent, error) {
	query := `
		SELECT` + ledgerEventColumns + `
		FROM ledger_events FINAL
		WHERE tx_hash = ?
		ORDER BY log_index ASC
	`

	rows, err := s.conn.Query(ctx, query, strings.ToLower(txHash))
	if err != nil {
		return nil, fmt.Errorf("query by tx: %w", err)
	}
	defer rows.Close()

	return scanLedgerEvents(rows)
}

func (s *LedgerEventStore) existing(ctx context.Context, ids []string) (map[string]struct{}, error) {
	rows, err := s.conn.Query(ctx, `SELECT id FROM ledger_events WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func scanLedgerEvents(rows chRows) ([]*domain.LedgerEvent, error) {
	var events []*domain.LedgerEvent

	for rows.Next() {
		var e domain.LedgerEvent
		var logIndex uint32

		err := rows.Scan(
			&e.ID, &e.BlockNumber, &e.BlockHash, &e.TxHash, &logIndex, &e.EventName,
			&e.PoolID, &e.Actor, &e.Target, &e.Amount, &e.Value, &e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ledger event row: %w", err)
		}
		e.LogIndex = uint(logIndex)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger event rows: %w", err)
	}
	return events, nil
}
