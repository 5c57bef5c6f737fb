package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TYDev01/009-MarketPlace/internal/model"
	"github.com/TYDev01/009-MarketPlace/internal/stream"
)

// Config holds batching parameters for the journal writer.
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultConfig returns production batching parameters.
func DefaultConfig() Config {
	return Config{
		BatchSize:     500,
		FlushInterval: time.Second,
	}
}

// Metrics counts writer activity since start.
type Metrics struct {
	Inserts    int64
	Duplicates int64
	Errors     int64
	Flushes    int64
}

// eventRow is the ledger_events table shape.
type eventRow struct {
	EventID      uuid.UUID
	Type         string
	TokenID      int64
	Actor        string
	Counterparty string
	Price        int64
	Royalty      int64
	OccurredAt   int64
}

// Writer consumes ledger events and writes them to the ledger_events
// table in batches.
type Writer struct {
	cfg    Config
	logger *slog.Logger

	input *stream.Buffer
	db    *pgxpool.Pool

	batch       []eventRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics Metrics
}

// NewWriter creates a journal writer reading from input.
func NewWriter(cfg Config, input *stream.Buffer, db *pgxpool.Pool, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		cfg:    cfg,
		input:  input,
		db:     db,
		logger: logger,
		batch:  make([]eventRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming events and writing to the database.
func (w *Writer) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("journal writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop shuts the writer down, flushing whatever is batched.
func (w *Writer) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("journal writer stopped")
	case <-ctx.Done():
		w.logger.Warn("journal writer stop timed out")
	}

	// Final flush runs on the caller's context; w.ctx is already
	// canceled at this point.
	w.flush(ctx)
	return nil
}

// Stats returns current metrics.
func (w *Writer) Stats() Metrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop drains the input buffer into batches.
func (w *Writer) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			ev, ok := w.input.TryReceive()
			if !ok {
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}
			w.handleEvent(ev)
		}
	}
}

// flushLoop flushes the batch on every tick.
func (w *Writer) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush(w.ctx)
		}
	}
}

// handleEvent adds an event to the batch, flushing when the batch is full.
func (w *Writer) handleEvent(ev model.Event) {
	row := w.transform(ev)

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(w.ctx)
	}
}

// transform converts an event to its row shape.
func (w *Writer) transform(ev model.Event) eventRow {
	return eventRow{
		EventID:      ev.ID,
		Type:         string(ev.Type),
		TokenID:      int64(ev.TokenID),
		Actor:        string(ev.Actor),
		Counterparty: string(ev.Counterparty),
		Price:        int64(ev.Price),
		Royalty:      int64(ev.Royalty),
		OccurredAt:   ev.OccurredAt,
	}
}

// flush writes the current batch to the database.
func (w *Writer) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}
	batch := w.batch
	w.batch = make([]eventRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	duplicates, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("journal batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - duplicates)
	w.metrics.Duplicates += int64(duplicates)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed ledger events",
		"count", len(batch),
		"duplicates", duplicates,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows with ON CONFLICT DO NOTHING on the event id.
func (w *Writer) batchInsert(ctx context.Context, rows []eventRow) (duplicates int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO ledger_events (event_id, event_type, token_id, actor, counterparty, price, royalty, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (event_id) DO NOTHING
		`, r.EventID, r.Type, r.TokenID, r.Actor, r.Counterparty, r.Price, r.Royalty, r.OccurredAt)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			duplicates++
		}
	}
	return duplicates, nil
}
