package store

import (
	"context"
	"fmt"
	"sync"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter hands out the monotonic sequence stored on every attempt.
// Timestamps can collide on fast machines; the sequence gives history a
// strict insertion order. The mutex serializes within the process and the
// transaction takes SQLite's write lock before reading the new value.
type sequenceCounter struct {
	mu  sync.Mutex
	drv dialect.Driver
}

// newSequenceCounter seeds the single counter row when it is missing.
func newSequenceCounter(ctx context.Context, drv dialect.Driver) (*sequenceCounter, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(SequenceTable.Name).
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.DoNothing(),
		).
		Query()
	if err := drv.Exec(ctx, query, args, nil); err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}
	return &sequenceCounter{drv: drv}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	tx, err := sc.drv.Tx(ctx)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}

	seq, err := bumpSequence(ctx, tx)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

func bumpSequence(ctx context.Context, tx dialect.Tx) (int64, error) {
	b := entsql.Dialect(dialect.SQLite)

	query, args := b.Update(SequenceTable.Name).
		Add("next_val", 1).
		Where(entsql.EQ("id", 1)).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return 0, err
	}

	query, args = b.Select("next_val").
		From(entsql.Table(SequenceTable.Name)).
		Where(entsql.EQ("id", 1)).
		Query()
	rows := &entsql.Rows{}
	if err := tx.Query(ctx, query, args, rows); err != nil {
		return 0, err
	}
	defer rows.Close()

	next, err := entsql.ScanInt64(rows)
	if err != nil {
		return 0, err
	}
	return next - 1, nil
}
