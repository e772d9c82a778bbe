package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// timeLayout has a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// attemptRepo implements AttemptRepo on the ent SQL builders.
type attemptRepo struct {
	drv dialect.Driver
	seq *sequenceCounter
}

func (r *attemptRepo) Append(ctx context.Context, rec *AttemptRecord) error {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	rec.Sequence = seq
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var passer sql.NullInt64
	if rec.PasserID != nil {
		passer = sql.NullInt64{Int64: *rec.PasserID, Valid: true}
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(AttemptsTable.Name).
		Columns(attemptFields()...).
		Values(rec.ID, rec.Sequence, rec.QuizID, rec.QuizTitle, passer, rec.Score,
			rec.Correct, rec.Total, rec.Percentage, rec.Band, rec.Message,
			rec.CreatedAt.UTC().Format(timeLayout)).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("append attempt: %w", err)
	}
	return nil
}

func (r *attemptRepo) selectAttempts() *entsql.Selector {
	return entsql.Dialect(dialect.SQLite).
		Select(attemptFields()...).
		From(entsql.Table(AttemptsTable.Name))
}

func (r *attemptRepo) List(ctx context.Context, opts QueryOpts) ([]AttemptRecord, error) {
	sel := r.selectAttempts()
	if opts.QuizID != 0 {
		sel.Where(entsql.EQ("quiz_id", opts.QuizID))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("created_at", opts.From.UTC().Format(timeLayout)))
	}
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	out, err := r.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return out, nil
}

func (r *attemptRepo) Best(ctx context.Context, quizID int64) (*AttemptRecord, error) {
	sel := r.selectAttempts().
		Where(entsql.EQ("quiz_id", quizID)).
		OrderBy(entsql.Desc("percentage"), entsql.Desc("sequence")).
		Limit(1)

	out, err := r.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("best attempt: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (r *attemptRepo) query(ctx context.Context, sel *entsql.Selector) ([]AttemptRecord, error) {
	query, args := sel.Query()
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		rec, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(s scanner) (*AttemptRecord, error) {
	var (
		rec     AttemptRecord
		passer  sql.NullInt64
		created string
	)
	err := s.Scan(&rec.ID, &rec.Sequence, &rec.QuizID, &rec.QuizTitle, &passer, &rec.Score,
		&rec.Correct, &rec.Total, &rec.Percentage, &rec.Band, &rec.Message, &created)
	if err != nil {
		return nil, fmt.Errorf("scan attempt: %w", err)
	}
	if passer.Valid {
		v := passer.Int64
		rec.PasserID = &v
	}
	rec.CreatedAt, err = time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	return &rec, nil
}
