package store

import (
	"context"
	"time"
)

// QueryOpts configures attempt queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	QuizID int64     // only this quiz (0 = all)
	From   time.Time // created_at >= From
}

// AttemptRecord is one scored quiz attempt kept in the local history.
type AttemptRecord struct {
	ID         string
	Sequence   int64
	QuizID     int64
	QuizTitle  string
	PasserID   *int64
	Score      float64
	Correct    int
	Total      int
	Percentage int
	Band       string
	Message    string
	CreatedAt  time.Time
}

// AttemptRepo provides append and query access to the attempt history.
type AttemptRepo interface {
	// Append records an attempt. ID, Sequence and CreatedAt are assigned
	// when empty.
	Append(ctx context.Context, rec *AttemptRecord) error

	// List returns attempts, most recent first.
	List(ctx context.Context, opts QueryOpts) ([]AttemptRecord, error)

	// Best returns the attempt with the highest percentage for a quiz, or
	// nil if the quiz was never taken.
	Best(ctx context.Context, quizID int64) (*AttemptRecord, error)
}

// KVRepo is a small string key-value table.
type KVRepo interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
