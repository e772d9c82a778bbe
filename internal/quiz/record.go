package quiz

import (
	"context"
	"errors"
	"fmt"

	"github.com/jsp88/jsp/internal/store"
)

// ErrNotScored is returned by Record for a session without a result.
var ErrNotScored = errors.New("quiz session has no result")

// Record appends the scored result of s to the local attempt history.
func Record(ctx context.Context, repo store.AttemptRepo, s *Session) (*store.AttemptRecord, error) {
	summary, ok := s.Summary()
	if !ok {
		return nil, ErrNotScored
	}

	rec := &store.AttemptRecord{
		QuizID:     s.QuizID(),
		PasserID:   s.Attempt(),
		Score:      summary.Score,
		Correct:    summary.Correct,
		Total:      summary.Total,
		Percentage: summary.Percentage,
		Band:       summary.Band.String(),
		Message:    summary.Message,
	}
	if q := s.Quiz(); q != nil {
		rec.QuizTitle = q.Title
	}

	if err := repo.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}
	return rec, nil
}
