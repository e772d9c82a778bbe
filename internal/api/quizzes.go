package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// fetch performs a JSON call and returns the raw body for normalization.
func (c *Client) fetch(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Request(ctx, method, path, body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// normalized runs a normalizer and wraps its failure as an InvalidResponseError.
func normalized[T any](route string, raw json.RawMessage, fn func(json.RawMessage) (T, error)) (T, error) {
	v, err := fn(raw)
	if err != nil {
		var zero T
		return zero, &InvalidResponseError{Route: route, Body: raw, Err: err}
	}
	return v, nil
}

// Quizzes lists the quiz catalogue.
func (c *Client) Quizzes(ctx context.Context) ([]QuizSummary, error) {
	raw, err := c.fetch(ctx, http.MethodGet, "/quiz", nil)
	if err != nil {
		return nil, err
	}
	return normalized("GET /quiz", raw, NormalizeQuizList)
}

// Quiz fetches a full quiz definition.
func (c *Client) Quiz(ctx context.Context, id int64) (*Quiz, error) {
	path := fmt.Sprintf("/quiz/%d", id)
	raw, err := c.fetch(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return normalized("GET "+path, raw, NormalizeQuiz)
}

// StartQuiz opens a server-side attempt and returns its passer id.
func (c *Client) StartQuiz(ctx context.Context, id int64) (*Attempt, error) {
	path := fmt.Sprintf("/quiz/%d/start", id)
	raw, err := c.fetch(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}
	return normalized("POST "+path, raw, NormalizeAttempt)
}

// SubmitQuiz sends the collected answers for scoring.
func (c *Client) SubmitQuiz(ctx context.Context, id int64, sub Submission) (*Result, error) {
	if sub.Reponses == nil {
		sub.Reponses = []SubmittedAnswer{}
	}
	path := fmt.Sprintf("/quiz/%d/submit", id)
	raw, err := c.fetch(ctx, http.MethodPost, path, sub)
	if err != nil {
		return nil, err
	}
	return normalized("POST "+path, raw, NormalizeResult)
}

// MyQuizzes returns the quizzes the connected trainee already took.
func (c *Client) MyQuizzes(ctx context.Context) ([]QuizHistoryEntry, error) {
	raw, err := c.fetch(ctx, http.MethodGet, "/jsp/me/quiz", nil)
	if err != nil {
		return nil, err
	}
	return normalized("GET /jsp/me/quiz", raw, NormalizeQuizHistory)
}
