package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// loggingDoer is a decorator that records every request at debug level.
type loggingDoer struct {
	inner  Doer
	logger *zap.Logger
}

// WithLogging wraps a Doer with request logging. Headers are never logged.
func WithLogging(d Doer, logger *zap.Logger) Doer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &loggingDoer{inner: d, logger: logger}
}

func (l *loggingDoer) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := l.inner.Do(req)

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Duration("latency", time.Since(start)),
	}
	if err != nil {
		l.logger.Warn("api request failed", append(fields, zap.Error(err))...)
		return resp, err
	}

	fields = append(fields, zap.Int("status", resp.StatusCode))
	if resp.StatusCode >= 400 {
		l.logger.Warn("api request returned an error status", fields...)
	} else {
		l.logger.Debug("api request", fields...)
	}
	return resp, nil
}
