package screen

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jsp88/jsp/internal/api"
	"github.com/jsp88/jsp/internal/store"
)

// Env carries the services shared by every screen.
type Env struct {
	Client      *api.Client
	Attempts    store.AttemptRepo
	KV          store.KVRepo
	DownloadURL string
	DownloadDir string
	Timeout     time.Duration
	Logger      *zap.Logger
}

// Context returns a request context bounded by the configured timeout.
func (e *Env) Context() (context.Context, context.CancelFunc) {
	if e.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), e.Timeout)
}

// Log returns the logger, never nil.
func (e *Env) Log() *zap.Logger {
	if e == nil || e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}
