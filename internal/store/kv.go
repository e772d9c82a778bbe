package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/jsp88/jsp/internal/api"
)

// LastEmailKey remembers the last successful login email for the login form.
const LastEmailKey = "last_email"

type kvRepo struct {
	drv dialect.Driver
}

func (r *kvRepo) Get(ctx context.Context, key string) (string, bool, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("value").
		From(entsql.Table(KVTable.Name)).
		Where(entsql.EQ("key", key)).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", false, fmt.Errorf("get %q: %w", key, err)
		}
		return "", false, nil
	}
	var value string
	if err := rows.Scan(&value); err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (r *kvRepo) Set(ctx context.Context, key, value string) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(KVTable.Name).
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC().Format(timeLayout)).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (r *kvRepo) Delete(ctx context.Context, key string) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(KVTable.Name).
		Where(entsql.EQ("key", key)).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// CredentialRepo persists the bearer token under api.TokenKey. It
// implements api.CredentialStore.
type CredentialRepo struct {
	kv KVRepo
}

var _ api.CredentialStore = (*CredentialRepo)(nil)

func (c *CredentialRepo) Token(ctx context.Context) (string, error) {
	token, _, err := c.kv.Get(ctx, api.TokenKey)
	return token, err
}

func (c *CredentialRepo) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return c.ClearToken(ctx)
	}
	return c.kv.Set(ctx, api.TokenKey, token)
}

func (c *CredentialRepo) ClearToken(ctx context.Context) error {
	return c.kv.Delete(ctx, api.TokenKey)
}
