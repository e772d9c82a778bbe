package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jsp88/jsp/internal/api"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jsp.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.CredentialRepo().SetToken(ctx, "tok"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if err := s.AttemptRepo().Append(ctx, &AttemptRecord{QuizID: 1, QuizTitle: "A", Band: "good"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	tok, err := s.CredentialRepo().Token(ctx)
	if err != nil || tok != "tok" {
		t.Fatalf("token after reopen = %q, %v", tok, err)
	}

	// The sequence must continue, not restart.
	rec := &AttemptRecord{QuizID: 1, QuizTitle: "A", Band: "good"}
	if err := s.AttemptRepo().Append(ctx, rec); err != nil {
		t.Fatalf("append after reopen: %v", err)
	}
	if rec.Sequence != 2 {
		t.Fatalf("sequence after reopen = %d, want 2", rec.Sequence)
	}
}

func TestCredentialRepo(t *testing.T) {
	s := openTestStore(t)
	var creds api.CredentialStore = s.CredentialRepo()
	ctx := context.Background()

	tok, err := creds.Token(ctx)
	if err != nil || tok != "" {
		t.Fatalf("empty store: token = %q, err = %v", tok, err)
	}

	if err := creds.SetToken(ctx, "first"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := creds.SetToken(ctx, "second"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if tok, _ := creds.Token(ctx); tok != "second" {
		t.Fatalf("token = %q, want second", tok)
	}

	if err := creds.ClearToken(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if tok, _ := creds.Token(ctx); tok != "" {
		t.Fatalf("token after clear = %q", tok)
	}

	// Clearing twice is harmless.
	if err := creds.ClearToken(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestKV(t *testing.T) {
	s := openTestStore(t)
	kv := s.KV()
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, LastEmailKey); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, LastEmailKey, "jsp@sdis88.fr"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := kv.Get(ctx, LastEmailKey)
	if err != nil || !ok || v != "jsp@sdis88.fr" {
		t.Fatalf("get = %q, %v, %v", v, ok, err)
	}
	if err := kv.Delete(ctx, LastEmailKey); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, LastEmailKey); ok {
		t.Fatal("key still present after delete")
	}
}

func TestAttemptAppendAndList(t *testing.T) {
	s := openTestStore(t)
	repo := s.AttemptRepo()
	ctx := context.Background()

	passer := int64(1001)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []*AttemptRecord{
		{QuizID: 1, QuizTitle: "Sécurité incendie", PasserID: &passer, Score: 10, Correct: 1, Total: 2, Percentage: 50, Band: "borderline", CreatedAt: base},
		{QuizID: 2, QuizTitle: "Secourisme", Score: 20, Correct: 3, Total: 3, Percentage: 100, Band: "good", Message: "Bravo !", CreatedAt: base.Add(time.Hour)},
		{QuizID: 1, QuizTitle: "Sécurité incendie", Score: 20, Correct: 2, Total: 2, Percentage: 100, Band: "good", CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, rec := range records {
		if err := repo.Append(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
		if rec.ID == "" {
			t.Fatal("expected generated id")
		}
	}

	all, err := repo.List(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(all))
	}
	if all[0].Sequence != 3 || all[2].Sequence != 1 {
		t.Fatalf("expected most recent first, got sequences %d..%d", all[0].Sequence, all[2].Sequence)
	}

	oldest := all[2]
	if oldest.PasserID == nil || *oldest.PasserID != passer {
		t.Fatalf("passer id not round-tripped: %v", oldest.PasserID)
	}
	if !oldest.CreatedAt.Equal(base) {
		t.Fatalf("created_at = %s, want %s", oldest.CreatedAt, base)
	}
	if all[1].PasserID != nil {
		t.Fatal("expected NULL passer id to stay nil")
	}
	if all[1].Message != "Bravo !" {
		t.Fatalf("message = %q", all[1].Message)
	}

	quiz1, err := repo.List(ctx, QueryOpts{QuizID: 1})
	if err != nil {
		t.Fatalf("list quiz 1: %v", err)
	}
	if len(quiz1) != 2 {
		t.Fatalf("expected 2 attempts for quiz 1, got %d", len(quiz1))
	}

	limited, err := repo.List(ctx, QueryOpts{Limit: 1})
	if err != nil {
		t.Fatalf("list limit: %v", err)
	}
	if len(limited) != 1 || limited[0].Sequence != 3 {
		t.Fatalf("limit 1 returned %+v", limited)
	}

	recent, err := repo.List(ctx, QueryOpts{From: base.Add(30 * time.Minute)})
	if err != nil {
		t.Fatalf("list from: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 attempts after cutoff, got %d", len(recent))
	}
}

func TestAttemptBest(t *testing.T) {
	s := openTestStore(t)
	repo := s.AttemptRepo()
	ctx := context.Background()

	best, err := repo.Best(ctx, 1)
	if err != nil {
		t.Fatalf("best (empty): %v", err)
	}
	if best != nil {
		t.Fatal("expected nil when quiz never taken")
	}

	for _, pct := range []int{40, 90, 60} {
		if err := repo.Append(ctx, &AttemptRecord{QuizID: 1, QuizTitle: "A", Percentage: pct, Band: "x"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	best, err = repo.Best(ctx, 1)
	if err != nil {
		t.Fatalf("best: %v", err)
	}
	if best == nil || best.Percentage != 90 {
		t.Fatalf("best = %+v, want 90%%", best)
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("JSP_DB", filepath.Join(dir, "custom", "my.db"))
	p, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if p != filepath.Join(dir, "custom", "my.db") {
		t.Fatalf("path = %q", p)
	}
	if _, err := os.Stat(filepath.Join(dir, "custom")); err != nil {
		t.Fatalf("parent dir not created: %v", err)
	}

	t.Setenv("JSP_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err = DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if p != filepath.Join(dir, "jsp", "jsp.db") {
		t.Fatalf("path = %q", p)
	}
}

func TestMigrateCreatesSchema(t *testing.T) {
	s := openTestStore(t)

	for _, name := range []string{"kv", "quiz_attempts", "attempt_sequence", "quiz_attempts_quiz_id"} {
		var n int
		err := s.DB().QueryRow(`SELECT count(*) FROM sqlite_master WHERE name = ?`, name).Scan(&n)
		if err != nil {
			t.Fatalf("lookup %s: %v", name, err)
		}
		if n != 1 {
			t.Errorf("%s missing after migration", name)
		}
	}
}
