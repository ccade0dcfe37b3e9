package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSession(id string, ttl time.Duration) Session {
	now := time.Now().UTC().Truncate(time.Second)
	return Session{
		ID:           id,
		OutputFile:   "/data/outputs/" + id + "/parsed_document_20250101_120000.txt",
		Filename:     "report.pdf",
		PageCount:    12,
		InputTokens:  3400,
		OutputTokens: 1800,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
}

func TestPutGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	want := testSession("s1", time.Hour)
	if err := s.Put(ctx, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != want.ID || got.OutputFile != want.OutputFile || got.Filename != want.Filename {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
	if got.PageCount != 12 || got.InputTokens != 3400 || got.OutputTokens != 1800 {
		t.Errorf("counters lost: %+v", got)
	}
	if !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, want.ExpiresAt)
	}
}

func TestGetMissing(t *testing.T) {
	s := testStore(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestGetExpired(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, testSession("old", -time.Minute)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := s.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired session must report ErrNotFound, got %v", err)
	}
}

func TestPutReplaces(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first := testSession("s1", time.Hour)
	if err := s.Put(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := first
	second.PageCount = 99
	if err := s.Put(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.PageCount != 99 {
		t.Errorf("PageCount = %d, want replacement value 99", got.PageCount)
	}
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, testSession("s1", time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted session must report ErrNotFound, got %v", err)
	}

	// Deleting again is a no-op, not an error.
	if err := s.Delete(ctx, "s1"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestPurgeExpired(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, testSession("live", time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, testSession("dead1", -time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, testSession("dead2", -time.Hour)); err != nil {
		t.Fatal(err)
	}

	n, err := s.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 2 {
		t.Errorf("purged %d sessions, want 2", n)
	}

	if _, err := s.Get(ctx, "live"); err != nil {
		t.Errorf("live session must survive the purge: %v", err)
	}
}
