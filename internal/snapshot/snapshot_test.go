package snapshot

import (
	"context"
	"path/filepath"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "medminder.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	got, err := s.Load(ctx, "medication-store")
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no snapshot, got %q", got)
	}

	if err := s.Save(ctx, "medication-store", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, "medication-store", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err = s.Load(ctx, "medication-store")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `{"v":2}` {
		t.Errorf("payload = %q, want %q", got, `{"v":2}`)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SaveSession(ctx, "supabase", []byte(`{"access_token":"a"}`)); err != nil {
		t.Fatalf("save session: %v", err)
	}

	got, err := s.LoadSession(ctx, "supabase")
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if string(got) != `{"access_token":"a"}` {
		t.Errorf("session = %q", got)
	}

	other, err := s.LoadSession(ctx, "postgres")
	if err != nil {
		t.Fatalf("load other session: %v", err)
	}
	if other != nil {
		t.Errorf("expected no postgres session, got %q", other)
	}

	if err := s.ClearSession(ctx, "supabase"); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	got, err = s.LoadSession(ctx, "supabase")
	if err != nil {
		t.Fatalf("load cleared session: %v", err)
	}
	if got != nil {
		t.Errorf("expected cleared session, got %q", got)
	}
}

func TestReopenKeepsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medminder.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Save(ctx, "medication-store", []byte(`{"kept":true}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Load(ctx, "medication-store")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `{"kept":true}` {
		t.Errorf("payload = %q", got)
	}
}
