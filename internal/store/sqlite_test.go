package store

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

func newTestPersister(t *testing.T) Persister {
	t.Helper()
	p, err := NewSQLite(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("Failed to create sqlite persister: %v", err)
	}
	t.Cleanup(func() {
		if err := p.Close(); err != nil {
			t.Errorf("Failed to close persister: %v", err)
		}
	})
	return p
}

func TestSQLiteStore_LoadMissingReturnsNil(t *testing.T) {
	p := newTestPersister(t)

	data, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if data != nil {
		t.Errorf("Expected nil for missing blob, got %q", data)
	}
}

func TestSQLiteStore_SaveLoadRoundTrip(t *testing.T) {
	p := newTestPersister(t)
	ctx := context.Background()

	blob := []byte(`{"chats":{"abc":{"title":"New Chat","messages":[]}},"currentChat":"abc"}`)
	if err := p.Save(ctx, blob); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := p.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(got, blob) {
		t.Errorf("Expected %q, got %q", blob, got)
	}
}

func TestSQLiteStore_SaveReplacesPreviousBlob(t *testing.T) {
	p := newTestPersister(t)
	ctx := context.Background()

	if err := p.Save(ctx, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	if err := p.Save(ctx, []byte(`{"v":2}`)); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	got, err := p.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != `{"v":2}` {
		t.Errorf("Expected latest blob, got %q", got)
	}
}

func TestSQLiteStore_Ping(t *testing.T) {
	p := newTestPersister(t)
	if err := p.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
