package sessionstore

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}

	if got, err := store.Get(ctx, KeyIP); err != nil || got != "" {
		t.Errorf("Get on empty store = %q, %v; want empty, nil", got, err)
	}

	if err := store.Set(ctx, KeyIP, "10.0.0.1"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := store.Set(ctx, KeyCredencial, "CRED-1"); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	if got, _ := store.Get(ctx, KeyIP); got != "10.0.0.1" {
		t.Errorf("Get(ip) = %q, want 10.0.0.1", got)
	}

	// A second store on the same path sees the persisted values.
	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	if got, _ := reopened.Get(ctx, KeyCredencial); got != "CRED-1" {
		t.Errorf("Get(credencial) after reopen = %q, want CRED-1", got)
	}

	if err := store.Delete(ctx, KeyCredencial); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if got, _ := store.Get(ctx, KeyCredencial); got != "" {
		t.Errorf("Get after delete = %q, want empty", got)
	}
	if got, _ := store.Get(ctx, KeyIP); got != "10.0.0.1" {
		t.Errorf("Get(ip) after unrelated delete = %q, want kept", got)
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}

	store.Set(ctx, KeyFilial, "Filial A")
	store.Set(ctx, KeyFilial, "Filial B")

	if got, _ := store.Get(ctx, KeyFilial); got != "Filial B" {
		t.Errorf("Get = %q, want Filial B", got)
	}
}
