package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestStore_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	s := New(tmpDir)
	ctx := context.Background()

	blob := "ALLOWED_DIRECTORIES=\"/home/user/project\"\nTHEME=\"dark\"\n"
	if err := s.SaveBlob(ctx, "permissions", blob); err != nil {
		t.Fatalf("SaveBlob failed: %v", err)
	}

	// Verify the backing file exists
	filePath := filepath.Join(tmpDir, "permissions.env")
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		t.Fatal("File was not created")
	}

	loaded, err := s.LoadBlob(ctx, "permissions")
	if err != nil {
		t.Fatalf("LoadBlob failed: %v", err)
	}
	if loaded != blob {
		t.Errorf("Blob mismatch: got %q, want %q", loaded, blob)
	}
}

func TestStore_LoadNotFound(t *testing.T) {
	tmpDir := t.TempDir()
	s := New(tmpDir)

	_, err := s.LoadBlob(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_Overwrite(t *testing.T) {
	tmpDir := t.TempDir()
	s := New(tmpDir)
	ctx := context.Background()

	if err := s.SaveBlob(ctx, "settings", "A=1\n"); err != nil {
		t.Fatalf("SaveBlob failed: %v", err)
	}
	if err := s.SaveBlob(ctx, "settings", "A=2\n"); err != nil {
		t.Fatalf("SaveBlob failed: %v", err)
	}

	loaded, err := s.LoadBlob(ctx, "settings")
	if err != nil {
		t.Fatalf("LoadBlob failed: %v", err)
	}
	if loaded != "A=2\n" {
		t.Errorf("Expected overwritten blob, got %q", loaded)
	}
}

func TestStore_Delete(t *testing.T) {
	tmpDir := t.TempDir()
	s := New(tmpDir)
	ctx := context.Background()

	if err := s.SaveBlob(ctx, "settings", "A=1\n"); err != nil {
		t.Fatalf("SaveBlob failed: %v", err)
	}
	if !s.Exists(ctx, "settings") {
		t.Fatal("Exists should report true after save")
	}

	if err := s.DeleteBlob(ctx, "settings"); err != nil {
		t.Fatalf("DeleteBlob failed: %v", err)
	}
	if s.Exists(ctx, "settings") {
		t.Error("Exists should report false after delete")
	}

	// Deleting again is not an error
	if err := s.DeleteBlob(ctx, "settings"); err != nil {
		t.Errorf("Deleting a missing key should not fail: %v", err)
	}
}

func TestStore_CreatesBaseDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	s := New(filepath.Join(tmpDir, "nested", "storage"))

	if err := s.SaveBlob(context.Background(), "settings", "A=1\n"); err != nil {
		t.Fatalf("SaveBlob should create parent directories: %v", err)
	}
}

func TestStore_ConcurrentSaves(t *testing.T) {
	tmpDir := t.TempDir()
	s := New(tmpDir)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			blob := fmt.Sprintf("A=%d\n", i)
			if err := s.SaveBlob(ctx, "settings", blob); err != nil {
				t.Errorf("SaveBlob failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// Whichever write won, the blob must be intact
	loaded, err := s.LoadBlob(ctx, "settings")
	if err != nil {
		t.Fatalf("LoadBlob failed: %v", err)
	}
	if len(loaded) == 0 {
		t.Error("Blob should not be empty after concurrent writes")
	}
}
