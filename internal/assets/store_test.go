package assets

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestDirStore_List(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"busybox-arm", "busybox-i686"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0644); err != nil {
			t.Fatalf("write asset: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0755); err != nil {
		t.Fatalf("make subdir: %v", err)
	}

	store := NewDirStore(dir)
	names, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(names) != 2 {
		t.Errorf("List() returned %d names, want 2 (directories excluded)", len(names))
	}
}

func TestDirStore_ListMissingDir(t *testing.T) {
	store := NewDirStore(filepath.Join(t.TempDir(), "does-not-exist"))
	if _, err := store.List(); err == nil {
		t.Error("List() should fail for a missing asset dir")
	}
}

func TestDirStore_Open(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "busybox-arm"), []byte("payload"), 0644); err != nil {
		t.Fatalf("write asset: %v", err)
	}

	store := NewDirStore(dir)

	rc, err := store.Open("busybox-arm")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read asset: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("asset content = %q, want payload", data)
	}
}

func TestDirStore_OpenRejectsTraversal(t *testing.T) {
	store := NewDirStore(t.TempDir())

	for _, name := range []string{"../etc/passwd", "a/b", "/abs"} {
		if _, err := store.Open(name); err == nil {
			t.Errorf("Open(%q) should be rejected", name)
		}
	}
}
