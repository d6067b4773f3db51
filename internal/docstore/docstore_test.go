package docstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSaveUploadAndList(t *testing.T) {
	s := newStore(t)

	name, path, err := s.SaveUpload(strings.NewReader("hello"), "report.pdf")
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if !strings.HasSuffix(name, "-report.pdf") {
		t.Errorf("stored name should keep the original suffix, got %q", name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("stored content %q", data)
	}

	names, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 1 || names[0] != name {
		t.Errorf("List = %v, want [%s]", names, name)
	}
}

func TestSaveUpload_SameNameNeverCollides(t *testing.T) {
	s := newStore(t)

	a, _, err := s.SaveUpload(strings.NewReader("one"), "doc.pdf")
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := s.SaveUpload(strings.NewReader("two"), "doc.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("two uploads of doc.pdf got the same stored name %q", a)
	}
}

func TestDelete(t *testing.T) {
	s := newStore(t)

	name, _, err := s.SaveUpload(strings.NewReader("x"), "gone.txt")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(name); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	names, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Errorf("file still listed after delete: %v", names)
	}
}

func TestDelete_TraversalIsConfined(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(dir, "outside.txt")
	if err := os.WriteFile(outside, []byte("keep me"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := New(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatal(err)
	}
	err = s.Delete("../outside.txt")
	if err == nil {
		t.Fatal("expected an error deleting a traversal path")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Errorf("file outside the store was touched: %v", err)
	}
}

func TestPath_StripsDirectories(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatal(err)
	}
	got := s.Path("../../etc/passwd")
	if filepath.Base(got) != "passwd" || strings.Contains(got, "..") {
		t.Errorf("Path leaked traversal segments: %q", got)
	}
}
