package sink

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	w, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.WriteString("hello\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if err := w.WriteString("world\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "hello\nworld\n" {
		t.Errorf("content = %q", data)
	}
}

func TestOpenFileURI(t *testing.T) {
	dir := t.TempDir()

	w, err := Open("file://" + dir + "/sub/out.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.WriteString("via fileblob\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "sub", "out.txt"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "via fileblob\n" {
		t.Errorf("content = %q", data)
	}
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	if _, err := Open("ftp://host/out.txt"); err == nil {
		t.Fatal("unknown scheme must be rejected")
	}
}

func TestOpenRejectsDirectoryURI(t *testing.T) {
	if _, err := Open("file:///tmp/"); err == nil {
		t.Fatal("a URI without an object name must be rejected")
	}
}
