package input

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestOpenPlainFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.xml")
	b := filepath.Join(dir, "b.xml")
	os.WriteFile(a, []byte("<a></a>"), 0644)
	os.WriteFile(b, []byte("<b></b>"), 0644)

	s, err := Open([]string{a, b})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if len(s.Inputs) != 2 {
		t.Fatalf("got %d inputs", len(s.Inputs))
	}
	if s.Inputs[0].Name != a || s.Inputs[1].Name != b {
		t.Errorf("input order not preserved: %v, %v", s.Inputs[0].Name, s.Inputs[1].Name)
	}
	data, _ := io.ReadAll(s.Inputs[0].Reader)
	if string(data) != "<a></a>" {
		t.Errorf("first input content = %q", data)
	}
}

func TestOpenZstdCompressed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.xml.zst")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	payload := "<dm_log_packet><pair key=\"type_id\">T</pair></dm_log_packet>"
	enc.Write([]byte(payload))
	enc.Close()
	f.Close()

	s, err := Open([]string{path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	data, err := io.ReadAll(s.Inputs[0].Reader)
	if err != nil {
		t.Fatalf("read decompressed: %v", err)
	}
	if string(data) != payload {
		t.Errorf("decompressed content = %q", data)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open([]string{"/does/not/exist.xml"}); err == nil {
		t.Fatal("missing input must be rejected")
	}
}

func TestOpenNoPathsMeansStdin(t *testing.T) {
	s, err := Open(nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if len(s.Inputs) != 1 || s.Inputs[0].Name != "stdin" {
		t.Fatalf("want single stdin input, got %+v", s.Inputs)
	}
}
