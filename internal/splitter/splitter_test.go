package splitter

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

// chunkedReader returns at most n bytes per Read call, to prove the
// scanner is insensitive to input chunking.
type chunkedReader struct {
	data []byte
	n    int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := c.n
	if n > len(c.data) {
		n = len(c.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

type record struct {
	text      string
	startLine uint64
	endLine   uint64
}

func collect(t *testing.T, sc *Scanner) []record {
	t.Helper()
	var out []record
	for {
		text, start, end, err := sc.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		out = append(out, record{string(text), start, end})
	}
}

func TestScannerSplitsSiblingRecords(t *testing.T) {
	input := `<dm_log_packet><pair key="type_id">A</pair></dm_log_packet>` +
		"\n" +
		`<dm_log_packet><pair key="type_id">B</pair></dm_log_packet>`

	records := collect(t, NewScanner(strings.NewReader(input)))
	if len(records) != 2 {
		t.Fatalf("want 2 records, got %d", len(records))
	}
	if !strings.Contains(records[0].text, ">A<") {
		t.Errorf("first record should contain A, got %q", records[0].text)
	}
	if !strings.Contains(records[1].text, ">B<") {
		t.Errorf("second record should contain B, got %q", records[1].text)
	}
	if records[0].startLine != 1 || records[0].endLine != 1 {
		t.Errorf("first record line span = %d-%d, want 1-1",
			records[0].startLine, records[0].endLine)
	}
	if records[1].startLine != 2 || records[1].endLine != 2 {
		t.Errorf("second record line span = %d-%d, want 2-2",
			records[1].startLine, records[1].endLine)
	}
}

func TestScannerSelfClosingTagWithSlashInAttribute(t *testing.T) {
	// The "/>" inside the quoted attribute value is opaque to the state
	// machine; only the unquoted "/>" after it ends the tag.
	input := `<a attr="/>" />text<b></b>`

	records := collect(t, NewScanner(strings.NewReader(input)))
	if len(records) != 2 {
		t.Fatalf("want 2 records, got %d", len(records))
	}
	if records[0].text != `<a attr="/>" />` {
		t.Errorf("first record = %q, want %q", records[0].text, `<a attr="/>" />`)
	}
	if records[1].text != `<b></b>` {
		t.Errorf("second record = %q, want %q", records[1].text, `<b></b>`)
	}
}

func TestScannerLineSpansWithInterleavedNewlines(t *testing.T) {
	input := "\n\n<a\nattr=\"x\">\nbody\n</a>\n\n<b></b>"

	records := collect(t, NewScanner(strings.NewReader(input)))
	if len(records) != 2 {
		t.Fatalf("want 2 records, got %d", len(records))
	}
	if records[0].startLine != 3 || records[0].endLine != 6 {
		t.Errorf("first record line span = %d-%d, want 3-6",
			records[0].startLine, records[0].endLine)
	}
	if records[1].startLine != 8 || records[1].endLine != 8 {
		t.Errorf("second record line span = %d-%d, want 8-8",
			records[1].startLine, records[1].endLine)
	}
}

func TestScannerNestedSubtrees(t *testing.T) {
	input := `<dm_log_packet><pair key="x"><dict><pair>1</pair></dict></pair></dm_log_packet>`

	records := collect(t, NewScanner(strings.NewReader(input)))
	if len(records) != 1 {
		t.Fatalf("want 1 record, got %d", len(records))
	}
	if records[0].text != input {
		t.Errorf("record = %q, want input verbatim", records[0].text)
	}
}

func TestScannerTruncatedRecordDiscarded(t *testing.T) {
	input := `<a></a><b><pair key="x">unfinished`

	sc := NewScanner(strings.NewReader(input))
	text, _, _, err := sc.Next()
	if err != nil {
		t.Fatalf("first record failed: %v", err)
	}
	if string(text) != "<a></a>" {
		t.Errorf("first record = %q, want <a></a>", text)
	}

	_, _, _, err = sc.Next()
	if err != ErrTruncated {
		t.Fatalf("want ErrTruncated, got %v", err)
	}
}

func TestScannerEmptyInput(t *testing.T) {
	sc := NewScanner(strings.NewReader("   \n\n  "))
	if _, _, _, err := sc.Next(); err != io.EOF {
		t.Fatalf("want io.EOF on whitespace-only input, got %v", err)
	}
}

// A long opening tag with no '<', '>' or '/' inside triggers the bulk
// fast path; the scalar scanner must produce identical output.
func TestScannerAccelMatchesScalar(t *testing.T) {
	longAttrs := strings.Repeat("attr=value ", 40)
	input := "<dm_log_packet " + longAttrs + "x=\"1\">\n" +
		strings.Repeat("<pair key=\"k\">v</pair>\n", 10) +
		"</dm_log_packet>\n" +
		`<a attr="/>" />` + "\n<b></b>"

	for _, chunk := range []int{1, 3, 16, 17, 4096} {
		accel := collect(t, NewScanner(&chunkedReader{data: []byte(input), n: chunk}))
		scalar := collect(t, NewScalarScanner(&chunkedReader{data: []byte(input), n: chunk}))

		if len(accel) != len(scalar) {
			t.Fatalf("chunk %d: accel %d records, scalar %d", chunk, len(accel), len(scalar))
		}
		for i := range accel {
			if accel[i] != scalar[i] {
				t.Errorf("chunk %d record %d: accel %+v != scalar %+v",
					chunk, i, accel[i], scalar[i])
			}
		}
	}
}

// Feeding the same bytes in any chunking produces identical records.
func TestScannerChunkingIndependence(t *testing.T) {
	var input bytes.Buffer
	for i := 0; i < 20; i++ {
		input.WriteString("<dm_log_packet ver=\"2\">\n<pair key=\"type_id\">T</pair>\n</dm_log_packet>\n")
	}

	want := collect(t, NewScanner(bytes.NewReader(input.Bytes())))
	for _, chunk := range []int{1, 2, 7, 64, 1000} {
		got := collect(t, NewScanner(&chunkedReader{data: input.Bytes(), n: chunk}))
		if len(got) != len(want) {
			t.Fatalf("chunk %d: got %d records, want %d", chunk, len(got), len(want))
		}
		for i := range got {
			if got[i] != want[i] {
				t.Errorf("chunk %d record %d mismatch", chunk, i)
			}
		}
	}
}
