package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/dmlogsplit/dmlogsplit/internal/config"
	"github.com/dmlogsplit/dmlogsplit/internal/errs"
	"github.com/dmlogsplit/dmlogsplit/internal/splitter"
)

// memSink collects output in memory.
type memSink struct {
	b strings.Builder
}

func (m *memSink) WriteString(s string) error { m.b.WriteString(s); return nil }
func (m *memSink) Close() error               { return nil }

func packet(typeID, timestamp string) string {
	return `<dm_log_packet><pair key="type_id">` + typeID +
		`</pair><pair key="timestamp">` + timestamp + `</pair></dm_log_packet>`
}

// runOnce processes input through one engine run and returns the
// output, the warnings and the stats.
func runOnce(t *testing.T, cfg *config.Config, input string) (string, string, Stats) {
	t.Helper()
	if cfg.Threads == 0 {
		cfg.Threads = 4
	}

	out := &memSink{}
	warn := &strings.Builder{}
	stats, err := New(cfg, out, warn).Run([]splitter.Input{
		{Name: "test.xml", Reader: strings.NewReader(input)},
	})
	if err != nil {
		t.Fatalf("engine run failed: %v", err)
	}
	return out.b.String(), warn.String(), stats
}

func TestExtractAllPacketTypeKeepsInputOrder(t *testing.T) {
	input := packet("A", "2020-01-01 00:00:00") + packet("B", "2020-01-01 00:00:01")
	cfg := &config.Config{
		Mode:           config.ModeExtract,
		ExtractActions: []string{"all_packet_type"},
	}

	for _, threads := range []int{1, 4, 16} {
		cfg.Threads = threads
		out, _, stats := runOnce(t, cfg, input)

		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		if len(lines) != 2 {
			t.Fatalf("threads=%d: want 2 lines, got %d: %q", threads, len(lines), out)
		}
		if !strings.Contains(lines[0], "A") {
			t.Errorf("threads=%d: first line should carry A: %q", threads, lines[0])
		}
		if !strings.Contains(lines[1], "B") {
			t.Errorf("threads=%d: second line should carry B: %q", threads, lines[1])
		}
		if stats.Records != 2 {
			t.Errorf("threads=%d: records = %d", threads, stats.Records)
		}
	}
}

func TestOutputDeterministicAcrossWorkerCounts(t *testing.T) {
	var input strings.Builder
	for i := 0; i < 500; i++ {
		input.WriteString(packet(fmt.Sprintf("T%03d", i),
			fmt.Sprintf("2020-01-01 00:00:%02d.%06d", i/100, i%100)))
		input.WriteString("\n")
	}

	baseline := ""
	for _, threads := range []int{1, 2, 8, 32} {
		cfg := &config.Config{
			Mode:           config.ModeExtract,
			ExtractActions: []string{"all_packet_type"},
			Threads:        threads,
		}
		out, _, stats := runOnce(t, cfg, input.String())
		if stats.Records != 500 {
			t.Fatalf("threads=%d: records = %d, want 500", threads, stats.Records)
		}
		if baseline == "" {
			baseline = out
			continue
		}
		if out != baseline {
			t.Fatalf("threads=%d: output differs from single-thread baseline", threads)
		}
	}
}

func TestDedupKeepsMonotonicTimestamps(t *testing.T) {
	var input strings.Builder
	for i := 0; i < 100; i++ {
		input.WriteString(packet("T", fmt.Sprintf("2020-01-01 00:00:00.%06d", i)))
	}

	cfg := &config.Config{Mode: config.ModeDedup, Threads: 8}
	out, warn, stats := runOnce(t, cfg, input.String())

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 100 {
		t.Fatalf("want all 100 packets kept, got %d", len(lines))
	}
	if warn != "" {
		t.Errorf("no warnings expected, got %q", warn)
	}
	if stats.Records != 100 {
		t.Errorf("records = %d", stats.Records)
	}
}

func TestDedupDropsOutOfOrderDuplicate(t *testing.T) {
	input := packet("T", "2020-01-01 00:00:05.000000") +
		packet("T", "2020-01-01 00:00:01.000000") + // older, dropped
		packet("T", "2020-01-01 00:00:06.000000")

	cfg := &config.Config{Mode: config.ModeDedup, Threads: 4}
	out, warn, stats := runOnce(t, cfg, input)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 packets kept, got %d: %q", len(lines), out)
	}
	if !strings.Contains(warn, "Dropping packet") {
		t.Errorf("dropped packet must be warned about, got %q", warn)
	}
	if stats.Warnings != 1 {
		t.Errorf("warnings = %d, want 1", stats.Warnings)
	}
}

func TestRangeModePassesThroughVerbatim(t *testing.T) {
	dir := t.TempDir()
	rangePath := dir + "/ranges.txt"
	if err := writeRanges(rangePath, "1600000000 1600000059\n"); err != nil {
		t.Fatal(err)
	}

	// 2020-09-13 04:26:40 converts to 1600000000; the second packet
	// is two minutes later and falls outside.
	inside := packet("T", "2020-09-13 04:26:40.000000")
	outside := packet("T", "2020-09-13 04:28:40.000000")

	cfg := &config.Config{Mode: config.ModeRange, RangePath: rangePath, Threads: 4}
	out, _, _ := runOnce(t, cfg, inside+outside)

	if out != inside+"\n" {
		t.Errorf("output = %q, want the in-range packet verbatim", out)
	}
}

func TestReorderModeSwapsWithinWindow(t *testing.T) {
	first := packet("T", "2020-01-01 00:00:00.100000")
	second := packet("T", "2020-01-01 00:00:00.000500")

	cfg := &config.Config{
		Mode:                   config.ModeReorder,
		ReorderToleranceMicros: 1_000_000,
		Threads:                4,
	}
	out, _, _ := runOnce(t, cfg, first+second)

	want := second + "\n" + first + "\n"
	if out != want {
		t.Errorf("output = %q, want swapped order %q", out, want)
	}
}

func TestTypeFilterMode(t *testing.T) {
	match := packet("LTE_RRC_OTA_Packet", "2020-01-01 00:00:00")
	other := packet("LTE_MAC_Rach_Trigger", "2020-01-01 00:00:01")

	cfg := &config.Config{Mode: config.ModeTypeFilter, TypePattern: "LTE_RRC_.*", Threads: 4}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	out, _, _ := runOnce(t, cfg, match+other)

	if out != match+"\n" {
		t.Errorf("output = %q, want only the matching packet", out)
	}
}

func TestEmptyInputFinishesCleanly(t *testing.T) {
	cfg := &config.Config{
		Mode:           config.ModeExtract,
		ExtractActions: []string{"all_packet_type"},
		Threads:        4,
	}
	out, _, stats := runOnce(t, cfg, "   \n\n ")

	if out != "" {
		t.Errorf("empty input produced output %q", out)
	}
	if stats.Records != 0 {
		t.Errorf("records = %d, want 0", stats.Records)
	}
}

func TestSeqContinuesAcrossInputs(t *testing.T) {
	cfg := &config.Config{
		Mode:           config.ModeExtract,
		ExtractActions: []string{"all_packet_type"},
		Threads:        4,
	}

	out := &memSink{}
	stats, err := New(cfg, out, &strings.Builder{}).Run([]splitter.Input{
		{Name: "a.xml", Reader: strings.NewReader(packet("A1", "t") + packet("A2", "t"))},
		{Name: "b.xml", Reader: strings.NewReader(packet("B1", "t"))},
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if stats.Records != 3 {
		t.Fatalf("records = %d, want 3 across both inputs", stats.Records)
	}

	lines := strings.Split(strings.TrimRight(out.b.String(), "\n"), "\n")
	want := []string{"A1", "A2", "B1"}
	for i, typeID := range want {
		if !strings.Contains(lines[i], typeID) {
			t.Errorf("line %d = %q, want type %s", i, lines[i], typeID)
		}
	}
}

func TestMalformedRecordIsFatalParseError(t *testing.T) {
	// Lexically balanced so the splitter emits it, but the close tag
	// does not match and the XML parser rejects it.
	input := packet("A", "2020-01-01 00:00:00") +
		"<dm_log_packet><pair></wrong></dm_log_packet>" +
		packet("B", "2020-01-01 00:00:01")

	cfg := &config.Config{
		Mode:           config.ModeExtract,
		ExtractActions: []string{"all_packet_type"},
		Threads:        4,
	}

	out := &memSink{}
	_, err := New(cfg, out, &strings.Builder{}).Run([]splitter.Input{
		{Name: "bad.xml", Reader: strings.NewReader(input)},
	})
	var parseErr *errs.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("want ParseError, got %v", err)
	}
}

func writeRanges(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
