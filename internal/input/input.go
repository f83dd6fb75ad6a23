// Package input opens the ordered list of input streams for the
// splitter. Paths ending in .zst are transparently decompressed; an
// empty path list means standard input.
package input

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/dmlogsplit/dmlogsplit/internal/errs"
	"github.com/dmlogsplit/dmlogsplit/internal/splitter"
)

// Set holds the opened input streams and their closers.
type Set struct {
	Inputs  []splitter.Input
	closers []io.Closer
	zstds   []*zstd.Decoder
}

// Open opens every path in order. With no paths it returns standard
// input as the only stream, named "stdin" the way the original tool
// labels it.
func Open(paths []string) (*Set, error) {
	s := &Set{}

	if len(paths) == 0 {
		s.Inputs = append(s.Inputs, splitter.Input{Name: "stdin", Reader: os.Stdin})
		return s, nil
	}

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			s.Close()
			return nil, errs.NewArgumentError("failed to open input file %q: %v", path, err)
		}
		s.closers = append(s.closers, f)

		var r io.Reader = f
		if strings.HasSuffix(path, ".zst") {
			dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
			if err != nil {
				s.Close()
				return nil, errs.NewResourceError(fmt.Sprintf("create zstd decoder for %s", path), err)
			}
			s.zstds = append(s.zstds, dec)
			r = dec
		}

		s.Inputs = append(s.Inputs, splitter.Input{Name: path, Reader: r})
	}

	return s, nil
}

// Close releases every opened stream.
func (s *Set) Close() {
	for _, d := range s.zstds {
		d.Close()
	}
	for _, c := range s.closers {
		c.Close()
	}
}
