package actions

import (
	"bufio"
	"os"
	"strings"

	"github.com/dmlogsplit/dmlogsplit/internal/errs"
	"github.com/dmlogsplit/dmlogsplit/internal/util"
)

// LoadRanges reads a range file: one inclusive keep interval per line,
// two unix timestamps in seconds separated by whitespace. Blank lines
// are skipped.
func LoadRanges(path string) ([]TimeRange, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.NewArgumentError("failed to open range file %q: %v", path, err)
	}
	defer f.Close()

	var ranges []TimeRange
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, errs.NewArgumentError(
				"range file %s line %d: want two timestamps, got %d fields",
				path, line, len(fields))
		}
		start, err := util.Atoi(fields[0])
		if err != nil {
			return nil, errs.NewArgumentError(
				"range file %s line %d: bad start timestamp %q", path, line, fields[0])
		}
		end, err := util.Atoi(fields[1])
		if err != nil {
			return nil, errs.NewArgumentError(
				"range file %s line %d: bad end timestamp %q", path, line, fields[1])
		}
		ranges = append(ranges, TimeRange{Start: start, End: end})
	}
	if err := sc.Err(); err != nil {
		return nil, errs.NewResourceError("read range file "+path, err)
	}
	return ranges, nil
}
