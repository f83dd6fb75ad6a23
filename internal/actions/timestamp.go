package actions

import (
	"fmt"
	"time"
)

// Packet timestamps look like "2020-01-01 00:00:00.000000" with the
// microsecond part optional, and are interpreted as local time offset
// +28800 seconds (UTC+8).

// TimestampToUnix converts a packet timestamp to unix seconds,
// dropping any fractional part. ok is false when the string does not
// match the pattern. Used by the range filter, whose keep intervals
// are whole seconds.
func TimestampToUnix(ts string) (sec int64, ok bool) {
	var y, mo, d, h, mi, s int
	n, _ := fmt.Sscanf(ts, "%d-%d-%d %d:%d:%d", &y, &mo, &d, &h, &mi, &s)
	if n != 6 {
		return 0, false
	}
	return civilToUnix(y, mo, d, h, mi, s), true
}

// TimestampToMicros converts a packet timestamp to unix microseconds,
// keeping sub-second resolution for dedup and reorder tie-breaking.
func TimestampToMicros(ts string) (micros int64, ok bool) {
	var y, mo, d, h, mi, s, us int
	n, _ := fmt.Sscanf(ts, "%d-%d-%d %d:%d:%d.%d", &y, &mo, &d, &h, &mi, &s, &us)
	switch n {
	case 7:
	case 6:
		us = 0
	default:
		return 0, false
	}
	return civilToUnix(y, mo, d, h, mi, s)*1_000_000 + int64(us), true
}

func civilToUnix(y, mo, d, h, mi, s int) int64 {
	return time.Date(y, time.Month(mo), d, h, mi, s, 0, time.UTC).Unix() + 28800
}

// timestampWarning is the in-order soft warning emitted when a packet
// timestamp does not parse in dedup or reorder mode.
func timestampWarning(ts string) string {
	return "Warning (packet timestamp = " + ts + "): \n" +
		"Timestamp does not match the pattern " +
		"\"%d-%d-%d %d:%d:%d.%d\" or \"%d-%d-%d %d:%d:%d\". Dropped.\n"
}
