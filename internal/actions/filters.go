package actions

import (
	"github.com/beevik/etree"

	"github.com/dmlogsplit/dmlogsplit/internal/job"
)

// echoPacketWithinTimeRange passes the packet through verbatim when
// its timestamp falls inside any configured keep interval, and
// otherwise emits nothing. Either way it submits its ordered task.
func (c *Context) echoPacketWithinTimeRange(tree *etree.Element, j *job.Job, sub Submitter) error {
	timestamp := PacketTimestamp(tree)

	sec, ok := TimestampToUnix(timestamp)
	if !ok {
		sub.Submit(j.Seq, func() error {
			c.warnf("Warning (packet timestamp = %s): \n"+
				"Timestamp is not in the format \"%%d-%%d-%%d %%d:%%d:%%d.%%*d\"\n",
				timestamp)
			return nil
		})
		return nil
	}

	within := false
	for _, r := range c.Ranges {
		if r.Start <= sec && sec <= r.End {
			within = true
			break
		}
	}

	var content string
	if within {
		content = string(j.Text) + "\n"
	}
	sub.Submit(j.Seq, func() error {
		if content == "" {
			return nil
		}
		return c.Out.WriteString(content)
	})
	return nil
}

// echoPacketIfNew emits the packet only when its timestamp is at
// least as new as everything already emitted, dropping late
// duplicates with a warning.
func (c *Context) echoPacketIfNew(tree *etree.Element, j *job.Job, sub Submitter) error {
	timestamp := PacketTimestamp(tree)

	micros, ok := TimestampToMicros(timestamp)
	if !ok {
		sub.Submit(j.Seq, func() error {
			c.warnf("%s", timestampWarning(timestamp))
			return nil
		})
		return nil
	}

	content := string(j.Text)
	sub.Submit(j.Seq, func() error {
		if micros >= c.LatestSeenMicros {
			if err := c.Out.WriteString(content + "\n"); err != nil {
				return err
			}
			c.LatestSeenMicros = micros
			c.LatestSeenString = timestamp
			return nil
		}
		c.warnf("Dropping packet: %s < %s\n", timestamp, c.LatestSeenString)
		return nil
	})
	return nil
}

// updateReorderWindow feeds the packet into the sliding sort window.
func (c *Context) updateReorderWindow(tree *etree.Element, j *job.Job, sub Submitter) error {
	timestamp := PacketTimestamp(tree)

	micros, ok := TimestampToMicros(timestamp)
	if !ok {
		sub.Submit(j.Seq, func() error {
			c.warnf("%s", timestampWarning(timestamp))
			return nil
		})
		return nil
	}

	content := string(j.Text)
	sub.Submit(j.Seq, func() error {
		return c.Reorder.Update(micros, content)
	})
	return nil
}

// echoPacketIfTypeMatch emits the packet verbatim when its type
// matches the configured regex.
func (c *Context) echoPacketIfTypeMatch(tree *etree.Element, j *job.Job, sub Submitter) error {
	if c.TypeRegex.MatchString(PacketType(tree)) {
		content := string(j.Text)
		sub.Submit(j.Seq, func() error {
			return c.Out.WriteString(content + "\n")
		})
		return nil
	}
	submitNop(j, sub)
	return nil
}

// extractPacketType prints every packet's timestamp and type.
func (c *Context) extractPacketType(tree *etree.Element, j *job.Job, sub Submitter) error {
	timestamp := PacketTimestamp(tree)
	packetType := PacketType(tree)

	sub.Submit(j.Seq, func() error {
		return c.printf("%s $ %s\n", timestamp, packetType)
	})
	return nil
}
