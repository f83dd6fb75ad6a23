package actions

import (
	"github.com/beevik/etree"

	"github.com/dmlogsplit/dmlogsplit/internal/job"
)

// extractMACRachAttemptPacket prints the random access results of an
// LTE_MAC_Rach_Attempt packet:
//
//	<pair key="Rach result">XXX</pair>
func (c *Context) extractMACRachAttemptPacket(tree *etree.Element, j *job.Job, sub Submitter) error {
	timestamp := PacketTimestamp(tree)

	var results string
	for _, node := range LocateSubtreeWithAttribute(tree, "key", "Rach result") {
		if results != "" {
			results += ", "
		}
		results += "Result: " + node.Text()
	}

	sub.Submit(j.Seq, func() error {
		return c.printf("%s $ LTE_MAC_Rach_Attempt $ %s\n", timestamp, results)
	})
	return nil
}

// extractMACRachTriggerPacket prints the triggering reason of an
// LTE_MAC_Rach_Trigger packet together with the last PDCP data packet
// timestamp.
func (c *Context) extractMACRachTriggerPacket(tree *etree.Element, j *job.Job, sub Submitter) error {
	timestamp := PacketTimestamp(tree)

	var reasons string
	for _, node := range LocateSubtreeWithAttribute(tree, "key", "Rach reason") {
		if reasons != "" {
			reasons += ", "
		}
		reasons += "Reason: " + node.Text()
	}

	sub.Submit(j.Seq, func() error {
		return c.printf("%s $ LTE_MAC_Rach_Trigger $ %s, LastPDCPPacketTimestamp: %s\n",
			timestamp, reasons, c.LastPDCPTimestamp)
	})
	return nil
}
