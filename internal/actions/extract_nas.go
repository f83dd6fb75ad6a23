package actions

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/dmlogsplit/dmlogsplit/internal/job"
)

// extractNASEMMOTAIncomingPacket reports tracking area update accept
// or reject carried by an LTE_NAS_EMM_OTA_Incoming_Packet:
//
//	<field name="nas_eps.nas_msg_emm_type"
//	       showname="... Tracking area update accept (0x49)"/>
func (c *Context) extractNASEMMOTAIncomingPacket(tree *etree.Element, j *job.Job, sub Submitter) error {
	timestamp := PacketTimestamp(tree)

	accept, reject := false, false
	for _, field := range LocateSubtreeWithAttribute(tree, "name", "nas_eps.nas_msg_emm_type") {
		showname := field.SelectAttrValue("showname", "")
		if strings.Contains(showname, "Tracking area update accept") {
			accept = true
			break
		}
		if strings.Contains(showname, "Tracking area update reject") {
			reject = true
			break
		}
	}

	if !accept && !reject {
		submitNop(j, sub)
		return nil
	}

	sub.Submit(j.Seq, func() error {
		return c.printf("%s $ LTE_NAS_EMM_OTA_Incoming_Packet $ "+
			"Tracking area update accept: %s, Tracking area update reject: %s\n",
			timestamp, boolDigit(accept), boolDigit(reject))
	})
	return nil
}

// extractNASEMMOTAOutgoingPacket reports tracking area update requests
// carried by an LTE_NAS_EMM_OTA_Outgoing_Packet.
func (c *Context) extractNASEMMOTAOutgoingPacket(tree *etree.Element, j *job.Job, sub Submitter) error {
	timestamp := PacketTimestamp(tree)

	request := false
	for _, field := range LocateSubtreeWithAttribute(tree, "name", "nas_eps.nas_msg_emm_type") {
		if strings.Contains(field.SelectAttrValue("showname", ""), "Tracking area update request") {
			request = true
			break
		}
	}

	if !request {
		submitNop(j, sub)
		return nil
	}

	sub.Submit(j.Seq, func() error {
		return c.printf("%s $ LTE_NAS_EMM_OTA_Outgoing_Packet $ Tracking area update request: 1\n",
			timestamp)
	})
	return nil
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
