package actions

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/dmlogsplit/dmlogsplit/internal/errs"
	"github.com/dmlogsplit/dmlogsplit/internal/job"
)

// extractRLCAMAllPDU prints every PDU of an
// LTE_RLC_UL/DL_AM_All_PDU packet as one "key: value" line. Control
// NACK lists are joined with '/', and the data LI field's value is
// printed as OMITTED.
func (c *Context) extractRLCAMAllPDU(tree *etree.Element, j *job.Job, sub Submitter, uplink bool) error {
	timestamp := PacketTimestamp(tree)

	listKey, resultTag := "RLCDL PDUs", " $ LTE_RLC_DL_AM_All_PDU $ "
	if uplink {
		listKey, resultTag = "RLCUL PDUs", " $ LTE_RLC_UL_AM_All_PDU $ "
	}

	var out strings.Builder
	for _, pduList := range LocateDisjointSubtreeWithAttribute(tree, "key", listKey) {
		for _, pdu := range LocateDisjointSubtreeWithAttribute(pduList, "type", "dict") {
			out.WriteString(timestamp)
			out.WriteString(resultTag)
			first := true
			for _, field := range DictPairs(pdu) {
				key := field.SelectAttrValue("key", "")
				if !first {
					out.WriteString(", ")
				}
				first = false
				out.WriteString(key)
				out.WriteString(": ")
				switch key {
				case "RLC CTRL NACK":
					var sns string
					for _, sn := range LocateDisjointSubtreeWithAttribute(field, "key", "NACK_SN") {
						if sns != "" {
							sns += "/"
						}
						sns += sn.Text()
					}
					out.WriteString(sns)
				case "RLC DATA LI":
					out.WriteString("OMITTED")
				default:
					out.WriteString(field.Text())
				}
			}
			out.WriteByte('\n')
		}
	}

	text := out.String()
	sub.Submit(j.Seq, func() error {
		if text == "" {
			return nil
		}
		return c.Out.WriteString(text)
	})
	return nil
}

// extractRLCConfigLog prints the radio bearer configuration changes of
// an LTE_RLC_DL/UL_Config_Log_Packet: the reason, then one line per
// bearer in the added/modified, released and active lists.
func (c *Context) extractRLCConfigLog(tree *etree.Element, j *job.Job, sub Submitter, pktName string) error {
	timestamp := PacketTimestamp(tree)

	reasons := LocateDisjointSubtreeWithAttribute(tree, "key", "Reason")
	if len(reasons) != 1 {
		return errs.NewInputError(
			"RLC_CONFIG_LOG_PACKET does not have a \"Reason\" field")
	}
	reason := "Reason: " + reasons[0].Text()

	var out strings.Builder
	collect := func(category string) {
		for _, list := range LocateDisjointSubtreeWithAttribute(tree, "key", category) {
			for _, dict := range LocateDisjointSubtreeWithAttribute(list, "type", "dict") {
				out.WriteString(timestamp)
				out.WriteString(" $ ")
				out.WriteString(pktName)
				out.WriteString(" $ ")
				out.WriteString(reason)
				out.WriteString(", Category: ")
				out.WriteString(category)
				for _, pair := range DictPairs(dict) {
					out.WriteString(", ")
					out.WriteString(pair.SelectAttrValue("key", ""))
					out.WriteString(": ")
					out.WriteString(pair.Text())
				}
				out.WriteByte('\n')
			}
		}
	}
	collect("Added/Modified RBs")
	collect("Released RBs")
	collect("Active RBs")

	text := out.String()
	sub.Submit(j.Seq, func() error {
		if text == "" {
			return nil
		}
		return c.Out.WriteString(text)
	})
	return nil
}
