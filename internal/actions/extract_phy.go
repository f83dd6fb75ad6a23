package actions

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/dmlogsplit/dmlogsplit/internal/job"
)

// extractPHYPDSCHPacket prints the frame, antenna and transport block
// fields of an LTE_PHY_PDSCH_Packet.
func (c *Context) extractPHYPDSCHPacket(tree *etree.Element, j *job.Job, sub Submitter) error {
	timestamp := PacketTimestamp(tree)

	targetKeys := []string{
		"System Frame Number",
		"Subframe Number",
		"Number of Tx Antennas(M)",
		"Number of Rx Antennas(N)",
		"TBS 0",
		"MCS 0",
		"TBS 1",
		"MCS 1",
	}

	var result strings.Builder
	for _, pair := range tree.ChildElements() {
		if pair.Tag != "pair" {
			continue
		}
		key := pair.SelectAttrValue("key", "")
		for _, target := range targetKeys {
			if key == target {
				if result.Len() > 0 {
					result.WriteString(", ")
				}
				result.WriteString(key)
				result.WriteString(": ")
				result.WriteString(pair.Text())
				break
			}
		}
	}

	line := result.String()
	sub.Submit(j.Seq, func() error {
		return c.printf("%s $ LTE_PHY_PDSCH_Packet $ %s\n", timestamp, line)
	})
	return nil
}

// extractPHYPDSCHStatPacket prints one line per transport block of
// every record in an LTE_PHY_PDSCH_Stat_Indication packet, repeating
// the record-level fields on each line.
func (c *Context) extractPHYPDSCHStatPacket(tree *etree.Element, j *job.Job, sub Submitter) error {
	timestamp := PacketTimestamp(tree)

	var out strings.Builder
	for _, recordList := range LocateDisjointSubtreeWithAttribute(tree, "key", "Records") {
		for _, record := range LocateDisjointSubtreeWithAttribute(recordList, "type", "dict") {
			var recordFields string
			var transportBlocks []string
			for _, item := range DictPairs(record) {
				key := item.SelectAttrValue("key", "")
				if key == "Transport Blocks" {
					transportBlocks = flattenDicts(item)
					continue
				}
				if recordFields != "" {
					recordFields += ", "
				}
				recordFields += key + ": " + item.Text()
			}
			for _, tb := range transportBlocks {
				out.WriteString(timestamp)
				out.WriteString(" $ LTE_PHY_PDSCH_Stat_Indication $ ")
				out.WriteString(recordFields)
				if recordFields != "" {
					out.WriteString(", ")
				}
				out.WriteString(tb)
				out.WriteByte('\n')
			}
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

// flattenDicts renders each type="dict" descendant of el as a
// comma-joined "key: value" list.
func flattenDicts(el *etree.Element) []string {
	var out []string
	for _, dict := range LocateDisjointSubtreeWithAttribute(el, "type", "dict") {
		var single string
		for _, pair := range DictPairs(dict) {
			if single != "" {
				single += ", "
			}
			single += pair.SelectAttrValue("key", "") + ": " + pair.Text()
		}
		out = append(out, single)
	}
	return out
}

// extractPHYServCellMeasurement prints the RSRP of the primary serving
// cell from each subpacket of an LTE_PHY_Serv_Cell_Measurement packet.
func (c *Context) extractPHYServCellMeasurement(tree *etree.Element, j *job.Job, sub Submitter) error {
	timestamp := PacketTimestamp(tree)

	var out strings.Builder
	for _, subpacketList := range LocateSubtreeWithAttribute(tree, "key", "Subpackets") {
		for _, subpacket := range ListItems(subpacketList) {
			primary := false
			var rsrp string
			for _, pair := range DictPairs(subpacket) {
				switch pair.SelectAttrValue("key", "") {
				case "Serving Cell Index":
					primary = pair.Text() == "PCell"
				case "RSRP":
					rsrp = pair.Text()
				}
			}
			if primary && rsrp != "" {
				out.WriteString(timestamp)
				out.WriteString(" $ LTE_PHY_Serv_Cell_Measurement $ RSRP: ")
				out.WriteString(rsrp)
				out.WriteByte('\n')
			}
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
