package actions

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/dmlogsplit/dmlogsplit/internal/errs"
	"github.com/dmlogsplit/dmlogsplit/internal/job"
)

// pdcpDataPDUSize is the PDU size treated as a data packet. The upper
// TCP connection sends at full speed, so data PDUs are full-sized.
const pdcpDataPDUSize = "1412"

// isPDCPCipherDataPDU matches both directions of PDCP cipher data
// packets.
func isPDCPCipherDataPDU(tree *etree.Element, _ *job.Job) bool {
	return IsPacketHavingType(tree, "LTE_PDCP_UL_Cipher_Data_PDU") ||
		IsPacketHavingType(tree, "LTE_PDCP_DL_Cipher_Data_PDU")
}

// extractPDCPCipherDataPDUPacket prints the PDU size and bearer ID of
// every PDU carried by an LTE_PDCP_UL/DL_Cipher_Data_PDU packet.
func (c *Context) extractPDCPCipherDataPDUPacket(tree *etree.Element, j *job.Job, sub Submitter) error {
	timestamp := PacketTimestamp(tree)
	var warning string

	extract := func(listKey string) (sizes, bearers []string) {
		for _, pduList := range LocateSubtreeWithAttribute(tree, "key", listKey) {
			for _, pdu := range LocateSubtreeWithAttribute(pduList, "type", "dict") {
				var size, bearerID string
				for _, info := range DictPairs(pdu) {
					switch info.SelectAttrValue("key", "") {
					case "Bearer ID":
						bearerID = info.Text()
					case "PDU Size":
						size = info.Text()
					}
				}
				if size == "" {
					warning += fmt.Sprintf(
						"Warning (packet timestamp = %s):\nFound an %s packet with size = 0. Skipping...\n",
						timestamp, listKey)
					continue
				}
				if bearerID == "" {
					warning += fmt.Sprintf(
						"Warning (packet timestamp = %s):\nFound an %s packet with no bearer id. Skipping...\n",
						timestamp, listKey)
					continue
				}
				sizes = append(sizes, size)
				bearers = append(bearers, bearerID)
			}
		}
		return sizes, bearers
	}

	ulSizes, ulBearers := extract("PDCPUL CIPH DATA")
	dlSizes, dlBearers := extract("PDCPDL CIPH DATA")

	sub.Submit(j.Seq, func() error {
		if warning != "" {
			c.warnf("%s", warning)
		}
		for i := range ulSizes {
			if err := c.printf("%s $ LTE_PDCP_UL_Cipher_Data_PDU $ PDU Size: %s, Bearer ID: %s\n",
				timestamp, ulSizes[i], ulBearers[i]); err != nil {
				return err
			}
		}
		for i := range dlSizes {
			if err := c.printf("%s $ LTE_PDCP_DL_Cipher_Data_PDU $ PDU Size: %s, Bearer ID: %s\n",
				timestamp, dlSizes[i], dlBearers[i]); err != nil {
				return err
			}
		}
		return nil
	})
	return nil
}

// updatePDCPCipherDataPDUTimestamp is the compound action: it tracks
// the timestamp and direction of the last PDCP data packet, and after
// an RRC disruption prints the first data packet that follows it. It
// MUST be paired with the isPDCPCipherDataPDU predicate.
func (c *Context) updatePDCPCipherDataPDUTimestamp(tree *etree.Element, j *job.Job, sub Submitter) error {
	timestamp := PacketTimestamp(tree)

	direction := DirectionUnknown
	switch PacketType(tree) {
	case "LTE_PDCP_UL_Cipher_Data_PDU":
		direction = DirectionUplink
	case "LTE_PDCP_DL_Cipher_Data_PDU":
		direction = DirectionDownlink
	}
	if direction == DirectionUnknown {
		return errs.NewProgramBug(
			"updatePDCPCipherDataPDUTimestamp was invoked with a packet of type " +
				"neither LTE_PDCP_UL_Cipher_Data_PDU nor LTE_PDCP_DL_Cipher_Data_PDU")
	}

	listKey := "PDCPUL CIPH DATA"
	if direction == DirectionDownlink {
		listKey = "PDCPDL CIPH DATA"
	}

	dataPacketPresent := false
	for _, pduList := range LocateSubtreeWithAttribute(tree, "key", listKey) {
		for _, size := range LocateSubtreeWithAttribute(pduList, "key", "PDU Size") {
			if size.Text() == pdcpDataPDUSize {
				dataPacketPresent = true
				break
			}
		}
		if dataPacketPresent {
			break
		}
	}

	if !dataPacketPresent {
		submitNop(j, sub)
		return nil
	}

	sub.Submit(j.Seq, func() error {
		if c.Disruptions.Active {
			for i := range c.Disruptions.Events {
				if !c.Disruptions.Events[i] {
					continue
				}
				if err := c.printf("%s $ FirstPDCPPacketAfterDisruption $ "+
					"Disruption Type: %s, Direction: %s\n",
					timestamp, DisruptionEvent(i), direction); err != nil {
					return err
				}
				c.Disruptions.Events[i] = false
			}
			c.Disruptions.Active = false
		}
		c.LastPDCPTimestamp = timestamp
		c.LastPDCPDirection = direction
		return nil
	})
	return nil
}
