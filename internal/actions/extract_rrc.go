package actions

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/dmlogsplit/dmlogsplit/internal/job"
)

// extractRRCOTAPacket pulls the RRC connection lifecycle events out of
// an LTE_RRC_OTA_Packet: measurement config add/remove, measurement
// reports, connection (re)establishment, reconfiguration with and
// without mobilityControlInfo, release, request, setup, reject. The
// disruption bookkeeping feeds the PDCP compound action.
func (c *Context) extractRRCOTAPacket(tree *etree.Element, j *job.Job, sub Submitter) error {
	var warning strings.Builder
	timestamp := PacketTimestamp(tree)

	// New mappings from measurement event types to report config IDs.
	//
	// <field name="lte-rrc.ReportConfigToAddMod_element">
	//     ... <field name="lte-rrc.reportConfigId" showname="reportConfigId: X"/>
	//     ... <field name="lte-rrc.eventId" showname="eventId: eventAX (X)"/>
	// </field>
	var addedConfigIDs, addedEventTypes []string
	for _, node := range LocateSubtreeWithAttribute(tree, "name", "lte-rrc.ReportConfigToAddMod_element") {
		configIDs := LocateSubtreeWithAttribute(node, "name", "lte-rrc.reportConfigId")
		if len(configIDs) != 1 {
			warning.WriteString(sizeUnexpectedWarning(
				timestamp, "vector containing lte-rrc.reportConfigId", len(configIDs), 1, 1, j))
			continue
		}
		eventIDs := LocateSubtreeWithAttribute(node, "name", "lte-rrc.eventId")
		if len(eventIDs) != 1 {
			warning.WriteString(sizeUnexpectedWarning(
				timestamp, "vector containing lte-rrc.eventId", len(eventIDs), 1, 1, j))
			continue
		}
		addedConfigIDs = append(addedConfigIDs, configIDs[0].SelectAttrValue("showname", ""))
		addedEventTypes = append(addedEventTypes, eventIDs[0].SelectAttrValue("showname", ""))
	}

	// Removed report config IDs.
	var removedConfigIDs []string
	for _, node := range LocateSubtreeWithAttribute(tree, "name", "lte-rrc.reportConfigToRemoveList") {
		for _, id := range LocateSubtreeWithAttribute(node, "name", "lte-rrc.ReportConfigId") {
			removedConfigIDs = append(removedConfigIDs, id.SelectAttrValue("showname", ""))
		}
	}

	// New mappings from report config IDs to measurement IDs.
	var addedMeasureIDs, reportToMeasureIDs []string
	for _, node := range LocateSubtreeWithAttribute(tree, "name", "lte-rrc.MeasIdToAddMod_element") {
		configIDs := LocateSubtreeWithAttribute(node, "name", "lte-rrc.reportConfigId")
		if len(configIDs) != 1 {
			warning.WriteString(sizeUnexpectedWarning(
				timestamp, "vector containing lte-rrc.reportConfigId", len(configIDs), 1, 1, j))
			continue
		}
		measIDs := LocateSubtreeWithAttribute(node, "name", "lte-rrc.measId")
		if len(measIDs) != 1 {
			warning.WriteString(sizeUnexpectedWarning(
				timestamp, "vector containing lte-rrc.measId", len(measIDs), 1, 1, j))
			continue
		}
		addedMeasureIDs = append(addedMeasureIDs, measIDs[0].SelectAttrValue("showname", ""))
		reportToMeasureIDs = append(reportToMeasureIDs, configIDs[0].SelectAttrValue("showname", ""))
	}

	// Removed measurement IDs.
	var removedMeasureIDs []string
	for _, node := range LocateSubtreeWithAttribute(tree, "name", "lte-rrc.measIdToRemoveList") {
		for _, id := range LocateSubtreeWithAttribute(node, "name", "lte-rrc.MeasId") {
			removedMeasureIDs = append(removedMeasureIDs, id.SelectAttrValue("showname", ""))
		}
	}

	// Measurement reports and their triggering measurement IDs.
	var measurementReports []string
	for _, node := range LocateSubtreeWithAttribute(tree, "name", "lte-rrc.measResults_element") {
		for _, id := range LocateSubtreeWithAttribute(node, "name", "lte-rrc.measId") {
			measurementReports = append(measurementReports, id.SelectAttrValue("showname", ""))
		}
	}

	reestablishmentRequest := IsSubtreeWithAttributePresent(
		tree, "showname", "rrcConnectionReestablishmentRequest")
	reestablishmentComplete := IsSubtreeWithAttributePresent(
		tree, "showname", "rrcConnectionReestablishmentComplete")
	reestablishmentReject := IsSubtreeWithAttributePresent(
		tree, "showname", "rrcConnectionReestablishmentReject")

	var reestablishmentCause string
	for _, cause := range LocateSubtreeWithAttribute(tree, "name", "lte-rrc.reestablishmentCause") {
		if reestablishmentCause != "" {
			reestablishmentCause += ", "
		}
		reestablishmentCause += cause.SelectAttrValue("showname", "")
	}

	reconfiguration := false
	mobilityControlInfo := false
	var targetCells string
	for _, node := range LocateSubtreeWithAttribute(tree, "showname", "rrcConnectionReconfiguration") {
		reconfiguration = true
		if IsSubtreeWithAttributePresent(node, "showname", "mobilityControlInfo") {
			mobilityControlInfo = true
			break
		}
	}
	if mobilityControlInfo {
		for _, cell := range LocateSubtreeWithAttribute(tree, "name", "lte-rrc.targetPhysCellId") {
			if targetCells != "" {
				targetCells += ", "
			}
			targetCells += cell.SelectAttrValue("showname", "")
		}
	}

	reconfigurationComplete := IsSubtreeWithAttributePresent(
		tree, "showname", "rrcConnectionReconfigurationComplete")
	connectionRelease := IsSubtreeWithAttributePresent(tree, "showname", "rrcConnectionRelease")
	connectionRequest := IsSubtreeWithAttributePresent(tree, "showname", "rrcConnectionRequest")
	connectionSetup := IsSubtreeWithAttributePresent(tree, "showname", "rrcConnectionSetup")
	connectionReject := IsSubtreeWithAttributePresent(tree, "showname", "rrcConnectionReject")

	warningText := warning.String()
	sub.Submit(j.Seq, func() error {
		if warningText != "" {
			c.warnf("%s", warningText)
		}
		for _, id := range removedConfigIDs {
			if err := c.printf("%s $ reportConfigToRemoveList $ %s\n", timestamp, id); err != nil {
				return err
			}
		}
		for _, id := range removedMeasureIDs {
			if err := c.printf("%s $ measIdToRemoveList $ %s\n", timestamp, id); err != nil {
				return err
			}
		}
		for i := range addedConfigIDs {
			if err := c.printf("%s $ ReportConfigToAddMod $ %s, %s\n",
				timestamp, addedConfigIDs[i], addedEventTypes[i]); err != nil {
				return err
			}
		}
		for i := range addedMeasureIDs {
			if err := c.printf("%s $ MeasIdToAddMod $ %s, %s\n",
				timestamp, addedMeasureIDs[i], reportToMeasureIDs[i]); err != nil {
				return err
			}
		}
		for _, report := range measurementReports {
			if err := c.printf("%s $ measResults $ %s\n", timestamp, report); err != nil {
				return err
			}
		}
		if reestablishmentRequest {
			line := fmt.Sprintf("%s $ rrcConnectionReestablishmentRequest $ %s",
				timestamp, c.lastPDCPSuffix())
			if reestablishmentCause != "" {
				line += ", " + reestablishmentCause
			}
			if err := c.Out.WriteString(line + "\n"); err != nil {
				return err
			}
			c.Disruptions.Set(DisruptionReestablishmentRequest)
		}
		if reestablishmentComplete {
			if err := c.printf("%s $ rrcConnectionReestablishmentComplete $\n", timestamp); err != nil {
				return err
			}
			c.Disruptions.Set(DisruptionReestablishmentComplete)
		}
		if reestablishmentReject {
			if err := c.printf("%s $ rrcConnectionReestablishmentReject $\n", timestamp); err != nil {
				return err
			}
		}
		if reconfiguration {
			var mci string
			if mobilityControlInfo {
				mci = "1, " + targetCells
			} else {
				mci = "0"
			}
			if err := c.printf("%s $ rrcConnectionReconfiguration $ mobilityControlInfo: %s, %s\n",
				timestamp, mci, c.lastPDCPSuffix()); err != nil {
				return err
			}
			c.Disruptions.Set(DisruptionReconfiguration)
		}
		if reconfigurationComplete {
			if err := c.printf("%s $ rrcConnectionReconfigurationComplete $\n", timestamp); err != nil {
				return err
			}
			c.Disruptions.Set(DisruptionReconfigurationComplete)
		}
		if connectionRelease {
			if err := c.printf("%s $ rrcConnectionRelease $\n", timestamp); err != nil {
				return err
			}
		}
		if connectionRequest {
			if err := c.printf("%s $ rrcConnectionRequest $ %s\n",
				timestamp, c.lastPDCPSuffix()); err != nil {
				return err
			}
			c.Disruptions.Set(DisruptionConnectionRequest)
		}
		if connectionSetup {
			if err := c.printf("%s $ rrcConnectionSetup $\n", timestamp); err != nil {
				return err
			}
			c.Disruptions.Set(DisruptionConnectionSetup)
		}
		if connectionReject {
			if err := c.printf("%s $ rrcConnectionReject $\n", timestamp); err != nil {
				return err
			}
		}
		return nil
	})
	return nil
}

// extractRRCServCellInfoPacket prints the serving cell identity and
// frequency fields of an LTE_RRC_Serv_Cell_Info packet, warning about
// any that are missing.
func (c *Context) extractRRCServCellInfoPacket(tree *etree.Element, j *job.Job, sub Submitter) error {
	fields := map[string]string{
		"timestamp":          "",
		"Cell ID":            "",
		"Downlink frequency": "",
		"Uplink frequency":   "",
		"Downlink bandwidth": "",
		"Uplink bandwidth":   "",
		"Cell Identity":      "",
		"TAC":                "",
	}
	for _, pair := range tree.ChildElements() {
		if pair.Tag != "pair" {
			continue
		}
		key := pair.SelectAttrValue("key", "")
		if _, want := fields[key]; want {
			fields[key] = pair.Text()
		}
	}

	var missing []string
	for _, key := range []string{
		"timestamp", "Cell ID", "Downlink frequency", "Uplink frequency",
		"Downlink bandwidth", "Uplink bandwidth", "Cell Identity", "TAC",
	} {
		if fields[key] == "" {
			missing = append(missing, key)
		}
	}

	var warning string
	if len(missing) > 0 {
		warning = fmt.Sprintf(
			"Warning (packet timestamp = %s): \n"+
				"The following field in the rrc_serv_cell_info_packet is empty\n"+
				"%s, \nInput file %q at line %d-%d\n",
			fields["timestamp"], strings.Join(missing, ", "),
			j.SourceName, j.StartLine, j.EndLine)
	}

	sub.Submit(j.Seq, func() error {
		if warning != "" {
			c.warnf("%s", warning)
		}
		return c.printf("%s $ LTE_RRC_Serv_Cell_Info $ Cell ID: %s, "+
			"Downlink frequency: %s, Uplink frequency: %s, "+
			"Downlink bandwidth: %s, Uplink bandwidth: %s, "+
			"Cell Identity: %s, TAC: %s\n",
			fields["timestamp"], fields["Cell ID"],
			fields["Downlink frequency"], fields["Uplink frequency"],
			fields["Downlink bandwidth"], fields["Uplink bandwidth"],
			fields["Cell Identity"], fields["TAC"])
	})
	return nil
}

// sizeUnexpectedWarning formats the soft warning for a located node
// list whose size falls outside the expected bounds.
func sizeUnexpectedWarning(timestamp, what string, size, lo, hi int, j *job.Job) string {
	return fmt.Sprintf(
		"Warning (packet timestamp = %s): \n"+
			"%s has unexpected size %d\nExpected range: [%d,%d] (inclusive)."+
			"\nInput file %q at line %d-%d\n",
		timestamp, what, size, lo, hi, j.SourceName, j.StartLine, j.EndLine)
}
