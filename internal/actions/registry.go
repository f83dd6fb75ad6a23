package actions

import (
	"github.com/beevik/etree"

	"github.com/dmlogsplit/dmlogsplit/internal/config"
	"github.com/dmlogsplit/dmlogsplit/internal/job"
	"github.com/dmlogsplit/dmlogsplit/internal/logging"
)

// typePredicate returns a predicate matching one packet type.
func typePredicate(typeID string) Predicate {
	return func(tree *etree.Element, _ *job.Job) bool {
		return IsPacketHavingType(tree, typeID)
	}
}

// Build assembles the action pipeline for the configured mode.
//
// Extract mode gets one (predicate, action) pair per enabled extractor
// name, scanned first-match-wins, plus an always-true no-op tail so
// every job still yields exactly one ordered task. The tail is elided
// when the last configured pair is itself unconditional. The filter
// modes are a single unconditional pair each.
func Build(cfg *config.Config, ctx *Context) (Pipeline, error) {
	switch cfg.Mode {
	case config.ModeExtract:
		return buildExtract(cfg.ExtractActions, ctx), nil
	case config.ModeRange:
		ranges, err := LoadRanges(cfg.RangePath)
		if err != nil {
			return nil, err
		}
		ctx.Ranges = ranges
		return Pipeline{{Action: ctx.action(ctx.echoPacketWithinTimeRange)}}, nil
	case config.ModeDedup:
		return Pipeline{{Action: ctx.action(ctx.echoPacketIfNew)}}, nil
	case config.ModeReorder:
		return Pipeline{{Action: ctx.action(ctx.updateReorderWindow)}}, nil
	case config.ModeTypeFilter:
		ctx.TypeRegex = cfg.TypeRegex
		return Pipeline{{Action: ctx.action(ctx.echoPacketIfTypeMatch)}}, nil
	default:
		return nil, nil
	}
}

// action adapts a Context method to the Action signature.
func (c *Context) action(f func(*etree.Element, *job.Job, Submitter) error) Action {
	return func(tree *etree.Element, j *job.Job, sub Submitter) error {
		return f(tree, j, sub)
	}
}

func buildExtract(names []string, ctx *Context) Pipeline {
	log := logging.Component("actions")
	var p Pipeline

	for _, name := range names {
		var ca ConditionalAction
		switch name {
		case "rrc_ota":
			ca = ConditionalAction{
				Predicate: typePredicate("LTE_RRC_OTA_Packet"),
				Action:    ctx.action(ctx.extractRRCOTAPacket),
			}
		case "rrc_serv_cell_info":
			ca = ConditionalAction{
				Predicate: typePredicate("LTE_RRC_Serv_Cell_Info"),
				Action:    ctx.action(ctx.extractRRCServCellInfoPacket),
			}
		case "pdcp_cipher_data_pdu":
			ca = ConditionalAction{
				Predicate: isPDCPCipherDataPDU,
				Action:    ctx.action(ctx.extractPDCPCipherDataPDUPacket),
			}
		case "action_pdcp_cipher_data_pdu":
			ca = ConditionalAction{
				Predicate: isPDCPCipherDataPDU,
				Action:    ctx.action(ctx.updatePDCPCipherDataPDUTimestamp),
			}
		case "nas_emm_ota_incoming":
			ca = ConditionalAction{
				Predicate: typePredicate("LTE_NAS_EMM_OTA_Incoming_Packet"),
				Action:    ctx.action(ctx.extractNASEMMOTAIncomingPacket),
			}
		case "nas_emm_ota_outgoing":
			ca = ConditionalAction{
				Predicate: typePredicate("LTE_NAS_EMM_OTA_Outgoing_Packet"),
				Action:    ctx.action(ctx.extractNASEMMOTAOutgoingPacket),
			}
		case "mac_rach_attempt":
			ca = ConditionalAction{
				Predicate: typePredicate("LTE_MAC_Rach_Attempt"),
				Action:    ctx.action(ctx.extractMACRachAttemptPacket),
			}
		case "mac_rach_trigger":
			ca = ConditionalAction{
				Predicate: typePredicate("LTE_MAC_Rach_Trigger"),
				Action:    ctx.action(ctx.extractMACRachTriggerPacket),
			}
		case "phy_pdsch":
			ca = ConditionalAction{
				Predicate: typePredicate("LTE_PHY_PDSCH_Packet"),
				Action:    ctx.action(ctx.extractPHYPDSCHPacket),
			}
		case "phy_pdsch_stat":
			ca = ConditionalAction{
				Predicate: typePredicate("LTE_PHY_PDSCH_Stat_Indication"),
				Action:    ctx.action(ctx.extractPHYPDSCHStatPacket),
			}
		case "phy_serv_cell_meas":
			ca = ConditionalAction{
				Predicate: typePredicate("LTE_PHY_Serv_Cell_Measurement"),
				Action:    ctx.action(ctx.extractPHYServCellMeasurement),
			}
		case "rlc_dl_am_all_pdu":
			ca = ConditionalAction{
				Predicate: typePredicate("LTE_RLC_DL_AM_All_PDU"),
				Action: func(tree *etree.Element, j *job.Job, sub Submitter) error {
					return ctx.extractRLCAMAllPDU(tree, j, sub, false)
				},
			}
		case "rlc_ul_am_all_pdu":
			ca = ConditionalAction{
				Predicate: typePredicate("LTE_RLC_UL_AM_All_PDU"),
				Action: func(tree *etree.Element, j *job.Job, sub Submitter) error {
					return ctx.extractRLCAMAllPDU(tree, j, sub, true)
				},
			}
		case "rlc_dl_config_log":
			ca = ConditionalAction{
				Predicate: typePredicate("LTE_RLC_DL_Config_Log_Packet"),
				Action: func(tree *etree.Element, j *job.Job, sub Submitter) error {
					return ctx.extractRLCConfigLog(tree, j, sub, "LTE_RLC_DL_Config_Log_Packet")
				},
			}
		case "rlc_ul_config_log":
			ca = ConditionalAction{
				Predicate: typePredicate("LTE_RLC_UL_Config_Log_Packet"),
				Action: func(tree *etree.Element, j *job.Job, sub Submitter) error {
					return ctx.extractRLCConfigLog(tree, j, sub, "LTE_RLC_UL_Config_Log_Packet")
				},
			}
		case "all_packet_type":
			ca = ConditionalAction{
				Action: ctx.action(ctx.extractPacketType),
			}
		default:
			log.Warn("encountered unknown extractor", "name", name)
			continue
		}
		log.Info("extractor enabled", "name", name)
		p = append(p, ca)
	}

	// Every job must yield an ordered task even when nothing matches.
	if len(p) == 0 || p[len(p)-1].Predicate != nil {
		p = append(p, nopTail())
	}
	return p
}
