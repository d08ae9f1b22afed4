// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fleet

import (
	"errors"
	"time"

	"github.com/ManuGH/dronesim/internal/drone"
	xglog "github.com/ManuGH/dronesim/internal/log"
	"github.com/ManuGH/dronesim/internal/metrics"
	"github.com/ManuGH/dronesim/internal/transport"
	"github.com/ManuGH/dronesim/internal/wire"
)

// Capabilities is the protocol capability bitmask every drone advertises.
const Capabilities = wire.CapMAVLink2 | wire.CapParamFloat | wire.CapCommandInt | wire.CapMissionFence | wire.CapFTP

// FlightSoftwareVersion is reported in AutopilotVersion replies (major.minor.patch.type).
const FlightSoftwareVersion uint32 = 0x010000ff

// paramIndexUnknown marks a ParamValue that was not requested by index.
const paramIndexUnknown = 0xffff

// Dispatch routes one inbound frame to the addressed session. Frames for
// unknown drones and undecodable payloads are logged and dropped.
func (c *Coordinator) Dispatch(frame wire.Frame, now time.Time) {
	s, ok := c.sessions[frame.Target]
	if !ok {
		metrics.IncFrameIgnored("unknown_target")
		c.unknownTarget.Do(func() {
			c.logger.Warn().
				Str("event", "fleet.unknown_target").
				Int(xglog.FieldDroneID, int(frame.Target)).
				Stringer(xglog.FieldKind, frame.Kind).
				Msg("frame addressed to unknown drone ignored")
		})
		return
	}

	msg, err := frame.Decode()
	if err != nil {
		metrics.IncFrameIgnored("malformed_payload")
		c.logger.Debug().
			Err(err).
			Str("event", "fleet.decode_failed").
			Int(xglog.FieldDroneID, int(frame.Target)).
			Msg("frame payload ignored")
		return
	}
	metrics.IncFrameReceived(frame.Kind.String())

	switch m := msg.(type) {
	case *wire.CommandLong:
		c.handleCommand(s, m.Command, m.Params[:], nil)
	case *wire.CommandInt:
		c.handleCommand(s, m.Command, m.Params[:], m)
	case *wire.ParamRequestRead:
		c.handleParamRead(s, m)
	case *wire.ParamSet:
		c.handleParamSet(s, m)
	case *wire.MissionCount:
		c.handleMissionCount(s, m)
	case *wire.FileTransfer:
		c.handleFileTransfer(s, m)
	case *wire.LEDControl:
		s.Identify(now)
		c.logger.Debug().
			Str("event", "drone.identify").
			Int(xglog.FieldDroneID, int(s.UID())).
			Msg("identify window opened")
	default:
		metrics.IncFrameIgnored("unhandled_kind")
		c.logger.Debug().
			Str("event", "fleet.unhandled_kind").
			Stringer(xglog.FieldKind, frame.Kind).
			Msg("inbound frame kind not handled")
	}
}

// handleCommand serves the long and int command forms. intForm is nil for
// CommandLong. Unhandled commands are not acknowledged.
func (c *Coordinator) handleCommand(s *drone.Session, id wire.CommandID, params []float32, intForm *wire.CommandInt) {
	result := wire.ResultAccepted

	switch id {
	case wire.CmdRequestAutopilotVersion:
		c.send(s.UID(), &wire.AutopilotVersion{
			Capabilities:    Capabilities,
			FlightSWVersion: FlightSoftwareVersion,
			UID:             uint64(s.UID()),
		})

	case wire.CmdSetMessageInterval:
		// Interval requests are acknowledged but the cadences stay fixed.

	case wire.CmdShowLifecycle:
		if len(params) > 0 && uint8(params[0]) == wire.ShowReload {
			err := s.ReloadShow()
			metrics.IncShowReload(err == nil)
			metrics.SetDronesWithShow(c.loadedCount())
			if err != nil {
				result = wire.ResultFailed
			}
		}

	case wire.CmdSetShowOrigin:
		if intForm == nil {
			c.unhandledCommand(s, id)
			return
		}
		s.SetOrigin(drone.Origin{
			Lat: float64(intForm.X) / 1e7,
			Lon: float64(intForm.Y) / 1e7,
			Alt: float64(intForm.Z),
		})

	default:
		c.unhandledCommand(s, id)
		return
	}

	c.send(s.UID(), &wire.CommandAck{Command: id, Result: result})
}

func (c *Coordinator) unhandledCommand(s *drone.Session, id wire.CommandID) {
	metrics.IncFrameIgnored("unhandled_command")
	c.logger.Debug().
		Str("event", "fleet.unhandled_command").
		Int(xglog.FieldDroneID, int(s.UID())).
		Stringer(xglog.FieldCommand, id).
		Msg("command not handled")
}

func (c *Coordinator) handleParamRead(s *drone.Session, m *wire.ParamRequestRead) {
	value, _ := s.Parameter(m.Name)
	c.send(s.UID(), &wire.ParamValue{
		Name:  m.Name,
		Value: value,
		Count: uint16(s.ParameterCount()),
		Index: paramIndexUnknown,
	})
}

func (c *Coordinator) handleParamSet(s *drone.Session, m *wire.ParamSet) {
	s.SetParameter(m.Name, m.Value)
	value, _ := s.Parameter(m.Name)
	c.send(s.UID(), &wire.ParamValue{
		Name:  m.Name,
		Value: value,
		Count: uint16(s.ParameterCount()),
		Index: paramIndexUnknown,
	})
}

// handleMissionCount acknowledges every proposal; mission items are never requested.
func (c *Coordinator) handleMissionCount(s *drone.Session, m *wire.MissionCount) {
	if m.MissionType != wire.MissionTypeFence {
		c.logger.Info().
			Str("event", "fleet.mission_ignored").
			Int(xglog.FieldDroneID, int(s.UID())).
			Stringer("mission_type", m.MissionType).
			Uint16("count", m.Count).
			Msg("non-fence mission acknowledged without upload")
	}
	c.send(s.UID(), &wire.MissionAck{MissionType: m.MissionType, Result: wire.MissionAccepted})
}

func (c *Coordinator) handleFileTransfer(s *drone.Session, m *wire.FileTransfer) {
	reply := s.HandleFileTransfer(*m)
	if m.Opcode == wire.FTPWriteFile && reply.Opcode == wire.FTPAck {
		metrics.AddTransferBytes(int(m.Size))
	}
	c.send(s.UID(), &reply)
}

// send frames msg from uid and hands it to the transport. Failures are
// counted and logged but never retried.
func (c *Coordinator) send(uid uint8, msg wire.Message) {
	frame, err := wire.NewFrame(uid, msg)
	if err == nil {
		frame.Seq = uint8(c.seq.Add(1))
		err = c.transport.Send(frame)
	}
	metrics.IncFrameSent(msg.Kind().String(), err)
	if err == nil || errors.Is(err, transport.ErrNoPeer) {
		return
	}
	c.sendFailure.Do(func() {
		c.logger.Warn().
			Err(err).
			Str("event", "fleet.send_failed").
			Int(xglog.FieldDroneID, int(uid)).
			Stringer(xglog.FieldKind, msg.Kind()).
			Msg("outbound frame dropped")
	})
}
