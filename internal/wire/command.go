// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package wire

import "strconv"

// CommandID identifies a generic command.
type CommandID uint16

const (
	CmdSetShowOrigin           CommandID = 179
	CmdSetMessageInterval      CommandID = 511
	CmdRequestAutopilotVersion CommandID = 520
	CmdShowLifecycle           CommandID = 31010
)

func (c CommandID) String() string {
	switch c {
	case CmdSetShowOrigin:
		return "set_show_origin"
	case CmdSetMessageInterval:
		return "set_message_interval"
	case CmdRequestAutopilotVersion:
		return "request_autopilot_capabilities"
	case CmdShowLifecycle:
		return "show_lifecycle"
	default:
		return "command_" + strconv.Itoa(int(c))
	}
}

// CommandResult is carried by CommandAck.
type CommandResult uint8

const (
	ResultAccepted          CommandResult = 0
	ResultTemporarilyDenied CommandResult = 1
	ResultDenied            CommandResult = 2
	ResultUnsupported       CommandResult = 3
	ResultFailed            CommandResult = 4
)

// Protocol capability bits advertised in AutopilotVersion.
const (
	CapMissionFloat uint64 = 1 << 0
	CapParamFloat   uint64 = 1 << 1
	CapMissionInt   uint64 = 1 << 2
	CapCommandInt   uint64 = 1 << 3
	CapParamUnion   uint64 = 1 << 4
	CapFTP          uint64 = 1 << 5
	CapMissionFence uint64 = 1 << 14
	CapMAVLink2     uint64 = 1 << 13
)

// ShowLifecycle sub-codes carried in the first command parameter.
const (
	ShowReload uint8 = 0
)
