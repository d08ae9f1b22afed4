// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package wire defines the typed records exchanged with the ground station
// and their datagram framing.
package wire

import (
	"errors"
	"fmt"
)

// Kind identifies the record carried by a Frame. Values follow the MAVLink
// message ids of the records they model.
type Kind uint16

const (
	KindHeartbeat         Kind = 0
	KindSysStatus         Kind = 1
	KindParamRequestRead  Kind = 20
	KindParamValue        Kind = 22
	KindParamSet          Kind = 23
	KindGPSRawInt         Kind = 24
	KindGlobalPositionInt Kind = 33
	KindMissionCount      Kind = 44
	KindMissionAck        Kind = 47
	KindCommandInt        Kind = 75
	KindCommandLong       Kind = 76
	KindCommandAck        Kind = 77
	KindFileTransfer      Kind = 110
	KindAutopilotVersion  Kind = 148
	KindLEDControl        Kind = 186
)

var kindNames = map[Kind]string{
	KindHeartbeat:         "heartbeat",
	KindSysStatus:         "sys_status",
	KindParamRequestRead:  "param_request_read",
	KindParamValue:        "param_value",
	KindParamSet:          "param_set",
	KindGPSRawInt:         "gps_raw_int",
	KindGlobalPositionInt: "global_position_int",
	KindMissionCount:      "mission_count",
	KindMissionAck:        "mission_ack",
	KindCommandInt:        "command_int",
	KindCommandLong:       "command_long",
	KindCommandAck:        "command_ack",
	KindFileTransfer:      "file_transfer",
	KindAutopilotVersion:  "autopilot_version",
	KindLEDControl:        "led_control",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind_%d", uint16(k))
}

// ErrMalformedFrame is returned for datagrams that are not a valid Frame.
var ErrMalformedFrame = errors.New("malformed frame")

// Frame is the datagram envelope. Target is the addressed drone for inbound
// frames and the sending drone for outbound ones.
type Frame struct {
	Kind    Kind       `cbor:"1,keyasint"`
	Target  uint8      `cbor:"2,keyasint"`
	Seq     uint8      `cbor:"3,keyasint,omitempty"`
	Payload RawMessage `cbor:"4,keyasint"`
}

// NewFrame encodes msg into a frame addressed to target.
func NewFrame(target uint8, msg Message) (Frame, error) {
	payload, err := marshal(msg)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s: %w", msg.Kind(), err)
	}
	return Frame{Kind: msg.Kind(), Target: target, Payload: payload}, nil
}

// Decode unpacks the payload into the record type matching Kind.
func (f Frame) Decode() (Message, error) {
	msg := newMessage(f.Kind)
	if msg == nil {
		return nil, fmt.Errorf("%w: unsupported kind %s", ErrMalformedFrame, f.Kind)
	}
	if err := unmarshal(f.Payload, msg); err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", ErrMalformedFrame, f.Kind, err)
	}
	return msg, nil
}

// Marshal encodes the frame into a datagram.
func Marshal(f Frame) ([]byte, error) {
	return marshal(f)
}

// Unmarshal decodes a datagram into a frame. The payload is not inspected.
func Unmarshal(data []byte) (Frame, error) {
	var f Frame
	if err := unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return f, nil
}
