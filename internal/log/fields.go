// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRunID     = "run_id"
	FieldRequestID = "request_id"
	FieldDroneID   = "drone_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Protocol fields
	FieldKind    = "kind"
	FieldCommand = "command"
	FieldOpcode  = "opcode"
	FieldSeq     = "seq"

	// Network fields
	FieldListenAddr = "listen_addr"
	FieldPeer       = "peer"
)
