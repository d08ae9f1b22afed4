// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package transport moves wire frames between the fleet and the ground
// station.
package transport

import (
	"errors"

	"github.com/ManuGH/dronesim/internal/wire"
)

var (
	// ErrClosed is returned once the transport has been closed.
	ErrClosed = errors.New("transport closed")

	// ErrNoPeer is returned by Send before any peer address is known.
	ErrNoPeer = errors.New("no peer address known")

	// ErrBackpressure is returned when an outbound frame cannot be queued.
	ErrBackpressure = errors.New("outbound queue full")
)

// Transport is a datagram endpoint shared by the whole fleet.
//
// Poll never blocks for longer than the implementation's poll timeout. It
// returns ok=false when no frame is available. A non-nil error other than
// ErrClosed concerns a single datagram and the caller may keep polling.
//
// Send is fire-and-forget; nothing is retried or queued beyond the socket.
type Transport interface {
	Poll() (frame wire.Frame, ok bool, err error)
	Send(frame wire.Frame) error
	Close() error
}
