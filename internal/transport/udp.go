// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package transport

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/dronesim/internal/wire"
)

const maxDatagram = 64 << 10

// UDPConfig configures a UDP transport.
type UDPConfig struct {
	ListenAddr string
	// PeerAddr is optional; without it replies go to the last sender.
	PeerAddr    string
	PollTimeout time.Duration
	Logger      zerolog.Logger
}

// UDP is a Transport over a single UDP socket.
type UDP struct {
	conn        *net.UDPConn
	peer        atomic.Pointer[net.UDPAddr]
	fixedPeer   bool
	pollTimeout time.Duration
	buf         []byte
	logger      zerolog.Logger
}

// ListenUDP opens the socket described by cfg.
func ListenUDP(cfg UDPConfig) (*UDP, error) {
	laddr, err := net.ResolveUDPAddr("udp", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve listen address %q: %w", cfg.ListenAddr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen %q: %w", cfg.ListenAddr, err)
	}

	u := &UDP{
		conn:        conn,
		pollTimeout: cfg.PollTimeout,
		buf:         make([]byte, maxDatagram),
		logger:      cfg.Logger,
	}
	if u.pollTimeout <= 0 {
		u.pollTimeout = time.Millisecond
	}
	if cfg.PeerAddr != "" {
		peer, err := net.ResolveUDPAddr("udp", cfg.PeerAddr)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("resolve peer address %q: %w", cfg.PeerAddr, err)
		}
		u.peer.Store(peer)
		u.fixedPeer = true
	}
	return u, nil
}

// LocalAddr returns the bound socket address.
func (u *UDP) LocalAddr() *net.UDPAddr {
	addr, _ := u.conn.LocalAddr().(*net.UDPAddr)
	return addr
}

// Poll reads at most one datagram. Only the receive loop may call it.
func (u *UDP) Poll() (wire.Frame, bool, error) {
	if err := u.conn.SetReadDeadline(time.Now().Add(u.pollTimeout)); err != nil {
		return wire.Frame{}, false, u.mapErr(err)
	}
	n, addr, err := u.conn.ReadFromUDP(u.buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return wire.Frame{}, false, nil
		}
		return wire.Frame{}, false, u.mapErr(err)
	}

	if !u.fixedPeer {
		if prev := u.peer.Swap(addr); prev == nil || prev.String() != addr.String() {
			u.logger.Info().
				Str("event", "transport.peer_learned").
				Str("peer", addr.String()).
				Msg("ground station address learned")
		}
	}

	frame, err := wire.Unmarshal(u.buf[:n])
	if err != nil {
		return wire.Frame{}, false, err
	}
	return frame, true, nil
}

// Send writes one datagram to the peer.
func (u *UDP) Send(frame wire.Frame) error {
	peer := u.peer.Load()
	if peer == nil {
		return ErrNoPeer
	}
	data, err := wire.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := u.conn.WriteToUDP(data, peer); err != nil {
		return u.mapErr(err)
	}
	return nil
}

// Close releases the socket.
func (u *UDP) Close() error {
	return u.conn.Close()
}

func (u *UDP) mapErr(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return ErrClosed
	}
	return err
}
