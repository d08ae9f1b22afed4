// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package transport

import (
	"sync"

	"github.com/ManuGH/dronesim/internal/wire"
)

// Pipe is an in-memory Transport. The ground station side injects frames
// with Deliver and reads replies from Sent.
type Pipe struct {
	in  chan wire.Frame
	out chan wire.Frame

	closeOnce sync.Once
	done      chan struct{}
}

// NewPipe returns a pipe buffering up to capacity frames in each direction.
func NewPipe(capacity int) *Pipe {
	return &Pipe{
		in:   make(chan wire.Frame, capacity),
		out:  make(chan wire.Frame, capacity),
		done: make(chan struct{}),
	}
}

// Deliver queues an inbound frame as if it had arrived from the peer.
func (p *Pipe) Deliver(f wire.Frame) {
	p.in <- f
}

// Sent returns the stream of outbound frames.
func (p *Pipe) Sent() <-chan wire.Frame {
	return p.out
}

// Poll implements Transport.
func (p *Pipe) Poll() (wire.Frame, bool, error) {
	select {
	case <-p.done:
		return wire.Frame{}, false, ErrClosed
	default:
	}
	select {
	case f := <-p.in:
		return f, true, nil
	default:
		return wire.Frame{}, false, nil
	}
}

// Send implements Transport. Frames are dropped when the buffer is full.
func (p *Pipe) Send(f wire.Frame) error {
	select {
	case <-p.done:
		return ErrClosed
	default:
	}
	select {
	case p.out <- f:
		return nil
	default:
		return ErrBackpressure
	}
}

// Close implements Transport.
func (p *Pipe) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}
