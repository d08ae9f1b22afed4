// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fleet

import (
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/dronesim/internal/showfile"
	"github.com/ManuGH/dronesim/internal/transport"
	"github.com/ManuGH/dronesim/internal/wire"
)

var testNow = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

func newTestFleet(t *testing.T, cfg Config, archive Archive) (*Coordinator, *transport.Pipe) {
	t.Helper()
	pipe := transport.NewPipe(1024)
	c, err := New(cfg, pipe, archive,
		WithClock(func() time.Time { return testNow }),
		WithLogger(zerolog.New(io.Discard)),
	)
	require.NoError(t, err)
	return c, pipe
}

func frameFor(t *testing.T, target uint8, msg wire.Message) wire.Frame {
	t.Helper()
	f, err := wire.NewFrame(target, msg)
	require.NoError(t, err)
	return f
}

// sent returns every frame queued on the pipe so far, decoded.
func sent(t *testing.T, pipe *transport.Pipe) []wire.Message {
	t.Helper()
	var out []wire.Message
	for {
		select {
		case f := <-pipe.Sent():
			msg, err := f.Decode()
			require.NoError(t, err)
			out = append(out, msg)
		default:
			return out
		}
	}
}

// hoverShow holds one metre above the start for ten seconds, lit blue, with
// one pyro charge on channel 2 between 2 s and 3 s.
func hoverShow(t *testing.T) []byte {
	t.Helper()
	traj := showfile.NewTrajectoryEncoder(100, 0, 0, 10, 0).
		Segment(10000, [4]showfile.BezierOrder{}, [4][]int16{})
	light := showfile.NewLightEncoder().SetColor(showfile.Color{B: 255}, 500)
	pyro := showfile.NewEventListEncoder().Fire(2000, 1000, 2, 300, -20, 0)
	data, err := showfile.NewBuilder().
		Block(showfile.BlockTrajectory, traj.Body()).
		Block(showfile.BlockLightProgram, light.Body()).
		Block(showfile.BlockEventList, pyro.Body()).
		Bytes()
	require.NoError(t, err)
	return data
}

// uploadFrames pushes data to uid through file transfer frames.
func uploadFrames(t *testing.T, c *Coordinator, uid uint8, data []byte) {
	t.Helper()
	c.Dispatch(frameFor(t, uid, &wire.FileTransfer{Opcode: wire.FTPCreateFile}), testNow)
	for off := 0; off < len(data); off += 200 {
		end := min(off+200, len(data))
		c.Dispatch(frameFor(t, uid, &wire.FileTransfer{
			Opcode: wire.FTPWriteFile,
			Offset: uint32(off),
			Size:   uint8(end - off),
			Data:   data[off:end],
		}), testNow)
	}
}

func reloadCommand() *wire.CommandLong {
	return &wire.CommandLong{Command: wire.CmdShowLifecycle, Params: [7]float32{float32(wire.ShowReload)}}
}

var errNotArchived = fmt.Errorf("memory archive: %w", os.ErrNotExist)

type memArchive struct {
	shows map[uint8][]byte
	saved map[uint8][]byte
}

func (m *memArchive) Save(uid uint8, data []byte) error {
	if m.saved == nil {
		m.saved = make(map[uint8][]byte)
	}
	m.saved[uid] = data
	return nil
}

func (m *memArchive) Load(uid uint8) ([]byte, error) {
	data, ok := m.shows[uid]
	if !ok {
		return nil, errNotArchived
	}
	return data, nil
}

// walkShow moves one metre per second for eight seconds.
func walkShow(t *testing.T) []byte {
	t.Helper()
	traj := showfile.NewTrajectoryEncoder(100, 0, 0, 0, 0)
	linear := [4]showfile.BezierOrder{showfile.OrderLinear}
	for i := 1; i <= 8; i++ {
		traj.Segment(1000, linear, [4][]int16{{int16(i * 10)}, nil, nil, nil})
	}
	data, err := showfile.NewBuilder().Block(showfile.BlockTrajectory, traj.Body()).Bytes()
	require.NoError(t, err)
	return data
}
