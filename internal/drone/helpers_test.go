// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package drone

import (
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/dronesim/internal/showfile"
	"github.com/ManuGH/dronesim/internal/wire"
)

var testNow = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()
	opts.Logger = zerolog.New(io.Discard)
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	s, err := NewSession(7, opts)
	require.NoError(t, err)
	return s
}

// walkShow is eight one-second segments moving one metre along X each, lit
// red for the first second.
func walkShow(t *testing.T) []byte {
	t.Helper()
	traj := showfile.NewTrajectoryEncoder(100, 0, 0, 0, 0)
	linearX := [4]showfile.BezierOrder{showfile.OrderLinear}
	for i := 1; i <= 8; i++ {
		traj.Segment(1000, linearX, [4][]int16{{int16(i * 10)}, nil, nil, nil})
	}
	light := showfile.NewLightEncoder().SetColor(showfile.Color{R: 255}, 50).SetBlack(350)
	data, err := showfile.NewBuilder().
		Block(showfile.BlockTrajectory, traj.Body()).
		Block(showfile.BlockLightProgram, light.Body()).
		Bytes()
	require.NoError(t, err)
	return data
}

// upload pushes data through the file transfer handler in chunks.
func upload(t *testing.T, s *Session, data []byte, chunk int) {
	t.Helper()
	reply := s.HandleFileTransfer(wire.FileTransfer{Seq: 0, Opcode: wire.FTPCreateFile})
	require.Equal(t, wire.FTPAck, reply.Opcode)
	for off := 0; off < len(data); off += chunk {
		end := min(off+chunk, len(data))
		reply = s.HandleFileTransfer(wire.FileTransfer{
			Opcode: wire.FTPWriteFile,
			Offset: uint32(off),
			Size:   uint8(end - off),
			Data:   data[off:end],
		})
		require.Equal(t, wire.FTPAck, reply.Opcode)
	}
}
