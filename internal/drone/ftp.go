// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package drone

import (
	"encoding/binary"

	"github.com/ManuGH/dronesim/internal/wire"
)

// HandleFileTransfer applies one file transfer request to the upload buffer
// and returns the reply to send back.
func (s *Session) HandleFileTransfer(req wire.FileTransfer) wire.FileTransfer {
	reply := wire.FileTransfer{
		Seq:       req.Seq + 1,
		Session:   req.Session,
		Opcode:    wire.FTPAck,
		ReqOpcode: req.Opcode,
	}

	switch req.Opcode {
	case wire.FTPCreateFile:
		s.mu.Lock()
		s.transfer.reset()
		s.mu.Unlock()

	case wire.FTPWriteFile:
		size := int(req.Size)
		if size > len(req.Data) {
			return nak(reply, wire.FTPErrInvalidDataSize)
		}
		s.mu.Lock()
		err := s.transfer.writeAt(req.Offset, req.Data[:size])
		s.mu.Unlock()
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("event", "ftp.write_rejected").
				Uint32("offset", req.Offset).
				Int("size", size).
				Msg("file transfer write rejected")
			return nak(reply, wire.FTPErrFail)
		}

	case wire.FTPCalcFileCRC32:
		s.mu.RLock()
		crc := CRC32(s.transfer.bytes())
		s.mu.RUnlock()
		reply.Data = binary.LittleEndian.AppendUint32(nil, crc)
		reply.Size = uint8(len(reply.Data))

	case wire.FTPTerminateSession, wire.FTPResetSessions:

	default:
		s.logger.Debug().
			Str("event", "ftp.unsupported_opcode").
			Stringer("opcode", req.Opcode).
			Msg("unsupported file transfer opcode")
		return nak(reply, wire.FTPErrUnknownCommand)
	}
	return reply
}

func nak(reply wire.FileTransfer, code wire.FTPError) wire.FileTransfer {
	reply.Opcode = wire.FTPNak
	reply.Data = []byte{byte(code)}
	reply.Size = 1
	return reply
}
