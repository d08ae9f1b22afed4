// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package wire

import "strconv"

// FTPOpcode is a file transfer protocol operation.
type FTPOpcode uint8

const (
	FTPNone             FTPOpcode = 0
	FTPTerminateSession FTPOpcode = 1
	FTPResetSessions    FTPOpcode = 2
	FTPListDirectory    FTPOpcode = 3
	FTPOpenFileRO       FTPOpcode = 4
	FTPReadFile         FTPOpcode = 5
	FTPCreateFile       FTPOpcode = 6
	FTPWriteFile        FTPOpcode = 7
	FTPRemoveFile       FTPOpcode = 8
	FTPCalcFileCRC32    FTPOpcode = 14
	FTPAck              FTPOpcode = 128
	FTPNak              FTPOpcode = 129
)

func (o FTPOpcode) String() string {
	switch o {
	case FTPNone:
		return "none"
	case FTPTerminateSession:
		return "terminate_session"
	case FTPResetSessions:
		return "reset_sessions"
	case FTPListDirectory:
		return "list_directory"
	case FTPOpenFileRO:
		return "open_file_ro"
	case FTPReadFile:
		return "read_file"
	case FTPCreateFile:
		return "create_file"
	case FTPWriteFile:
		return "write_file"
	case FTPRemoveFile:
		return "remove_file"
	case FTPCalcFileCRC32:
		return "calc_file_crc32"
	case FTPAck:
		return "ack"
	case FTPNak:
		return "nak"
	default:
		return "ftp_" + strconv.Itoa(int(o))
	}
}

// FTPError is the first payload byte of a NAK.
type FTPError uint8

const (
	FTPErrNone            FTPError = 0
	FTPErrFail            FTPError = 1
	FTPErrInvalidDataSize FTPError = 3
	FTPErrUnknownCommand  FTPError = 7
)

// FileTransfer is one request or response of the file transfer protocol.
type FileTransfer struct {
	_         struct{} `cbor:",toarray"`
	Seq       uint16
	Session   uint8
	Opcode    FTPOpcode
	Size      uint8
	ReqOpcode FTPOpcode
	Offset    uint32
	Data      []byte
}

func (FileTransfer) Kind() Kind { return KindFileTransfer }
