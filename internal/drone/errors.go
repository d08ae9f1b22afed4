// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package drone

import "errors"

var (
	// ErrInvalidUID is returned for identities outside 1..254.
	ErrInvalidUID = errors.New("drone uid must be between 1 and 254")

	// ErrTransferTooLarge is returned when a write would grow the transfer
	// buffer past MaxTransferSize.
	ErrTransferTooLarge = errors.New("transfer exceeds maximum show size")
)
