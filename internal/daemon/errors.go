// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import "errors"

var (
	// ErrMissingFleet is returned when an app is run without a fleet.
	ErrMissingFleet = errors.New("fleet is required")

	// ErrMissingTransport is returned when an app is run without a transport.
	ErrMissingTransport = errors.New("transport is required")
)
