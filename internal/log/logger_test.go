// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_Reconfigures(t *testing.T) {
	t.Cleanup(func() { Configure(Config{}) })

	var first, second bytes.Buffer
	Configure(Config{Output: &first, Service: "one", Level: "info"})
	WithComponent("fleet").Info().Msg("a")

	Configure(Config{Output: &second, Service: "two", Version: "v9", Level: "debug"})
	WithComponent("fleet").Debug().Msg("b")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(second.Bytes(), &entry))
	assert.Equal(t, "two", entry["service"])
	assert.Equal(t, "v9", entry["version"])
	assert.Equal(t, "fleet", entry[FieldComponent])
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	assert.Contains(t, first.String(), `"service":"one"`)
}

func TestDerive(t *testing.T) {
	t.Cleanup(func() { Configure(Config{}) })

	var buf bytes.Buffer
	Configure(Config{Output: &buf})
	l := Derive(func(c *zerolog.Context) { *c = c.Int(FieldDroneID, 12) })
	l.Info().Msg("x")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.EqualValues(t, 12, entry[FieldDroneID])
}

func TestSetLevel_AppliesToExistingLoggers(t *testing.T) {
	t.Cleanup(func() { Configure(Config{}) })

	var buf bytes.Buffer
	Configure(Config{Output: &buf, Level: "info"})
	l := WithComponent("fleet")
	l.Debug().Msg("hidden")
	require.Zero(t, buf.Len())

	require.NoError(t, SetLevel("debug"))
	l.Debug().Msg("shown")
	assert.Contains(t, buf.String(), `"message":"shown"`)

	assert.Error(t, SetLevel("loud"))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}
