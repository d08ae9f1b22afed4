// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseBool(t *testing.T) {
	tests := []struct {
		raw  string
		def  bool
		want bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"yes", false, true},
		{"ON", false, true},
		{"false", true, false},
		{"off", true, false},
		{"", true, true},
		{"maybe", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv("DRONESIM_TEST_BOOL", tt.raw)
			assert.Equal(t, tt.want, ParseBool("DRONESIM_TEST_BOOL", tt.def))
		})
	}
}

func TestParseDuration(t *testing.T) {
	t.Setenv("DRONESIM_TEST_DUR", "150ms")
	assert.Equal(t, 150*time.Millisecond, ParseDuration("DRONESIM_TEST_DUR", time.Second))

	t.Setenv("DRONESIM_TEST_DUR", "150")
	assert.Equal(t, time.Second, ParseDuration("DRONESIM_TEST_DUR", time.Second))
}

func TestParseStringAndInt(t *testing.T) {
	assert.Equal(t, "fallback", ParseString("DRONESIM_TEST_UNSET", "fallback"))

	t.Setenv("DRONESIM_TEST_STR", "  value ")
	assert.Equal(t, "value", ParseString("DRONESIM_TEST_STR", "fallback"))

	t.Setenv("DRONESIM_TEST_INT", "12")
	assert.Equal(t, 12, ParseInt("DRONESIM_TEST_INT", 3))
}
