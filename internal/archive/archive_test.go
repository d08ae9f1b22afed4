// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package archive

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shows")
	store, err := NewStore(dir, zerolog.New(io.Discard))
	require.NoError(t, err)

	require.NoError(t, store.Save(12, []byte("first")))
	require.NoError(t, store.Save(12, []byte("second")))

	got, err := store.Load(12)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
	assert.Equal(t, filepath.Join(dir, "drone-012.bin"), store.Path(12))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestStore_LoadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir(), zerolog.New(io.Discard))
	require.NoError(t, err)

	_, err = store.Load(1)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
