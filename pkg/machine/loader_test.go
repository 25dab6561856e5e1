// Copyright (C) 2026  Thiago Silva

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package machine_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiago-ssilva/lc3-vm/pkg/machine"
)

func TestLoadBin(t *testing.T) {
	assert := assert.New(t)

	var mc machine.Machine
	mc.State.Reset()

	image := []byte{0x30, 0x00, 0x12, 0x34, 0xAB, 0xCD}

	require.NoError(t, mc.LoadBin(bytes.NewReader(image)))

	assert.Equal(uint16(0x1234), mc.State.Memory[0x3000])
	assert.Equal(uint16(0xABCD), mc.State.Memory[0x3001])
	assert.Equal(uint16(0x0000), mc.State.Memory[0x3002])
	assert.Equal(uint16(0x0000), mc.State.Memory[0x2FFF])
}

func TestLoadBinOriginOnly(t *testing.T) {
	var mc machine.Machine
	mc.State.Reset()

	require.NoError(t, mc.LoadBin(bytes.NewReader([]byte{0x30, 0x00})))

	for _, word := range mc.State.Memory {
		assert.Equal(t, uint16(0), word)
	}
}

func TestLoadBinEmpty(t *testing.T) {
	var mc machine.Machine
	mc.State.Reset()

	err := mc.LoadBin(bytes.NewReader(nil))

	require.ErrorIs(t, err, machine.ErrMissingOrigin)
}

func TestLoadBinTruncated(t *testing.T) {
	var mc machine.Machine
	mc.State.Reset()

	err := mc.LoadBin(bytes.NewReader([]byte{0x30, 0x00, 0x12, 0x34, 0x56}))

	require.ErrorIs(t, err, machine.ErrTruncatedImage)

	// A malformed image loads nothing, not a prefix
	assert.Equal(t, uint16(0), mc.State.Memory[0x3000])
}

// An image whose data runs past the top of memory wraps to address zero.
func TestLoadBinWraparound(t *testing.T) {
	assert := assert.New(t)

	var mc machine.Machine
	mc.State.Reset()

	image := []byte{0xFF, 0xFF, 0xAA, 0xAA, 0xBB, 0xBB}

	require.NoError(t, mc.LoadBin(bytes.NewReader(image)))

	assert.Equal(uint16(0xAAAA), mc.State.Memory[0xFFFF])
	assert.Equal(uint16(0xBBBB), mc.State.Memory[0x0000])
}

func TestLoadBinTruncatedOrigin(t *testing.T) {
	var mc machine.Machine
	mc.State.Reset()

	err := mc.LoadBin(bytes.NewReader([]byte{0x30}))

	require.ErrorIs(t, err, machine.ErrMissingOrigin)
}

// Overlapping images resolve by last write wins, never an error.
func TestLoadBinOverlap(t *testing.T) {
	assert := assert.New(t)

	var mc machine.Machine
	mc.State.Reset()

	first := []byte{0x30, 0x00, 0x11, 0x11, 0x22, 0x22}
	second := []byte{0x30, 0x01, 0x33, 0x33}

	require.NoError(t, mc.LoadBin(bytes.NewReader(first)))
	require.NoError(t, mc.LoadBin(bytes.NewReader(second)))

	assert.Equal(uint16(0x1111), mc.State.Memory[0x3000])
	assert.Equal(uint16(0x3333), mc.State.Memory[0x3001])
}

// Loading past the top of memory wraps to address zero.
func TestLoadImageWraparound(t *testing.T) {
	assert := assert.New(t)

	var mem machine.Memory

	mem.LoadImage(0xFFFF, []uint16{0xAAAA, 0xBBBB})

	assert.Equal(uint16(0xAAAA), mem.Read(0xFFFF))
	assert.Equal(uint16(0xBBBB), mem.Read(0x0000))
}

func TestMemoryReadWrite(t *testing.T) {
	var mem machine.Memory

	mem.Write(0x1234, 0xBEEF)

	assert.Equal(t, uint16(0xBEEF), mem.Read(0x1234))
}
