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

package debugger_test

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiago-ssilva/lc3-vm/pkg/debugger"
	"github.com/thiago-ssilva/lc3-vm/pkg/machine"
)

// captureStdout runs fn with os.Stdout redirected and returns what it wrote.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	read, write, err := os.Pipe()
	require.NoError(t, err)

	saved := os.Stdout
	os.Stdout = write

	fn()

	os.Stdout = saved
	require.NoError(t, write.Close())

	output, err := io.ReadAll(read)
	require.NoError(t, err)

	return string(output)
}

func TestBreakpoint(t *testing.T) {
	assert := assert.New(t)

	var mc machine.Machine
	mc.State.Reset()

	// Two ADDs back to back
	mc.State.Memory.LoadImage(0x3000, []uint16{
		0b0001_000_000_1_00001,
		0b0001_000_000_1_00001,
	})

	var breaks []uint16

	dbg := &debugger.Debugger{
		Breakpoints: []debugger.Breakpoint{{Addr: 0x3001}},
		HandleBreak: func(dbg *debugger.Debugger, mc *machine.Machine) {
			breaks = append(breaks, mc.State.Program)
		},
		HandleRead:  func(uint16, *debugger.Debugger, *machine.Machine) {},
		HandleWrite: func(uint16, *debugger.Debugger, *machine.Machine) {},
	}
	mc.Debugger = dbg

	require.NoError(t, mc.Step())
	require.NoError(t, mc.Step())

	assert.Equal([]uint16{0x3001}, breaks)
}

func TestBreakFlagStopsEveryStep(t *testing.T) {
	var mc machine.Machine
	mc.State.Reset()

	mc.State.Memory.LoadImage(0x3000, []uint16{
		0b0001_000_000_1_00001,
		0b0001_000_000_1_00001,
	})

	count := 0

	dbg := &debugger.Debugger{
		Break: true,
		HandleBreak: func(dbg *debugger.Debugger, mc *machine.Machine) {
			count++
		},
	}
	mc.Debugger = dbg

	require.NoError(t, mc.Step())
	require.NoError(t, mc.Step())

	assert.Equal(t, 2, count)
}

func TestWatchpoints(t *testing.T) {
	assert := assert.New(t)

	var mc machine.Machine
	mc.State.Reset()

	// LD R0 from 0x3003; ST R0 to 0x3004
	mc.State.Memory.LoadImage(0x3000, []uint16{
		0b0010_000_000000010,
		0b0011_000_000000010,
	})

	var reads []uint16
	var writes []uint16

	dbg := &debugger.Debugger{
		Watchpoints: []debugger.Watchpoint{
			{Addr: 0x3003, Type: debugger.ReadWatch},
			{Addr: 0x3004, Type: debugger.WriteWatch},
		},
		HandleBreak: func(*debugger.Debugger, *machine.Machine) {},
		HandleRead: func(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
			reads = append(reads, addr)
		},
		HandleWrite: func(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
			writes = append(writes, addr)
		},
	}
	mc.Debugger = dbg

	require.NoError(t, mc.Step())
	require.NoError(t, mc.Step())

	assert.Equal([]uint16{0x3003}, reads)
	assert.Equal([]uint16{0x3004}, writes)
}

func TestReadWriteWatchTriggersBoth(t *testing.T) {
	assert := assert.New(t)

	var mc machine.Machine
	mc.State.Reset()

	mc.State.Memory.LoadImage(0x3000, []uint16{
		0b0010_000_000000010, // LD  R0, #2 -> reads 0x3003
		0b0011_000_000000001, // ST  R0, #1 -> writes 0x3003
	})

	var reads, writes int

	dbg := &debugger.Debugger{
		Watchpoints: []debugger.Watchpoint{
			{Addr: 0x3003, Type: debugger.ReadWriteWatch},
		},
		HandleBreak: func(*debugger.Debugger, *machine.Machine) {},
		HandleRead: func(uint16, *debugger.Debugger, *machine.Machine) {
			reads++
		},
		HandleWrite: func(uint16, *debugger.Debugger, *machine.Machine) {
			writes++
		},
	}
	mc.Debugger = dbg

	require.NoError(t, mc.Step())
	require.NoError(t, mc.Step())

	assert.Equal(1, reads)
	assert.Equal(1, writes)
}

// A dump straddling the top of memory wraps to address zero instead of
// printing nothing.
func TestPrintMemWraparound(t *testing.T) {
	assert := assert.New(t)

	var dbg debugger.Debugger
	var state machine.MachineState

	state.Memory[0xFFFF] = 0x1234
	state.Memory[0x0000] = 0x5678

	output := captureStdout(t, func() {
		dbg.PrintMem(&state, 0xFFFF, 2)
	})

	assert.Contains(output, "[0xffff]")
	assert.Contains(output, "0x1234")
	assert.Contains(output, "0x5678")
}
