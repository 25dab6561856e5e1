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

package machine

import (
	"bufio"
)

// Memory is the flat 64K-word address space. A 16-bit address can never be
// out of range, so reads and writes have no failure mode.
type Memory [1 << 16]uint16

// DeviceHandler holds the console collaborators the trap routines talk to.
// The keyboard read blocks until a character arrives; the display is
// flushed before every blocking read so prompts are visible.
type DeviceHandler struct {
	Keyboard *bufio.Reader
	Display  *bufio.Writer
}

// MachineState is the register file plus memory: eight general purpose
// registers, the program counter and the condition register.
type MachineState struct {
	Registers [8]uint16

	// Program counter
	Program uint16

	// Condition register, always exactly one of FLAG_POS, FLAG_ZERO,
	// FLAG_NEG
	Condition uint16

	Memory Memory
}

// MachineDebugger receives hooks for every memory access and every executed
// step.
type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

// Machine is the execution engine. It exclusively owns its state for the
// duration of a run; construct one per program.
type Machine struct {
	Devices  *DeviceHandler
	State    MachineState
	Debugger MachineDebugger

	// Halted is the terminal engine state; once set, Step is a no-op.
	Halted bool
}
