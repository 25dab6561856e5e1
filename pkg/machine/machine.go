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
	"github.com/thiago-ssilva/lc3-vm/pkg/encoding"
)

// Reset zeroes the register file and memory, then moves the program counter
// to the default entry point with the zero condition set.
func (mc *MachineState) Reset() {
	for i := range mc.Registers {
		mc.Registers[i] = 0x0000
	}

	for i := range mc.Memory {
		mc.Memory[i] = 0x0000
	}

	mc.Program = PC_START
	mc.Condition = FLAG_ZERO
}

func (mc *Machine) read(addr uint16) uint16 {
	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return mc.State.Memory.Read(addr)
}

func (mc *Machine) write(addr uint16, value uint16) {
	mc.State.Memory.Write(addr, value)

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

func (mc *Machine) setFlags(value uint16) {
	if value == 0 {
		mc.State.Condition = FLAG_ZERO
	} else if value>>15 == 1 {
		mc.State.Condition = FLAG_NEG
	} else {
		mc.State.Condition = FLAG_POS
	}
}

// Run steps the machine until it halts. A trap or console failure stops the
// run with the machine state left intact for inspection.
func (mc *Machine) Run() error {
	for !mc.Halted {
		if err := mc.Step(); err != nil {
			return err
		}
	}

	return nil
}

// Step fetches, decodes and executes a single instruction. The program
// counter is incremented before the instruction body runs, so PC-relative
// offsets are taken from the address of the following word. Stepping a
// halted machine does nothing.
func (mc *Machine) Step() error {
	if mc.Halted {
		return nil
	}

	instruction := mc.read(mc.State.Program)
	opcode := instruction >> 12

	mc.State.Program++

	switch opcode {
	// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
	// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ADD:
		dest := (instruction >> 9) & 0x7
		src1 := (instruction >> 6) & 0x7

		if (instruction>>5)&0x1 == 1 {
			imm5 := encoding.SignExtend(instruction&0x1F, 5)

			mc.State.Registers[dest] = mc.State.Registers[src1] + imm5
		} else {
			src2 := (instruction & 0x7)

			mc.State.Registers[dest] = mc.State.Registers[src1] +
				mc.State.Registers[src2]
		}

		mc.setFlags(mc.State.Registers[dest])

	// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise
	// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_AND:
		dest := (instruction >> 9) & 0x7
		src1 := (instruction >> 6) & 0x7

		if (instruction>>5)&0x1 == 1 {
			imm5 := encoding.SignExtend(instruction&0x1F, 5)

			mc.State.Registers[dest] = mc.State.Registers[src1] & imm5
		} else {
			src2 := (instruction & 0x7)

			mc.State.Registers[dest] = mc.State.Registers[src1] &
				mc.State.Registers[src2]
		}

		mc.setFlags(mc.State.Registers[dest])

	// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_BR:
		flags := (instruction >> 9) & 0x7

		if flags&mc.State.Condition > 0 {
			mc.State.Program += encoding.SignExtend(instruction&0x1FF, 9)
		}

	// JMP  |1100    |000  |BaseR|000000      | Jump
	// RET  |1100    |000  |111  |000000      | Return
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JMP:
		src := (instruction >> 6) & 0x7

		mc.State.Program = mc.State.Registers[src]

	// JSR  |0100    |1|PCoffset11            | Jump to subroutine
	// JSRR |0100    |0|00 |BaseR|000000      | Jump to subroutine register
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JSR:
		mc.State.Registers[7] = mc.State.Program

		if (instruction>>11)&0x1 == 1 {
			mc.State.Program += encoding.SignExtend(instruction&0x7FF, 11)
		} else {
			src := (instruction >> 6) & 0x7

			mc.State.Program = mc.State.Registers[src]
		}

	// LD   |0010    |DR   |PCoffset9         | Load
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD:
		dest := (instruction >> 9) & 0x7
		addr := mc.State.Program + encoding.SignExtend(instruction&0x1FF, 9)

		mc.State.Registers[dest] = mc.read(addr)

		mc.setFlags(mc.State.Registers[dest])

	// LDI  |1010    |DR   |PCoffset9         | Load indirect
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LDI:
		dest := (instruction >> 9) & 0x7
		addr := mc.State.Program + encoding.SignExtend(instruction&0x1FF, 9)

		mc.State.Registers[dest] = mc.read(mc.read(addr))

		mc.setFlags(mc.State.Registers[dest])

	// LDR  |0110    |DR   |BaseR|offset6     | Load base+offset
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LDR:
		dest := (instruction >> 9) & 0x7
		src := (instruction >> 6) & 0x7
		addr := mc.State.Registers[src] +
			encoding.SignExtend(instruction&0x3F, 6)

		mc.State.Registers[dest] = mc.read(addr)

		mc.setFlags(mc.State.Registers[dest])

	// LEA  |1110    |DR   |PCoffset9         | Load effective address
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LEA:
		dest := (instruction >> 9) & 0x7
		addr := mc.State.Program + encoding.SignExtend(instruction&0x1FF, 9)

		mc.State.Registers[dest] = addr

		mc.setFlags(mc.State.Registers[dest])

	// NOT  |1001    |DR   |SR   |1|11111     | Bitwise complement
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_NOT:
		dest := (instruction >> 9) & 0x7
		src := (instruction >> 6) & 0x7

		mc.State.Registers[dest] = ^mc.State.Registers[src]

		mc.setFlags(mc.State.Registers[dest])

	// ST   |0011    |SR   |PCoffset9         | Store
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ST:
		src := (instruction >> 9) & 0x7
		addr := mc.State.Program + encoding.SignExtend(instruction&0x1FF, 9)

		mc.write(addr, mc.State.Registers[src])

	// STI  |1011    |SR   |PCoffset9         | Store indirect
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_STI:
		src := (instruction >> 9) & 0x7
		addr := mc.State.Program + encoding.SignExtend(instruction&0x1FF, 9)

		mc.write(mc.read(addr), mc.State.Registers[src])

	// STR  |0111    |SR   |BaseR|offset6     | Store base+offset
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_STR:
		src := (instruction >> 9) & 0x7
		base := (instruction >> 6) & 0x7
		addr := mc.State.Registers[base] +
			encoding.SignExtend(instruction&0x3F, 6)

		mc.write(addr, mc.State.Registers[src])

	// TRAP |1111    |0000   |trapvect8       | Host service call
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_TRAP:
		mc.State.Registers[7] = mc.State.Program

		if err := mc.trap(instruction & 0xFF); err != nil {
			return err
		}

	// RTI  |1000    |000000000000            | Unimplemented, halts
	// RES  |1101    |                        | Reserved, halts
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_RTI, OP_RES:
		mc.Halted = true
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return nil
}
