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

// Prompt written to the display by the IN service routine before its
// blocking read.
const inPrompt = "Enter a character: "

func (mc *Machine) putc(value byte) error {
	if mc.Devices == nil || mc.Devices.Display == nil {
		return ErrNoDisplay
	}

	if err := mc.Devices.Display.WriteByte(value); err != nil {
		return &DeviceError{"write", err}
	}

	return nil
}

func (mc *Machine) puts(value string) error {
	for i := 0; i < len(value); i++ {
		if err := mc.putc(value[i]); err != nil {
			return err
		}
	}

	return nil
}

func (mc *Machine) flush() error {
	if mc.Devices == nil || mc.Devices.Display == nil {
		return ErrNoDisplay
	}

	if err := mc.Devices.Display.Flush(); err != nil {
		return &DeviceError{"flush", err}
	}

	return nil
}

// getc blocks until the keyboard produces a character. Pending display
// output is flushed first so any prompt is visible before the read.
func (mc *Machine) getc() (byte, error) {
	if mc.Devices != nil && mc.Devices.Display != nil {
		if err := mc.flush(); err != nil {
			return 0, err
		}
	}

	if mc.Devices == nil || mc.Devices.Keyboard == nil {
		return 0, ErrNoKeyboard
	}

	key, err := mc.Devices.Keyboard.ReadByte()

	if err != nil {
		return 0, &DeviceError{"read", err}
	}

	return key, nil
}

// trap dispatches an 8-bit vector to one of the six console service
// routines. The caller has already saved the return address in R7. An
// unrecognized vector is fatal.
func (mc *Machine) trap(vector uint16) error {
	switch vector {
	// GETC: R0 receives one character, not echoed; sets condition codes
	case TRAP_GETC:
		key, err := mc.getc()

		if err != nil {
			return err
		}

		mc.State.Registers[0] = uint16(key)
		mc.setFlags(mc.State.Registers[0])

	// OUT: writes the character in R0's low byte
	case TRAP_OUT:
		if err := mc.putc(byte(mc.State.Registers[0] & 0xFF)); err != nil {
			return err
		}

		return mc.flush()

	// PUTS: writes the one-character-per-word string starting at the
	// address in R0, up to a zero word
	case TRAP_PUTS:
		addr := mc.State.Registers[0]

		for {
			word := mc.read(addr)

			if word == 0 {
				break
			}

			if err := mc.putc(byte(word & 0xFF)); err != nil {
				return err
			}

			addr++
		}

		return mc.flush()

	// IN: prompts, reads one character, echoes it; R0 and condition codes
	// as GETC
	case TRAP_IN:
		if err := mc.puts(inPrompt); err != nil {
			return err
		}

		key, err := mc.getc()

		if err != nil {
			return err
		}

		if err := mc.putc(key); err != nil {
			return err
		}

		if err := mc.flush(); err != nil {
			return err
		}

		mc.State.Registers[0] = uint16(key)
		mc.setFlags(mc.State.Registers[0])

	// PUTSP: writes the packed two-characters-per-word string starting at
	// the address in R0 (low byte first), up to a zero word
	case TRAP_PUTSP:
		addr := mc.State.Registers[0]

		for {
			word := mc.read(addr)

			if word == 0 {
				break
			}

			if err := mc.putc(byte(word & 0xFF)); err != nil {
				return err
			}

			if high := byte(word >> 8); high != 0 {
				if err := mc.putc(high); err != nil {
					return err
				}
			}

			addr++
		}

		return mc.flush()

	// HALT: announces termination and stops the machine
	case TRAP_HALT:
		if err := mc.puts("HALT\n"); err != nil {
			return err
		}

		if err := mc.flush(); err != nil {
			return err
		}

		mc.Halted = true

	default:
		return TrapError(vector)
	}

	return nil
}
