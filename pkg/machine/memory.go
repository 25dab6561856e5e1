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

// Read returns the word at addr.
func (m *Memory) Read(addr uint16) uint16 {
	return m[addr]
}

// Write overwrites the word at addr.
func (m *Memory) Write(addr uint16, value uint16) {
	m[addr] = value
}

// LoadImage copies words into memory starting at origin, wrapping past
// 0xFFFF. Overlapping loads are not an error; later writes win.
func (m *Memory) LoadImage(origin uint16, words []uint16) {
	for i, word := range words {
		m[origin+uint16(i)] = word
	}
}
