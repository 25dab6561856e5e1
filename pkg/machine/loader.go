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
	"encoding/binary"
	"io"
)

// LoadBin reads a big-endian program image from reader and places it in
// memory. The first word is the origin address; the remaining words are
// loaded contiguously from there. An origin with no data words is valid and
// loads nothing. A malformed image leaves memory untouched.
func (mc *Machine) LoadBin(reader io.Reader) error {
	scratch := make([]byte, 2)

	if _, err := io.ReadFull(reader, scratch); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ErrMissingOrigin
		}
		return err
	}

	origin := binary.BigEndian.Uint16(scratch)

	var words []uint16

	for {
		_, err := io.ReadFull(reader, scratch)

		if err == io.EOF {
			break
		} else if err == io.ErrUnexpectedEOF {
			return ErrTruncatedImage
		} else if err != nil {
			return err
		}

		words = append(words, binary.BigEndian.Uint16(scratch))
	}

	mc.State.Memory.LoadImage(origin, words)
	return nil
}
