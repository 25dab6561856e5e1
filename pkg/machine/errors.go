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
	"errors"
	"fmt"
)

var (
	// Image loading errors
	ErrMissingOrigin  = errors.New("image contains no origin word")
	ErrTruncatedImage = errors.New("image truncated mid-word")

	// Console errors
	ErrNoKeyboard = errors.New("no keyboard device attached")
	ErrNoDisplay  = errors.New("no display device attached")
)

// TrapError reports a TRAP instruction whose vector matches none of the six
// defined service routines. It is a programming error in the loaded image
// and terminates the run; machine state at the point of failure remains
// inspectable.
type TrapError uint16

func (err TrapError) Error() string {
	return fmt.Sprintf("invalid trap vector %#04x", uint16(err))
}

func (err TrapError) Is(target error) (ok bool) {
	_, ok = target.(TrapError)
	return
}

// DeviceError wraps a failed console read or write. Console I/O is never
// retried; the failure terminates the run.
type DeviceError struct {
	Op  string
	Err error
}

func (err *DeviceError) Error() string {
	return fmt.Sprintf("console %s: %v", err.Op, err.Err)
}

func (err *DeviceError) Unwrap() error {
	return err.Err
}
