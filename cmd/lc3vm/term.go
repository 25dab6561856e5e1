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

package main

import (
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

var termRestore *unix.Termios

// enterRawTerm switches stdin to unbuffered, no-echo input with a blocking
// one-character read. A non-terminal stdin (pipe, file) is left alone.
func enterRawTerm() {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		return
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)

	if err != nil {
		panic(err)
	}

	saved := *termios
	termRestore = &saved
	termstate := *termios

	termstate.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR
	termstate.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN

	termstate.Cc[unix.VMIN] = 1
	termstate.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &termstate); err != nil {
		panic(err)
	}
}

func exitRawTerm() {
	if termRestore == nil {
		return
	}

	if err := unix.IoctlSetTermios(
		int(os.Stdin.Fd()), unix.TCSETS, termRestore,
	); err != nil {
		panic(err)
	}

	termRestore = nil
}
