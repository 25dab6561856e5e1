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
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/thiago-ssilva/lc3-vm/pkg/debugger"
	"github.com/thiago-ssilva/lc3-vm/pkg/machine"
)

var helpvar bool
var debugvar bool
var shouldexit bool

const usage = "lc3vm [-debug] image [image...]"

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine in a debug CLI")
	flag.Parse()
}

func lc3vm() int {
	if helpvar {
		fmt.Println(usage)
		return 0
	}

	args := flag.Args()

	if len(args) < 1 {
		log.Println(usage)
		return 1
	}

	var mc machine.Machine
	var dh machine.DeviceHandler
	dh.Keyboard = bufio.NewReader(os.Stdin)
	dh.Display = bufio.NewWriter(os.Stdout)
	mc.Devices = &dh

	mc.State.Reset()

	// Images load in argument order; overlapping loads are resolved by
	// last write wins. Nothing executes unless every image loads.
	for _, path := range args {
		file, err := os.Open(path)

		if err != nil {
			log.Println(err)
			return 1
		}

		err = mc.LoadBin(file)
		file.Close()

		if err != nil {
			log.Printf("%s: %v", path, err)
			return 1
		}
	}

	if debugvar {
		var dbg debugger.Debugger
		dbg.HandleBreak = handleBreak
		dbg.HandleRead = handleRead
		dbg.HandleWrite = handleWrite
		mc.Debugger = &dbg

		c := make(chan os.Signal, 1)
		defer close(c)

		signal.Notify(c, os.Interrupt)
		go func() {
			for range c {
				fmt.Println()
				dbg.Break = true
			}
		}()
	}

	enterRawTerm()
	defer exitRawTerm()

	if debugvar {
		debugREPL(mc.Debugger.(*debugger.Debugger), &mc)
	}

	for !mc.Halted && !shouldexit {
		if err := mc.Step(); err != nil {
			exitRawTerm()
			log.Println(err)
			return 1
		}
	}

	return 0
}

func main() {
	os.Exit(lc3vm())
}
