// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command wsobjdump disassembles a linked WadeScript executable's text
// section, the out-of-core companion to cmd_local/objdump that
// ymm135-go itself ships — useful here for eyeballing what the RC
// optimization phases (spec.md §4.7) actually left in the emitted
// machine code, since the IR-level view (`wsc build -S`) doesn't show
// what the system C compiler did with it afterward.
package main

import (
	"debug/elf"
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"sort"

	"golang.org/x/arch/x86/x86asm"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: wsobjdump [-s symregexp] file\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("wsobjdump: ")

	symFilter := flag.String("s", "", "only disassemble symbols matching this regexp")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
	}

	var filter *regexp.Regexp
	if *symFilter != "" {
		re, err := regexp.Compile(*symFilter)
		if err != nil {
			log.Fatalf("bad -s regexp: %v", err)
		}
		filter = re
	}

	if err := dump(flag.Arg(0), filter); err != nil {
		log.Fatal(err)
	}
}

// textSym is one symbol in the text section, sorted by address so
// instruction ranges can be attributed back to the WadeScript function
// (spec.md component H's emitted @ws_<name> symbols, after the system
// linker's own name mangling/stripping) that produced them.
type textSym struct {
	name string
	addr uint64
	size uint64
}

func dump(path string, filter *regexp.Regexp) error {
	f, err := elf.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	text := f.Section(".text")
	if text == nil {
		return fmt.Errorf("%s: no .text section", path)
	}
	code, err := text.Data()
	if err != nil {
		return fmt.Errorf("reading .text: %w", err)
	}

	syms, err := f.Symbols()
	if err != nil {
		syms = nil // stripped binary: fall back to one unnamed span
	}
	var funcs []textSym
	for _, s := range syms {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC || s.Value < text.Addr || s.Value >= text.Addr+text.Size {
			continue
		}
		funcs = append(funcs, textSym{name: s.Name, addr: s.Value, size: s.Size})
	}
	sort.Slice(funcs, func(i, j int) bool { return funcs[i].addr < funcs[j].addr })
	if len(funcs) == 0 {
		funcs = []textSym{{name: "_text", addr: text.Addr, size: text.Size}}
	}

	mode := 64
	for _, fn := range funcs {
		if filter != nil && !filter.MatchString(fn.name) {
			continue
		}
		fmt.Printf("%016x <%s>:\n", fn.addr, fn.name)
		disasmRange(code, text.Addr, fn.addr, fn.size, mode)
		fmt.Println()
	}
	return nil
}

// disasmRange linearly sweeps [addr, addr+size) decoding one
// instruction at a time; a decode failure is reported inline and
// skipped by one byte rather than aborting the whole dump, since a
// misaligned jump table entry or data island in .text shouldn't hide
// the rest of the function.
func disasmRange(code []byte, base, addr, size uint64, mode int) {
	if size == 0 {
		size = uint64(len(code)) - (addr - base)
	}
	off := addr - base
	end := off + size
	for off < end && off < uint64(len(code)) {
		inst, err := x86asm.Decode(code[off:], mode)
		if err != nil {
			fmt.Printf("  %8x:\t%02x\t(bad)\n", base+off, code[off])
			off++
			continue
		}
		fmt.Printf("  %8x:\t% x\t%s\n", base+off, code[off:off+uint64(inst.Len)], x86asm.GNUSyntax(inst, base+off, nil))
		off += uint64(inst.Len)
	}
}
