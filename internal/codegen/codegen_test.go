// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"strings"
	"testing"

	"wadescript.dev/wsc/internal/check"
	"wadescript.dev/wsc/internal/escape"
	"wadescript.dev/wsc/internal/load"
	"wadescript.dev/wsc/internal/rcplan"
	"wadescript.dev/wsc/internal/syntax"
)

func generate(t *testing.T, src string) string {
	t.Helper()
	f, errs := syntax.Parse("t.ws", src)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	prog := &load.Program{Files: []*syntax.File{f}}
	info, bag := check.Check(prog)
	if bag.HasErrors() {
		t.Fatalf("check errors: %v", bag.Errors())
	}
	esc := escape.Analyze(info)
	plan := rcplan.Build(info, esc)
	return Generate(prog, info, esc, plan)
}

func TestGenerateEmitsCABIMainWrapper(t *testing.T) {
	ir := generate(t, `
def main() -> int {
  return 0
}
`)
	if !strings.Contains(ir, "define i32 @main()") {
		t.Fatal("expected a C-ABI @main entry point in the emitted IR")
	}
	if !strings.Contains(ir, "call i64 @ws_main()") {
		t.Fatal("expected @main to call the mangled @ws_main symbol")
	}
	if !strings.Contains(ir, "define i64 @ws_main()") {
		t.Fatal("expected the user's main to be emitted under its mangled symbol")
	}
}

func TestGenerateMangledFunctionSymbols(t *testing.T) {
	ir := generate(t, `
def add(a: int, b: int) -> int { return a + b }
def main() -> int { return add(1, 2) }
`)
	if !strings.Contains(ir, "@ws_add") {
		t.Error("expected add to be emitted under its mangled @ws_add symbol")
	}
}

func TestGenerateVoidMainReturnsZero(t *testing.T) {
	ir := generate(t, `
def main() {
  return
}
`)
	if !strings.Contains(ir, "call void @ws_main()") {
		t.Fatal("a void-returning main should be called as void from the C-ABI wrapper")
	}
	if !strings.Contains(ir, "ret i32 0") {
		t.Fatal("a void-returning main's wrapper should exit with status 0")
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	src := `
def fact(n: int) -> int {
  if n <= 1 { return 1 }
  return n * fact(n - 1)
}
def main() -> int {
  return fact(5)
}
`
	a := generate(t, src)
	b := generate(t, src)
	if a != b {
		t.Error("generating the same checked program twice should produce byte-identical IR")
	}
}

func TestGenerateBuildIDCommentPresent(t *testing.T) {
	ir := generate(t, `def main() -> int { return 0 }`)
	if !strings.HasPrefix(ir, "; build id ") {
		t.Error("expected the emitted IR to open with a build id comment")
	}
}
