// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package escape

import (
	"testing"

	"wadescript.dev/wsc/internal/check"
	"wadescript.dev/wsc/internal/load"
	"wadescript.dev/wsc/internal/syntax"
)

func mustCheck(t *testing.T, src string) *check.Info {
	t.Helper()
	f, errs := syntax.Parse("t.ws", src)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	info, bag := check.Check(&load.Program{Files: []*syntax.File{f}})
	if bag.HasErrors() {
		t.Fatalf("check errors: %v", bag.Errors())
	}
	return info
}

func TestNonEscapingLocalIsDetected(t *testing.T) {
	src := `
def main() -> int {
  xs: list[int] = [1, 2, 3]
  total: int = 0
  total = total + xs.get(0)
  return total
}
`
	info := mustCheck(t, src)
	esc := Analyze(info)
	fi := esc.Funcs["main"]
	if !fi.NonEscaping["xs"] {
		t.Error("xs is only read via a pure builtin (list.get); it should be non-escaping")
	}
}

func TestReturnedLocalEscapes(t *testing.T) {
	src := `
def build() -> list[int] {
  xs: list[int] = [1, 2, 3]
  return xs
}
def main() -> int { return 0 }
`
	info := mustCheck(t, src)
	esc := Analyze(info)
	fi := esc.Funcs["build"]
	if fi.NonEscaping["xs"] {
		t.Error("a returned local escapes and must not be marked non-escaping")
	}
}

func TestArgumentToImpureCalleeEscapes(t *testing.T) {
	src := `
def sink(xs: list[int]) -> int { return xs.length() }
def main() -> int {
  ys: list[int] = [1, 2]
  sink(ys)
  return 0
}
`
	info := mustCheck(t, src)
	esc := Analyze(info)
	fi := esc.Funcs["main"]
	if fi.NonEscaping["ys"] {
		t.Error("passing ys to a user-defined (conservatively impure) function must mark it escaping")
	}
}

func TestArgumentToPureBuiltinDoesNotEscape(t *testing.T) {
	src := `
def main() -> int {
  xs: list[int] = [1, 2, 3]
  n: int = xs.length()
  return n
}
`
	info := mustCheck(t, src)
	esc := Analyze(info)
	fi := esc.Funcs["main"]
	if !fi.NonEscaping["xs"] {
		t.Error("xs is only ever passed to pure builtins (list.length); it should be non-escaping")
	}
}

func TestLoopInvariantDetection(t *testing.T) {
	src := `
def main() -> int {
  xs: list[int] = [1, 2, 3]
  total: int = 0
  i: int = 0
  while i < 3 {
    total = total + xs.get(i)
    i = i + 1
  }
  return total
}
`
	info := mustCheck(t, src)
	esc := Analyze(info)
	fi := esc.Funcs["main"]
	found := false
	for _, inv := range fi.LoopInvariant {
		if inv["xs"] {
			found = true
		}
		if inv["i"] {
			t.Error("i is reassigned inside the loop body and must not be marked invariant")
		}
	}
	if !found {
		t.Error("xs is declared outside the loop and never reassigned inside it; expected it in some loop's invariant set")
	}
}

func TestStatementBlowupFallsBackConservatively(t *testing.T) {
	var body string
	for i := 0; i < statementBlowupCeiling+5; i++ {
		body += "x: int = x + 1\n"
	}
	src := "def main() -> int {\nx: int = 0\n" + body + "return x\n}\n"
	info := mustCheck(t, src)
	esc := Analyze(info)
	fi := esc.Funcs["main"]
	if !fi.Overflowed {
		t.Error("a function exceeding the statement ceiling should be marked Overflowed")
	}
	if len(fi.NonEscaping) != 0 {
		t.Error("an overflowed function must fall back to conservative emission: no non-escaping locals")
	}
}
