// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rcplan

import (
	"testing"

	"wadescript.dev/wsc/internal/check"
	"wadescript.dev/wsc/internal/escape"
	"wadescript.dev/wsc/internal/load"
	"wadescript.dev/wsc/internal/syntax"
)

func mustPlan(t *testing.T, src string) (*check.Info, *Plan) {
	t.Helper()
	f, errs := syntax.Parse("t.ws", src)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	info, bag := check.Check(&load.Program{Files: []*syntax.File{f}})
	if bag.HasErrors() {
		t.Fatalf("check errors: %v", bag.Errors())
	}
	esc := escape.Analyze(info)
	return info, Build(info, esc)
}

func TestReleaseAtExitExcludesNonEscaping(t *testing.T) {
	src := `
def main() -> int {
  xs: list[int] = [1, 2, 3]
  n: int = xs.length()
  return n
}
`
	_, plan := mustPlan(t, src)
	fp := plan.Funcs["main"]
	if !fp.RCLocals["xs"].IsRCEligible() {
		t.Fatal("xs should be an RC-eligible local")
	}
	if fp.ReleaseAtExit["xs"] {
		t.Error("xs is non-escaping; it must not be scheduled for scope-exit release")
	}
}

func TestReleaseAtExitIncludesEscaping(t *testing.T) {
	src := `
def sink(xs: list[int]) -> int { return xs.length() }
def main() -> int {
  ys: list[int] = [1, 2]
  sink(ys)
  return 0
}
`
	_, plan := mustPlan(t, src)
	fp := plan.Funcs["main"]
	if !fp.ReleaseAtExit["ys"] {
		t.Error("ys escapes via the call to sink; it must be released at scope exit")
	}
}

func TestMovedOnReturn(t *testing.T) {
	src := `
def build() -> list[int] {
  xs: list[int] = [1, 2, 3]
  return xs
}
def main() -> int { return 0 }
`
	_, plan := mustPlan(t, src)
	fp := plan.Funcs["build"]
	if len(fp.MovedOnReturn) != 1 {
		t.Fatalf("want exactly one moved-on-return binding, got %d", len(fp.MovedOnReturn))
	}
	for _, name := range fp.MovedOnReturn {
		if name != "xs" {
			t.Errorf("moved-on-return local = %q, want xs", name)
		}
	}
}

func TestLastUseMoveWhenNoLaterRead(t *testing.T) {
	src := `
def main() -> int {
  xs: list[int] = [1, 2, 3]
  ys: list[int] = xs
  n: int = ys.length()
  return n
}
`
	_, plan := mustPlan(t, src)
	fp := plan.Funcs["main"]
	if len(fp.LastUseMoves) != 1 {
		t.Fatalf("want exactly one last-use move, got %d: %v", len(fp.LastUseMoves), fp.LastUseMoves)
	}
	for _, name := range fp.LastUseMoves {
		if name != "xs" {
			t.Errorf("last-use move source = %q, want xs", name)
		}
	}
}

func TestNoLastUseMoveWhenReadAgain(t *testing.T) {
	src := `
def main() -> int {
  xs: list[int] = [1, 2, 3]
  ys: list[int] = xs
  n: int = xs.length()
  return n
}
`
	_, plan := mustPlan(t, src)
	fp := plan.Funcs["main"]
	if len(fp.LastUseMoves) != 0 {
		t.Errorf("xs is read again after the assignment to ys; expected no last-use move, got %v", fp.LastUseMoves)
	}
}

func TestLastUseMoveVisibleAcrossLoopBackEdge(t *testing.T) {
	src := `
def main() -> int {
  xs: list[int] = [1, 2, 3]
  i: int = 0
  while i < 3 {
    ys: list[int] = xs
    i = i + 1
  }
  return 0
}
`
	_, plan := mustPlan(t, src)
	fp := plan.Funcs["main"]
	if len(fp.LastUseMoves) != 0 {
		t.Errorf("xs is read again on the loop's next iteration; expected no last-use move inside the loop, got %v", fp.LastUseMoves)
	}
}

func TestOverflowedFunctionSkipsMoveOptimizations(t *testing.T) {
	var body string
	for i := 0; i < 110; i++ {
		body += "n = n + 1\n"
	}
	src := "def main() -> int {\nxs: list[int] = [1]\nn: int = 0\n" + body + "return xs.length()\n}\n"
	_, plan := mustPlan(t, src)
	fp := plan.Funcs["main"]
	if !fp.Escape.Overflowed {
		t.Fatal("expected the escape analysis to report Overflowed for this function")
	}
	if len(fp.LastUseMoves) != 0 || len(fp.MovedOnReturn) != 0 {
		t.Error("an overflowed function must fall back to baseline retain/release with no move optimizations")
	}
	if !fp.ReleaseAtExit["xs"] {
		t.Error("overflowed functions release every RC local at exit, including xs")
	}
}
