// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package check

import (
	"testing"

	"wadescript.dev/wsc/internal/diag"
	"wadescript.dev/wsc/internal/load"
	"wadescript.dev/wsc/internal/syntax"
)

// program parses src as a single-file Program with no imports, the
// shape internal/load would hand to Check for a leaf file.
func program(t *testing.T, src string) *load.Program {
	t.Helper()
	f, errs := syntax.Parse("t.ws", src)
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	return &load.Program{Files: []*syntax.File{f}}
}

func firstCategory(t *testing.T, bag *diag.Bag) diag.Category {
	t.Helper()
	if !bag.HasErrors() {
		t.Fatal("expected at least one error, got none")
	}
	return bag.Errors()[0].Category
}

func TestCheckFactorialOK(t *testing.T) {
	src := `
def fact(n: int) -> int {
  if n <= 1 { return 1 }
  return n * fact(n - 1)
}
def main() -> int {
  print_int(fact(5))
  return 0
}
`
	_, bag := Check(program(t, src))
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors())
	}
}

func TestCheckTypeMismatchOnDecl(t *testing.T) {
	src := `
def main() -> int {
  x: int = "not an int"
  return 0
}
`
	_, bag := Check(program(t, src))
	if got := firstCategory(t, bag); got != diag.TypeError {
		t.Errorf("category = %s, want %s", got, diag.TypeError)
	}
}

func TestCheckIntToFloatWidens(t *testing.T) {
	src := `
def main() -> int {
  x: float = 3
  return 0
}
`
	_, bag := Check(program(t, src))
	if bag.HasErrors() {
		t.Fatalf("int-to-float widening should not error: %v", bag.Errors())
	}
}

func TestCheckUndefinedFunction(t *testing.T) {
	src := `
def main() -> int {
  nope()
  return 0
}
`
	_, bag := Check(program(t, src))
	if got := firstCategory(t, bag); got != diag.TypeError {
		t.Errorf("category = %s, want %s", got, diag.TypeError)
	}
}

func TestCheckNamedArgsAndDefaults(t *testing.T) {
	src := `
def greet(name: str = "World", excited: bool = False) -> str {
  return name
}
def main() -> int {
  greet()
  greet(excited=True)
  greet(name="Ada", excited=True)
  return 0
}
`
	_, bag := Check(program(t, src))
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors())
	}
}

func TestCheckDuplicateNamedArg(t *testing.T) {
	src := `
def greet(name: str = "World") -> str { return name }
def main() -> int {
  greet(name="A", name="B")
  return 0
}
`
	_, bag := Check(program(t, src))
	if got := firstCategory(t, bag); got != diag.ArityError {
		t.Errorf("category = %s, want %s", got, diag.ArityError)
	}
}

func TestCheckUnknownNamedArg(t *testing.T) {
	src := `
def greet(name: str = "World") -> str { return name }
def main() -> int {
  greet(nickname="A")
  return 0
}
`
	_, bag := Check(program(t, src))
	if got := firstCategory(t, bag); got != diag.ArityError {
		t.Errorf("category = %s, want %s", got, diag.ArityError)
	}
}

func TestCheckMissingRequiredArg(t *testing.T) {
	src := `
def add(a: int, b: int) -> int { return a + b }
def main() -> int {
  add(1)
  return 0
}
`
	_, bag := Check(program(t, src))
	if got := firstCategory(t, bag); got != diag.ArityError {
		t.Errorf("category = %s, want %s", got, diag.ArityError)
	}
}

func TestCheckPrivateFieldAccessDenied(t *testing.T) {
	src := `
class Counter {
  _count: int
  def bump(self: Counter) -> int { return self._count }
}
def peek(c: Counter) -> int {
  return c._count
}
def main() -> int {
  return 0
}
`
	_, bag := Check(program(t, src))
	if got := firstCategory(t, bag); got != diag.AccessError {
		t.Errorf("category = %s, want %s", got, diag.AccessError)
	}
}

func TestCheckDecoratorOnWrongFieldType(t *testing.T) {
	src := `
class Opts {
  @arg
  count: int
}
def main() -> int { return 0 }
`
	_, bag := Check(program(t, src))
	if got := firstCategory(t, bag); got != diag.DecoratorError {
		t.Errorf("category = %s, want %s", got, diag.DecoratorError)
	}
}

func TestCheckUnknownDecorator(t *testing.T) {
	src := `
class Opts {
  @bogus
  name: str
}
def main() -> int { return 0 }
`
	_, bag := Check(program(t, src))
	if got := firstCategory(t, bag); got != diag.DecoratorError {
		t.Errorf("category = %s, want %s", got, diag.DecoratorError)
	}
}

func TestCheckOptionShortFlagMustBeOneChar(t *testing.T) {
	src := `
class Opts {
  @option("verbose", "verbose", "enable verbose output")
  verbose: bool
}
def main() -> int { return 0 }
`
	_, bag := Check(program(t, src))
	if got := firstCategory(t, bag); got != diag.DecoratorError {
		t.Errorf("category = %s, want %s", got, diag.DecoratorError)
	}
}

func TestCheckTupleDestructureArityMismatch(t *testing.T) {
	src := `
def main() -> int {
  a: int = 0
  b: int = 0
  a, b = (1, 2, 3)
  return 0
}
`
	_, bag := Check(program(t, src))
	if !bag.HasErrors() {
		t.Fatal("expected an error for a tuple destructure arity mismatch")
	}
}
