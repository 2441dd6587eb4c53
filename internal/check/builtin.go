// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package check

import "wadescript.dev/wsc/internal/types"

// builtinSig is a fixed-arity builtin signature; builtins never take
// defaulted or named arguments, so this is simpler than types.Func.
type builtinSig struct {
	Params []*types.Type
	Ret    *types.Type
}

// freeBuiltins are the top-level builtin functions: the print family
// and range(), spec.md §4.7.5 and §4.7.8.
var freeBuiltins = map[string]builtinSig{
	"print_int":   {Params: []*types.Type{types.Int}, Ret: types.Void},
	"print_float": {Params: []*types.Type{types.Float}, Ret: types.Void},
	"print_str":   {Params: []*types.Type{types.Str}, Ret: types.Void},
	"print_bool":  {Params: []*types.Type{types.Bool}, Ret: types.Void},
	"range":       {Params: []*types.Type{types.Int}, Ret: types.NewList(types.Int)},
}

// IsPureBuiltin reports whether name is in the fixed pure-builtin set
// of spec.md §4.7.5. internal/escape consults this directly; it lives
// here, next to the signatures it corresponds to, rather than being
// duplicated in internal/escape.
func IsPureBuiltin(name string) bool {
	switch name {
	case "list.get", "list.length", "list.push", "list.pop", "list.set",
		"dict.get", "dict.set", "dict.has", "dict.length",
		"str.length", "str.upper", "str.lower", "str.contains",
		"print_int", "print_float", "print_str", "print_bool":
		return true
	}
	return false
}

// listMethodSig resolves a method call on a List<elem> receiver.
func listMethodSig(elem *types.Type, name string) (builtinSig, bool) {
	switch name {
	case "get":
		return builtinSig{Params: []*types.Type{types.Int}, Ret: elem}, true
	case "set":
		return builtinSig{Params: []*types.Type{types.Int, elem}, Ret: types.Void}, true
	case "push":
		return builtinSig{Params: []*types.Type{elem}, Ret: types.Void}, true
	case "pop":
		return builtinSig{Params: nil, Ret: elem}, true
	case "length":
		return builtinSig{Params: nil, Ret: types.Int}, true
	}
	return builtinSig{}, false
}

// dictMethodSig resolves a method call on a Dict<Str, val> receiver;
// keys are constrained to Str for v1 (spec.md §3.1).
func dictMethodSig(val *types.Type, name string) (builtinSig, bool) {
	switch name {
	case "get":
		return builtinSig{Params: []*types.Type{types.Str}, Ret: val}, true
	case "set":
		return builtinSig{Params: []*types.Type{types.Str, val}, Ret: types.Void}, true
	case "has":
		return builtinSig{Params: []*types.Type{types.Str}, Ret: types.Bool}, true
	case "length":
		return builtinSig{Params: nil, Ret: types.Int}, true
	}
	return builtinSig{}, false
}

// strMethodSig resolves a method call on a Str receiver.
func strMethodSig(name string) (builtinSig, bool) {
	switch name {
	case "length":
		return builtinSig{Params: nil, Ret: types.Int}, true
	case "upper", "lower":
		return builtinSig{Params: nil, Ret: types.Str}, true
	case "contains":
		return builtinSig{Params: []*types.Type{types.Str}, Ret: types.Bool}, true
	}
	return builtinSig{}, false
}
