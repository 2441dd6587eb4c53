// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package types implements the type lattice of spec.md §3.1: the
// primitive types, the composite types (List, Dict, Array, Tuple,
// Optional), user-defined classes, and the distinguished Exception
// record, plus the subtyping and RC-eligibility rules that the rest of
// the compiler consults.
package types

import "fmt"

// Kind is the tag of a Type, the same role cmd_local/compile/internal/types's
// EType plays for Go's own type lattice.
type Kind uint8

const (
	Invalid Kind = iota
	TInt
	TFloat
	TBool
	TStr
	TVoid
	TList
	TDict
	TArray
	TTuple
	TOptional
	TClass
	TException
)

// Type is an immutable description of a WadeScript type. Composite
// kinds carry their element types in Elems; TClass carries its
// declaration in Class.
type Type struct {
	Kind  Kind
	Elems []*Type // List: [elem]; Dict: [key, val]; Array: [elem]; Tuple: [t1..tn]; Optional: [inner]
	Len   int     // Array length
	Class *ClassType
}

// ClassType is a user-defined class: fields in declared order, and its
// methods (by name). Underscore-prefixed names are private per spec.md §3.3.
type ClassType struct {
	Name    string
	Fields  []Field
	Methods map[string]*Func
}

type Field struct {
	Name string
	Type *Type
}

// Func is a resolved function signature: required parameters, a
// contiguous defaulted suffix (spec.md §3.3 forbids mixing the other
// way), and a return type.
type Func struct {
	Name     string
	Params   []Param
	RetType  *Type
	IsMethod bool
}

type Param struct {
	Name       string
	Type       *Type
	HasDefault bool
}

var (
	Int   = &Type{Kind: TInt}
	Float = &Type{Kind: TFloat}
	Bool  = &Type{Kind: TBool}
	Str   = &Type{Kind: TStr}
	Void  = &Type{Kind: TVoid}
)

func NewList(elem *Type) *Type           { return &Type{Kind: TList, Elems: []*Type{elem}} }
func NewDict(key, val *Type) *Type       { return &Type{Kind: TDict, Elems: []*Type{key, val}} }
func NewArray(elem *Type, n int) *Type   { return &Type{Kind: TArray, Elems: []*Type{elem}, Len: n} }
func NewTuple(elems ...*Type) *Type      { return &Type{Kind: TTuple, Elems: elems} }
func NewOptional(inner *Type) *Type      { return &Type{Kind: TOptional, Elems: []*Type{inner}} }
func NewClass(c *ClassType) *Type        { return &Type{Kind: TClass, Class: c} }

func (t *Type) Elem() *Type {
	if t == nil || len(t.Elems) == 0 {
		return nil
	}
	return t.Elems[0]
}

func (t *Type) DictKey() *Type { return t.Elems[0] }
func (t *Type) DictVal() *Type { return t.Elems[1] }

// IsRCEligible reports whether values of this type are heap-allocated
// and reference-counted per spec.md §3.1: List, Dict, Str (dynamic),
// Tuple (once promoted to heap; conservatively treated as eligible
// here since the escape analyzer decides whether it stays a borrowed
// struct), and Class instances.
func (t *Type) IsRCEligible() bool {
	switch t.Kind {
	case TList, TDict, TStr, TTuple, TClass:
		return true
	default:
		return false
	}
}

// AssignableTo implements spec.md §3.1's subtyping rule: Int promotes
// to Float, Null inhabits every Optional<T>, and otherwise types must
// match exactly (structurally, for composites).
func AssignableTo(from, to *Type) bool {
	if from == nil || to == nil {
		return false
	}
	if Equal(from, to) {
		return true
	}
	if from.Kind == TInt && to.Kind == TFloat {
		return true
	}
	if to.Kind == TOptional {
		if from.Kind == TVoid { // Null literal is typed Void by the checker
			return true
		}
		return AssignableTo(from, to.Elem())
	}
	return false
}

func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TClass:
		return a.Class == b.Class
	case TArray:
		return a.Len == b.Len && Equal(a.Elem(), b.Elem())
	}
	if len(a.Elems) != len(b.Elems) {
		return false
	}
	for i := range a.Elems {
		if !Equal(a.Elems[i], b.Elems[i]) {
			return false
		}
	}
	return true
}

// IsNumeric reports whether arithmetic widening (spec.md §4.6.3) applies.
func (t *Type) IsNumeric() bool { return t.Kind == TInt || t.Kind == TFloat }

func (t *Type) String() string {
	switch t.Kind {
	case Invalid:
		return "<invalid>"
	case TInt:
		return "int"
	case TFloat:
		return "float"
	case TBool:
		return "bool"
	case TStr:
		return "str"
	case TVoid:
		return "void"
	case TList:
		return fmt.Sprintf("list[%s]", t.Elem())
	case TDict:
		return fmt.Sprintf("dict[%s, %s]", t.DictKey(), t.DictVal())
	case TArray:
		return fmt.Sprintf("array[%s, %d]", t.Elem(), t.Len)
	case TTuple:
		return fmt.Sprintf("tuple%v", t.Elems)
	case TOptional:
		return fmt.Sprintf("%s?", t.Elem())
	case TClass:
		return t.Class.Name
	case TException:
		return "exception"
	}
	return "<unknown>"
}

// Exception is the distinguished record type of spec.md §3.1: a
// type-tag string, a message, and the file/line it was raised at.
var Exception = &Type{Kind: TException}

// Builtin exception type tags, spec.md §4.5.
var BuiltinExceptions = []string{"ValueError", "KeyError", "IndexError", "RuntimeError", "TypeError", "AssertionError", "ImportError"}

func IsBuiltinException(tag string) bool {
	for _, e := range BuiltinExceptions {
		if e == tag {
			return true
		}
	}
	return false
}
