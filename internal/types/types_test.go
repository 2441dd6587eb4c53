// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

import "testing"

func TestAssignableTo(t *testing.T) {
	cls := &ClassType{Name: "Dog"}
	other := &ClassType{Name: "Cat"}
	tests := []struct {
		name     string
		from, to *Type
		want     bool
	}{
		{"int to int", Int, Int, true},
		{"int to float widens", Int, Float, true},
		{"float to int does not narrow", Float, Int, false},
		{"str to str", Str, Str, true},
		{"bool to int", Bool, Int, false},
		{"null (void) to optional", Void, NewOptional(Int), true},
		{"int to optional int", Int, NewOptional(Int), true},
		{"int to optional str rejects", Int, NewOptional(Str), false},
		{"same class", NewClass(cls), NewClass(cls), true},
		{"different class", NewClass(cls), NewClass(other), false},
		{"list of matching elems", NewList(Int), NewList(Int), true},
		{"list of mismatched elems", NewList(Int), NewList(Str), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := AssignableTo(tc.from, tc.to); got != tc.want {
				t.Errorf("AssignableTo(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestIsRCEligible(t *testing.T) {
	cases := []struct {
		typ  *Type
		want bool
	}{
		{Int, false},
		{Float, false},
		{Bool, false},
		{Str, true},
		{NewList(Int), true},
		{NewDict(Str, Int), true},
		{NewTuple(Int, Str), true},
		{NewArray(Int, 4), false},
		{NewClass(&ClassType{Name: "X"}), true},
	}
	for _, tc := range cases {
		if got := tc.typ.IsRCEligible(); got != tc.want {
			t.Errorf("%s.IsRCEligible() = %v, want %v", tc.typ, got, tc.want)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal(NewList(Int), NewList(Int)) {
		t.Error("identical list types should be equal")
	}
	if Equal(NewList(Int), NewList(Str)) {
		t.Error("lists of different element types should not be equal")
	}
	if !Equal(NewArray(Int, 3), NewArray(Int, 3)) {
		t.Error("arrays of same element type and length should be equal")
	}
	if Equal(NewArray(Int, 3), NewArray(Int, 4)) {
		t.Error("arrays of different length should not be equal")
	}
}

func TestIsBuiltinException(t *testing.T) {
	for _, tag := range BuiltinExceptions {
		if !IsBuiltinException(tag) {
			t.Errorf("BuiltinExceptions entry %q reported as not builtin", tag)
		}
	}
	if IsBuiltinException("NotARealException") {
		t.Error("unknown tag incorrectly reported as a builtin exception")
	}
}

func TestStringer(t *testing.T) {
	cases := map[*Type]string{
		Int:                       "int",
		Float:                     "float",
		NewList(Int):              "list[int]",
		NewDict(Str, Int):         "dict[str, int]",
		NewOptional(Str):          "str?",
		NewArray(Bool, 2):         "array[bool, 2]",
		NewClass(&ClassType{Name: "Point"}): "Point",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Errorf("Type.String() = %q, want %q", got, want)
		}
	}
}
