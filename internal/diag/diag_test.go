// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diag

import "testing"

func TestBagAccumulatesInOrder(t *testing.T) {
	var b Bag
	if b.HasErrors() {
		t.Fatal("a fresh Bag should report no errors")
	}
	b.Add(TypeError, "a.ws", 3, "cannot assign %s to %s", "str", "int")
	b.Add(ArityError, "a.ws", 7, "too many arguments")
	if !b.HasErrors() || b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
	errs := b.Errors()
	if errs[0].Category != TypeError || errs[0].Line != 3 {
		t.Errorf("first error = %+v, want TypeError at line 3", errs[0])
	}
	if errs[1].Category != ArityError || errs[1].Line != 7 {
		t.Errorf("second error = %+v, want ArityError at line 7", errs[1])
	}
}

func TestErrorStringFormat(t *testing.T) {
	e := &Error{Category: IndexError, File: "m.ws", Line: 12, Message: "index 99 out of range for length 3"}
	want := "m.ws:12: IndexError: index 99 out of range for length 3"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
