// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buildid

import (
	"strings"
	"testing"
)

func TestHashBytesIsDeterministic(t *testing.T) {
	a := HashBytes([]byte("define i32 @main() { ret i32 0 }"))
	b := HashBytes([]byte("define i32 @main() { ret i32 0 }"))
	if a != b {
		t.Errorf("hashing identical content twice produced different ids: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "wsid/") {
		t.Errorf("id %q missing wsid/ prefix", a)
	}
}

func TestHashBytesDiffersOnContentChange(t *testing.T) {
	a := HashBytes([]byte("module a"))
	b := HashBytes([]byte("module b"))
	if a == b {
		t.Error("different content produced the same build id")
	}
}

func TestHashReaderMatchesHashBytes(t *testing.T) {
	content := []byte("some ir text")
	want := HashBytes(content)
	got, err := HashReader(strings.NewReader(string(content)))
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("HashReader = %q, want %q (matching HashBytes)", got, want)
	}
}
