// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

import "fmt"

// Fatalf must be initialized early by the frontend (internal/check's
// init). It is here to break the import cycle between internal/types
// and internal/diag: diag wants to format a *Type in an error message,
// but types must not import diag. See
// cmd_local/compile/internal/types/utils.go for the Go compiler's own
// version of this seam.
var Fatalf func(string, ...interface{})

func fatalf(format string, args ...interface{}) {
	if Fatalf != nil {
		Fatalf(format, args...)
		return
	}
	panic(fmt.Sprintf(format, args...))
}
