// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package buildid computes a content-derived build ID, the way
// cmd_local/go/internal/work's build cache keys a compiled package on
// the hash of its inputs. WadeScript has no incremental build (spec.md's
// Non-goals explicitly exclude cross-file incremental compilation), but
// a stable, content-addressed identifier is still useful:
// internal/codegen stamps one as a comment line at the top of the
// emitted IR, and internal/link uses one as the cache key of the
// compiled runtime archive. No ID is written into the final
// executable. The hash function is blake2b rather than sha256 because it's
// the one this module's dependency graph (golang.org/x/crypto/blake2b,
// also used nowhere else in this tree) already supplies, and its
// construction cost is one import rather than a second hash family.
package buildid

import (
	"encoding/base64"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// HashContent returns the build ID for the object file at path: a
// base64 (URL-safe, unpadded) encoding of its blake2b-256 digest,
// prefixed with "wsid/" so it's greppable in a binary's string dump
// the same way cmd_local/go's own build IDs are.
func HashContent(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return HashReader(f)
}

func HashReader(r io.Reader) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	sum := h.Sum(nil)
	return "wsid/" + base64.RawURLEncoding.EncodeToString(sum), nil
}

// HashBytes is HashReader over an in-memory buffer, used by
// internal/codegen to stamp the build ID of the IR text it just
// produced before handing it to internal/link.
func HashBytes(b []byte) string {
	sum := blake2b.Sum256(b)
	return "wsid/" + base64.RawURLEncoding.EncodeToString(sum[:])
}
