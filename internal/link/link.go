// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package link implements component I of spec.md §2/§4.8: it takes
// the LLVM IR text internal/codegen produced, asks a system compiler
// to turn it into a native object file, builds (and caches) the
// embedded C runtime library of components A-E as a static archive,
// and invokes the platform C compiler once more to link the two into
// a standalone executable. None of the object format or linking logic
// itself is reimplemented here — cmd_local/link/main.go dispatches to a
// from-scratch linker per architecture; this package deliberately does
// not, because spec.md §1 names "the host OS linker" as an external
// collaborator the compiler shells out to, not a component to rebuild.
package link

import (
	"crypto/rand"
	"embed"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"wadescript.dev/wsc/internal/buildid"
)

//go:embed runtime/*.c runtime/*.h
var runtimeSrc embed.FS

// ccCommand resolves the system C compiler, honoring $CC the way
// cmd_local/go/internal/work's external-linker selection honors
// $CC/$CXX, and falling back to "cc" since that's the POSIX-mandated
// name every supported host has on PATH.
func ccCommand() string {
	if cc := os.Getenv("CC"); cc != "" {
		return cc
	}
	return "cc"
}

// cacheDir is where a compiled runtime archive is cached across
// builds, keyed by its content hash so a change to
// internal/link/runtime invalidates the cache automatically — the
// same content-addressing internal/buildid already uses for object
// files.
func cacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	dir = filepath.Join(dir, "wsc", "runtime-archive")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// buildRuntimeArchive materializes the embedded C runtime sources into
// a scratch directory, compiles each to an object, and archives them
// with `ar`, returning the cached archive's path. A prior build with
// identical runtime source content is reused rather than recompiled.
func buildRuntimeArchive() (string, error) {
	entries, err := runtimeSrc.ReadDir("runtime")
	if err != nil {
		return "", err
	}
	var all []byte
	for _, e := range entries {
		b, err := runtimeSrc.ReadFile("runtime/" + e.Name())
		if err != nil {
			return "", err
		}
		all = append(all, b...)
	}
	id := buildid.HashBytes(all)
	cache, err := cacheDir()
	if err != nil {
		return "", err
	}
	archivePath := filepath.Join(cache, hashSuffix(id)+".a")
	if _, err := os.Stat(archivePath); err == nil {
		return archivePath, nil // cache hit: identical runtime source already built
	}

	work, err := os.MkdirTemp("", "wsc-runtime-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(work)

	var objs []string
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".c" {
			continue
		}
		src := filepath.Join(work, e.Name())
		b, _ := runtimeSrc.ReadFile("runtime/" + e.Name())
		if err := os.WriteFile(src, b, 0o644); err != nil {
			return "", err
		}
		// The header is read relative to the .c file via -I.
		hdrName := "wsrt.h"
		if hb, err := runtimeSrc.ReadFile("runtime/" + hdrName); err == nil {
			os.WriteFile(filepath.Join(work, hdrName), hb, 0o644)
		}
		obj := filepath.Join(work, e.Name()+".o")
		cmd := exec.Command(ccCommand(), "-c", "-O2", "-o", obj, src)
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return "", fmt.Errorf("compiling runtime %s: %w", e.Name(), err)
		}
		objs = append(objs, obj)
	}

	tmpArchive := filepath.Join(work, "libwsrt.a")
	arArgs := append([]string{"rcs", tmpArchive}, objs...)
	cmd := exec.Command("ar", arArgs...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("archiving runtime: %w", err)
	}
	b, err := os.ReadFile(tmpArchive)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(archivePath, b, 0o644); err != nil {
		return "", err
	}
	return archivePath, nil
}

func hashSuffix(id string) string {
	// id is "wsid/<b64>"; filenames must not carry '/'.
	h := hex.EncodeToString([]byte(id))
	if len(h) > 32 {
		h = h[:32]
	}
	return h
}

// Options controls one Link invocation.
type Options struct {
	IR         string // LLVM IR text from internal/codegen
	OutputPath string
	KeepTemp   bool // retain the intermediate .ll/.o for `wsc build -S`
}

// Link realizes spec.md §4.8 and §6.2: compile the IR to an object
// file, build (or reuse) the runtime archive, and link them into
// OutputPath. Returns the path to the intermediate object file when
// KeepTemp is set (for wsobjdump / -S), else "".
func Link(opts Options) (objPath string, err error) {
	work, err := os.MkdirTemp("", "wsc-build-*")
	if err != nil {
		return "", err
	}
	if !opts.KeepTemp {
		defer os.RemoveAll(work)
	}

	llPath := filepath.Join(work, "module.ll")
	if err := os.WriteFile(llPath, []byte(opts.IR), 0o644); err != nil {
		return "", err
	}

	objPath = filepath.Join(work, "module.o")
	cmd := exec.Command(ccCommand(), "-c", "-x", "ir", "-o", objPath, llPath)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("compiling IR: %w", err)
	}

	archive, err := buildRuntimeArchive()
	if err != nil {
		return "", err
	}

	cmd = exec.Command(ccCommand(), "-o", opts.OutputPath, objPath, archive)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("linking: %w", err)
	}
	if opts.KeepTemp {
		return objPath, nil
	}
	return "", nil
}

// randomSuffix returns 16 random hex digits. Nothing in this tree
// calls it; cmd/wsc's `run` subcommand names its throwaway executable
// a.out inside a fresh temporary directory instead.
func randomSuffix() string {
	var b [8]byte
	rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
