// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"
)

// requireIRCapableCC skips the test unless the system C compiler
// accepts LLVM IR text input the way internal/link's Link needs
// (clang does via `-x ir`; a GCC-only toolchain does not). This
// mirrors cmd/go's own internal/testenv pattern of skipping tests
// that need a tool the host may not have, rather than failing them.
func requireIRCapableCC(t *testing.T) {
	t.Helper()
	path, err := exec.LookPath("clang")
	if err != nil {
		t.Skip("skipping: no clang on PATH, system cc cannot compile LLVM IR text (`-x ir`)")
	}
	os.Setenv("CC", path)
}

// goldenCase is one decoded testdata/*.txtar fixture.
type goldenCase struct {
	name            string
	src             string
	wantExit        int
	wantExitNonzero bool
	wantStdout      string
	wantStderrHas   []string
}

func loadGoldenCase(t *testing.T, path string) goldenCase {
	t.Helper()
	ar, err := txtar.ParseFile(path)
	if err != nil {
		t.Fatalf("parsing %s: %v", path, err)
	}
	gc := goldenCase{name: strings.TrimSuffix(filepath.Base(path), ".txtar")}
	for _, f := range ar.Files {
		content := string(f.Data)
		switch f.Name {
		case "main.ws":
			gc.src = content
		case "stdout":
			gc.wantStdout = strings.TrimRight(content, "\n")
		case "exit":
			n := strings.TrimSpace(content)
			if n == "nonzero" {
				gc.wantExitNonzero = true
			} else {
				code, err := strconv.Atoi(n)
				if err != nil {
					t.Fatalf("%s: bad exit section %q: %v", path, n, err)
				}
				gc.wantExit = code
			}
		case "stderr_contains":
			for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
				if line != "" {
					gc.wantStderrHas = append(gc.wantStderrHas, line)
				}
			}
		}
	}
	if gc.src == "" {
		t.Fatalf("%s: missing main.ws section", path)
	}
	return gc
}

// TestGoldenScenarios runs every spec.md S1-S6 scenario end-to-end:
// compile the fixture's source with wsc's own pipeline, run the
// resulting executable, and check its stdout/stderr/exit code.
func TestGoldenScenarios(t *testing.T) {
	requireIRCapableCC(t)

	paths, err := filepath.Glob("testdata/*.txtar")
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no golden fixtures found under testdata/")
	}

	for _, path := range paths {
		path := path
		gc := loadGoldenCase(t, path)
		t.Run(gc.name, func(t *testing.T) {
			dir := t.TempDir()
			srcPath := filepath.Join(dir, "main.ws")
			if err := os.WriteFile(srcPath, []byte(gc.src), 0o644); err != nil {
				t.Fatal(err)
			}
			binPath := filepath.Join(dir, "a.out")

			if _, err := compileToExecutable(srcPath, binPath, false, ""); err != nil {
				t.Fatalf("compile failed: %v", err)
			}

			cmd := exec.Command(binPath)
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr
			runErr := cmd.Run()

			exitCode := 0
			if runErr != nil {
				if ee, ok := runErr.(*exec.ExitError); ok {
					exitCode = ee.ExitCode()
				} else {
					t.Fatalf("running compiled program: %v", runErr)
				}
			}

			if gc.wantExitNonzero {
				if exitCode == 0 {
					t.Errorf("exit code = 0, want nonzero")
				}
			} else if exitCode != gc.wantExit {
				t.Errorf("exit code = %d, want %d", exitCode, gc.wantExit)
			}

			if gc.wantStdout != "" || !gc.wantExitNonzero {
				if got := strings.TrimRight(stdout.String(), "\n"); got != gc.wantStdout {
					t.Errorf("stdout = %q, want %q", got, gc.wantStdout)
				}
			}

			for _, want := range gc.wantStderrHas {
				if !strings.Contains(stderr.String(), want) {
					t.Errorf("stderr missing %q; got:\n%s", want, stderr.String())
				}
			}
		})
	}
}
