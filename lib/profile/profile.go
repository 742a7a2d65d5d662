// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package profile wires the Go runtime's profilers up to command-line
// flags, so that a slow matrix build can be looked at after the fact.
package profile

import (
	"io"
	"runtime/pprof"
	"runtime/trace"
)

type StopFunc = func() error

type startFunc = func(io.Writer) (StopFunc, error)

// CPU starts a CPU profile written to w.
func CPU(w io.Writer) (StopFunc, error) {
	if err := pprof.StartCPUProfile(w); err != nil {
		return nil, err
	}
	return func() error {
		pprof.StopCPUProfile()
		return nil
	}, nil
}

// Trace starts an execution trace (https://pkg.go.dev/runtime/trace)
// written to w.
func Trace(w io.Writer) (StopFunc, error) {
	if err := trace.Start(w); err != nil {
		return nil, err
	}
	return func() error {
		trace.Stop()
		return nil
	}, nil
}

// Named returns a startFunc that snapshots the named runtime/pprof
// profile to w when stopped.  Unknown names write nothing.
func Named(name string) startFunc {
	return func(w io.Writer) (StopFunc, error) {
		return func() error {
			if prof := pprof.Lookup(name); prof != nil {
				return prof.WriteTo(w, 0)
			}
			return nil
		}, nil
	}
}

type kind struct {
	name  string
	start startFunc
	usage string
}

// kinds are the profiles that get a flag, in flag order.
var kinds = []kind{
	{"cpu", CPU, "write a CPU profile to the file `cpu.pprof`"},
	{"trace", Trace, "write an execution trace to the file `trace.out`"},
	{"goroutine", Named("goroutine"), "write a goroutine profile to the file `goroutine.pprof`"},
	{"heap", Named("heap"), "write a heap profile to the file `heap.pprof`"},
	{"allocs", Named("allocs"), "write an allocs profile to the file `allocs.pprof`"},
	{"block", Named("block"), "write a block profile to the file `block.pprof`"},
	{"mutex", Named("mutex"), "write a mutex profile to the file `mutex.pprof`"},
}
