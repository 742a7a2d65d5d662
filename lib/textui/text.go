// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package textui implements utilities for emitting human-friendly
// text on stdout and stderr.
package textui

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"golang.org/x/exp/constraints"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"git.lukeshu.com/zfs-snapspace/lib/fmtutil"
)

var printer = message.NewPrinter(language.English)

// Fprintf is like `fmt.Fprintf`, but (1) includes the extensions of
// `golang.org/x/text/message.Printer`, and (2) is useful for marking
// when a print call is part of the UI, rather than something
// internal.
func Fprintf(w io.Writer, key string, a ...any) (n int, err error) {
	return printer.Fprintf(w, key, a...)
}

// Sprintf is like `fmt.Sprintf`, but (1) includes the extensions of
// `golang.org/x/text/message.Printer`, and (2) is useful for marking
// when a sprint call is part of the UI, rather than something
// internal.
func Sprintf(key string, a ...any) string {
	return printer.Sprintf(key, a...)
}

////////////////////////////////////////////////////////////////////////////////

// Humanized wraps a value such that formatting of it can make use of
// the `golang.org/x/text/message.Printer` extensions even when used
// with plain-old `fmt`.
func Humanized(x any) any {
	return humanized{val: x}
}

type humanized struct {
	val any
}

var (
	_ fmt.Formatter = humanized{}
	_ fmt.Stringer  = humanized{}
)

// Format implements fmt.Formatter.
func (h humanized) Format(f fmt.State, verb rune) {
	_, _ = printer.Fprintf(f, fmtutil.FmtStateString(f, verb), h.val)
}

// String implements fmt.Stringer.
func (h humanized) String() string {
	return fmt.Sprint(h)
}

////////////////////////////////////////////////////////////////////////////////

// Portion renders a fraction N/D as both a percentage and
// parenthetically as the exact fractional value, rendered with
// human-friendly commas.
//
// For example:
//
//	fmt.Sprint(Portion[int]{N: 1, D: 12345}) ⇒ "0% (1/12,345)"
type Portion[T constraints.Integer] struct {
	N, D T
}

var _ fmt.Stringer = Portion[int]{}

// String implements fmt.Stringer.
func (p Portion[T]) String() string {
	pct := uint64(100)
	if p.D > 0 {
		pct = (uint64(p.N) * 100) / uint64(p.D)
	}
	return printer.Sprintf("%d%% (%v/%v)", pct, uint64(p.N), uint64(p.D))
}

////////////////////////////////////////////////////////////////////////////////

var iecPrefixes = []string{
	"Ki",
	"Mi",
	"Gi",
	"Ti",
	"Pi",
	"Ei",
}

// Bytes is a byte count that renders with binary (IEC) prefixes:
//
//	fmt.Sprint(Bytes(512))             ⇒ "512 B"
//	fmt.Sprint(Bytes(15139759718))     ⇒ "14.1 GiB"
//	fmt.Sprint(Bytes(-20))             ⇒ "-20 B"
//
// Counts below 1 KiB are printed exactly; larger counts get one
// decimal place, or the precision given to the %v verb.
type Bytes int64

var (
	_ fmt.Formatter = Bytes(0)
	_ fmt.Stringer  = Bytes(0)
)

// Format implements fmt.Formatter.
func (b Bytes) Format(f fmt.State, verb rune) {
	var str string
	switch verb {
	case 'd':
		str = strconv.FormatInt(int64(b), 10)
	default:
		prec, ok := f.Precision()
		if !ok {
			prec = 1
		}
		str = b.format(prec)
	}
	_, _ = fmt.Fprintf(f, fmtutil.FmtStateStringNoPrec(f, 's'), str)
}

// String implements fmt.Stringer.
func (b Bytes) String() string {
	return b.format(1)
}

func (b Bytes) format(prec int) string {
	val := float64(b)
	if math.Abs(val) < 1024 {
		return strconv.FormatInt(int64(b), 10) + " B"
	}
	var prefix string
	for i := 0; math.Abs(val) >= 1024 && i < len(iecPrefixes); i++ {
		val /= 1024
		prefix = iecPrefixes[i]
	}
	return strconv.FormatFloat(val, 'f', prec, 64) + " " + prefix + "B"
}
