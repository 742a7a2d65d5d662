// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package fmtutil implements helpers for writing fmt.Formatter
// implementations.
package fmtutil

import (
	"fmt"
	"strings"
)

func writeFlagsWidth(ret *strings.Builder, st fmt.State) {
	ret.WriteByte('%')
	for _, flag := range []int{'-', '+', '#', ' ', '0'} {
		if st.Flag(flag) {
			ret.WriteByte(byte(flag))
		}
	}
	if width, ok := st.Width(); ok {
		fmt.Fprintf(ret, "%v", width)
	}
}

// FmtStateString returns the fmt.Printf string that produced a given
// fmt.State and verb.
func FmtStateString(st fmt.State, verb rune) string {
	var ret strings.Builder
	writeFlagsWidth(&ret, st)
	if prec, ok := st.Precision(); ok {
		if prec == 0 {
			ret.WriteByte('.')
		} else {
			fmt.Fprintf(&ret, ".%v", prec)
		}
	}
	ret.WriteRune(verb)
	return ret.String()
}

// FmtStateStringNoPrec is like FmtStateString, but drops the
// precision; for a Formatter that has already consumed the precision
// and is now padding the result as a string.
func FmtStateStringNoPrec(st fmt.State, verb rune) string {
	var ret strings.Builder
	writeFlagsWidth(&ret, st)
	ret.WriteRune(verb)
	return ret.String()
}
