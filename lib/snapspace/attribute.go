// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package snapspace

import (
	"fmt"

	"github.com/datawire/dlib/derror"
)

// ApplyAttribution converts, in place, a matrix of "bytes freed by
// deleting range (s, s+d)" into a matrix of "bytes held by exactly
// the snapshots in (s, s+d) and by no other snapshot".
//
// It is inclusion-exclusion: each range's raw value has the
// attributed value of every strict sub-range peeled off of it.  That
// only works if every sub-range is already attributed, so distances
// MUST be processed in increasing order.
//
// Nothing is clamped; if the storage layer reported inconsistent
// sizes then some cells end up negative.
func ApplyAttribution(m *Matrix) {
	n := m.Len()
	for d := 1; d < n; d++ {
		for s := 0; s+d < n; s++ {
			for x := 0; x < d; x++ {
				for y := s; y <= s+d-x; y++ {
					m.Sub(d, s, m.Get(x, y))
				}
			}
		}
	}
}

// Attribute is like ApplyAttribution, but returns a new matrix and
// leaves raw untouched.
func Attribute(raw *Matrix) *Matrix {
	ret := raw.Clone()
	ApplyAttribution(ret)
	return ret
}

// SubRanges returns every range contained in r, r itself included,
// ordered by distance and then by start.
func SubRanges(r Range) []Range {
	var ret []Range
	for x := 0; x <= r.Dist(); x++ {
		for y := r.Start; y+x <= r.End; y++ {
			ret = append(ret, Range{Start: y, End: y + x})
		}
	}
	return ret
}

// Anomalies returns the ranges whose attributed value is negative.
func Anomalies(attributed *Matrix) []Range {
	var ret []Range
	n := attributed.Len()
	for d := 0; d < n; d++ {
		for s := 0; s+d < n; s++ {
			if attributed.Get(d, s) < 0 {
				ret = append(ret, Range{Start: s, End: s + d})
			}
		}
	}
	return ret
}

// ConservationError is returned by CheckConservation for a range
// whose attributed sub-ranges do not add back up to its raw value.
type ConservationError struct {
	Range Range
	Raw   int64
	Sum   int64
}

func (e *ConservationError) Error() string {
	return fmt.Sprintf("range %v: attributed sub-ranges sum to %d, but deleting it frees %d",
		e.Range, e.Sum, e.Raw)
}

// CheckConservation verifies that for every range, the attributed
// values of it and all of its sub-ranges sum to the raw value of the
// range.
func CheckConservation(raw, attributed *Matrix) error {
	if raw.Len() != attributed.Len() {
		return fmt.Errorf("matrix size mismatch: raw N=%d, attributed N=%d", raw.Len(), attributed.Len())
	}
	var errs derror.MultiError
	n := raw.Len()
	for d := 0; d < n; d++ {
		for s := 0; s+d < n; s++ {
			r := Range{Start: s, End: s + d}
			var sum int64
			for _, sub := range SubRanges(r) {
				sum += attributed.GetRange(sub)
			}
			if sum != raw.GetRange(r) {
				errs = append(errs, &ConservationError{
					Range: r,
					Raw:   raw.GetRange(r),
					Sum:   sum,
				})
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
