// Copyright (C) 2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package zfsutil

import (
	"context"

	"github.com/pmezard/go-difflib/difflib"

	"git.lukeshu.com/zfs-snapspace/lib/slices"
)

// SuggestionCutoff is the minimum similarity (0..1) for a dataset
// name to be offered as a suggestion.
const SuggestionCutoff = 0.6

// ValidateDataset returns nil if the dataset exists, and a
// *DatasetNotFoundError otherwise.
func ValidateDataset(ctx context.Context, oracle Oracle, name string) error {
	datasets, err := oracle.ListDatasets(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(name, datasets) {
		return nil
	}
	return &DatasetNotFoundError{
		Name:       name,
		Suggestion: ClosestMatch(name, datasets, SuggestionCutoff),
	}
}

// ClosestMatch returns the candidate most similar to word, or "" if
// none reaches cutoff.  Ties go to the earlier candidate.
func ClosestMatch(word string, candidates []string, cutoff float64) string {
	var (
		best      string
		bestRatio = cutoff
		found     bool
	)
	wordSeq := splitChars(word)
	matcher := difflib.NewMatcher(nil, nil)
	matcher.SetSeq2(wordSeq)
	for _, candidate := range candidates {
		matcher.SetSeq1(splitChars(candidate))
		if matcher.RealQuickRatio() < bestRatio || matcher.QuickRatio() < bestRatio {
			continue
		}
		ratio := matcher.Ratio()
		if ratio > bestRatio || (!found && ratio >= bestRatio) {
			best, bestRatio, found = candidate, ratio, true
		}
	}
	return best
}

func splitChars(s string) []string {
	ret := make([]string, 0, len(s))
	for _, r := range s {
		ret = append(ret, string(r))
	}
	return ret
}
