// Copyright © by Jeff Foley 2017-2025. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

package rsc

import "unicode/utf8"

// RealQuickRatio reproduces Python difflib.SequenceMatcher.real_quick_ratio:
// the character-multiset upper bound on sequence similarity,
// 2*|multiset intersection| / (len(a)+len(b)). This is an O(n)
// approximation chosen deliberately over an exact edit-distance ratio for
// throughput (spec.md §4.5/§9) — no library in the retrieved pack
// reproduces this specific counting semantics, so it is implemented
// directly against the character-count primitives below.
func RealQuickRatio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1.0
	}

	counts := make(map[rune]int, len(a))
	for _, r := range a {
		counts[r]++
	}

	var common int
	for _, r := range b {
		if counts[r] > 0 {
			counts[r]--
			common++
		}
	}
	// common above only counts matches found scanning b against a's
	// multiset; add the symmetric count found scanning a against b's
	// multiset is unnecessary because each matched rune consumes one unit
	// from each string, so the matched amount is already min(count_a,count_b)
	// summed over the alphabet, i.e. |multiset intersection|.
	return round3(float64(2*common) / float64(total))
}

func round3(f float64) float64 {
	const scale = 1000.0
	if f >= 0 {
		return float64(int(f*scale+0.5)) / scale
	}
	return float64(int(f*scale-0.5)) / scale
}
