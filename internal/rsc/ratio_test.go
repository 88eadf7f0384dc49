// Copyright © by Jeff Foley 2017-2025. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

package rsc

import "testing"

func TestRealQuickRatioIdentical(t *testing.T) {
	if got := RealQuickRatio("hello", "hello"); got != 1.0 {
		t.Errorf("identical strings: got %v, want 1.0", got)
	}
}

func TestRealQuickRatioDisjoint(t *testing.T) {
	if got := RealQuickRatio("aaaa", "bbbb"); got != 0.0 {
		t.Errorf("disjoint strings: got %v, want 0.0", got)
	}
}

func TestRealQuickRatioEmpty(t *testing.T) {
	if got := RealQuickRatio("", ""); got != 1.0 {
		t.Errorf("both empty: got %v, want 1.0", got)
	}
}

func TestRealQuickRatioPartial(t *testing.T) {
	// "ab" vs "ac": multiset intersection = {a} -> 1 match, total = 4.
	got := RealQuickRatio("ab", "ac")
	want := 0.5
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
