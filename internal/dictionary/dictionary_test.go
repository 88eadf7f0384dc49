// Copyright © by Jeff Foley 2017-2025. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

package dictionary

import (
	"strings"
	"testing"
)

func TestExpandPlainLine(t *testing.T) {
	subs, err := Expand(strings.NewReader("www\nmail\n"))
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]bool{"www": true, "mail": true, Apex: true}
	if len(subs) != len(want) {
		t.Fatalf("got %d candidates, want %d: %v", len(subs), len(want), subs)
	}
	for _, s := range subs {
		if !want[s] {
			t.Errorf("unexpected candidate %q", s)
		}
	}
}

func TestExpandSkipsCommentsAndBlankLines(t *testing.T) {
	subs, err := Expand(strings.NewReader("# a comment\n\nwww\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 {
		t.Fatalf("got %d candidates, want 2 (www, @): %v", len(subs), subs)
	}
}

func TestExpandLetterNumberCounts(t *testing.T) {
	// spec.md §8 invariant 4: L letters and N digits yield 26^L * 10^N candidates.
	subs, err := Expand(strings.NewReader("server{letter}{number}\n"))
	if err != nil {
		t.Fatal(err)
	}
	// 26 letters * 10 digits + the apex sentinel.
	want := 26*10 + 1
	if len(subs) != want {
		t.Fatalf("got %d candidates, want %d", len(subs), want)
	}
}

func TestExpandLettersOnly(t *testing.T) {
	subs, err := Expand(strings.NewReader("x{letter}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 27 { // 26 letters + @
		t.Fatalf("got %d candidates, want 27", len(subs))
	}
}

func TestExpandDedupAcrossTemplates(t *testing.T) {
	subs, err := Expand(strings.NewReader("www\nwww\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 {
		t.Fatalf("got %d candidates, want 2 (www, @)", len(subs))
	}
}

func TestFQDN(t *testing.T) {
	if got := FQDN(Apex, "example.test"); got != "example.test" {
		t.Errorf("FQDN(@) = %q, want example.test", got)
	}
	if got := FQDN("www", "example.test"); got != "www.example.test" {
		t.Errorf("FQDN(www) = %q, want www.example.test", got)
	}
}
