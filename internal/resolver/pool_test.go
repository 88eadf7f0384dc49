// Copyright © by Jeff Foley 2017-2025. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

package resolver

import "testing"

func TestNewShufflesCopy(t *testing.T) {
	in := []string{"1.1.1.1", "8.8.8.8", "9.9.9.9"}
	p := New(in)

	in[0] = "mutated"
	for _, s := range p.Servers() {
		if s == "mutated" {
			t.Fatal("pool retained a reference to the caller's slice")
		}
	}
	if len(p.Servers()) != 3 {
		t.Fatalf("got %d servers, want 3", len(p.Servers()))
	}
}

func TestRestrictTo(t *testing.T) {
	p := New([]string{"1.1.1.1", "8.8.8.8", "9.9.9.9"})
	p.RestrictTo([]string{"114.114.114.114"})

	servers := p.Servers()
	if len(servers) != 1 || servers[0] != "114.114.114.114" {
		t.Fatalf("RestrictTo did not narrow the pool: %v", servers)
	}
}

func TestWithPortAddsDefault(t *testing.T) {
	if got := withPort("8.8.8.8"); got != "8.8.8.8:53" {
		t.Errorf("withPort(8.8.8.8) = %q, want 8.8.8.8:53", got)
	}
	if got := withPort("8.8.8.8:5353"); got != "8.8.8.8:5353" {
		t.Errorf("withPort(8.8.8.8:5353) = %q, want unchanged", got)
	}
}

func TestQueryNoServersErrors(t *testing.T) {
	p := New(nil)
	res := p.Query(nil, "www", "example.test") //nolint:staticcheck // nil ctx unused on this path

	if res.Kind != FailureOther || res.Err == nil {
		t.Fatalf("expected FailureOther with an error, got %+v", res)
	}
}
