// Copyright © by Jeff Foley 2017-2025. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

package rsc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProbeLengthEqualityShortcut(t *testing.T) {
	wildcard := "catch-all page body"
	// same length, different content -> still ratio 1.0 via the shortcut.
	same := "catch-all page-body"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(same))
	}))
	defer srv.Close()

	p := NewProber("example.test", wildcard, Headers{"User-Agent": "test"})
	v := p.probeURL(context.Background(), srv.URL, "mail")

	if v.Ratio != 1.0 {
		t.Errorf("ratio = %v, want 1.0 (length-equality shortcut)", v.Ratio)
	}
	if v.Admitted {
		t.Error("a page identical in length to the wildcard body should be rejected")
	}
}

func TestProbeAdmitsDissimilarBody(t *testing.T) {
	wildcard := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	distinct := "this is a totally different real website with unique content zzzzzzzzzzz"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(distinct))
	}))
	defer srv.Close()

	p := NewProber("example.test", wildcard, nil)
	v := p.probeURL(context.Background(), srv.URL, "mail")

	if !v.Admitted {
		t.Errorf("expected a dissimilar body to be admitted, ratio=%v", v.Ratio)
	}
	if v.Body != distinct {
		t.Errorf("got body %q, want %q", v.Body, distinct)
	}
}

func TestProbeTransportFault(t *testing.T) {
	p := NewProber("example.test", "anything", nil)
	v := p.probeURL(context.Background(), "http://127.0.0.1:1/", "mail")

	if v.Err == nil {
		t.Error("expected a transport error for an unreachable server")
	}
	if v.Admitted {
		t.Error("a transport fault must never be admitted")
	}
}
