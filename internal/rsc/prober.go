// Copyright © by Jeff Foley 2017-2025. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

// Package rsc implements the Response-Similarity Classifier from spec.md
// §4.5: an HTTP-body similarity fallback that distinguishes real content
// from a wildcard domain's catch-all page. Grounded on ESD.py's
// similarity()/distinct() methods.
package rsc

import (
	"context"
	"io"
	"net/http"
	"time"
)

// DefaultRatio is the admission threshold from spec.md §4.5.
const DefaultRatio = 0.8

// DefaultTimeout bounds a single probe's overall GET, per spec.md §4.5.
const DefaultTimeout = 10 * time.Second

// Headers are the fixed request headers from spec.md §6.
type Headers map[string]string

// Prober fetches and classifies one candidate's HTTP response against a
// captured wildcard baseline.
type Prober struct {
	Domain       string
	WildcardHTML string
	WildcardLen  int
	Ratio        float64
	Timeout      time.Duration
	Headers      Headers
	Client       *http.Client
}

// NewProber builds a Prober with the spec.md defaults.
func NewProber(domain, wildcardHTML string, headers Headers) *Prober {
	return &Prober{
		Domain:       domain,
		WildcardHTML: wildcardHTML,
		WildcardLen:  len(wildcardHTML),
		Ratio:        DefaultRatio,
		Timeout:      DefaultTimeout,
		Headers:      headers,
		Client:       &http.Client{Timeout: DefaultTimeout},
	}
}

// Verdict is the outcome of probing a single candidate.
type Verdict struct {
	Sub      string
	Admitted bool
	Ratio    float64
	Body     string
	Err      error // non-nil only for silent-drop transport faults
}

// Probe fetches http://sub.Domain/ and classifies it against the captured
// wildcard body. Any transport fault is reported via Verdict.Err and
// Admitted=false; callers treat this the same as "reject" (spec.md §4.5
// step 2: "Any fault... abandon this candidate silently").
func (p *Prober) Probe(ctx context.Context, sub string) Verdict {
	return p.probeURL(ctx, "http://"+sub+"."+p.Domain+"/", sub)
}

// probeURL is Probe's implementation, taking an explicit URL so tests can
// point it at an httptest.Server without needing real DNS resolution.
func (p *Prober) probeURL(ctx context.Context, url, sub string) Verdict {
	reqCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return Verdict{Sub: sub, Err: err}
	}
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return Verdict{Sub: sub, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Verdict{Sub: sub, Err: err}
	}
	html := string(body)

	var ratio float64
	if len(html) == p.WildcardLen {
		// Length-equality shortcut from spec.md §4.5 step 3: avoids the
		// O(n) comparison for the common catch-all case.
		ratio = 1.0
	} else {
		ratio = RealQuickRatio(html, p.WildcardHTML)
	}

	return Verdict{
		Sub:      sub,
		Admitted: ratio <= p.Ratio,
		Ratio:    ratio,
		Body:     html,
	}
}
