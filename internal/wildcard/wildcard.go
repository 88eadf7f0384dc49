// Copyright © by Jeff Foley 2017-2025. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

// Package wildcard implements the wildcard oracle from spec.md §4.3: a
// single, sequential probe of every DNS server with a guaranteed-
// nonexistent label, producing the baseline later phases classify
// against.
package wildcard

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sort"
	"time"

	"github.com/miekg/dns"

	"github.com/Jerusalemsbell/ESD/internal/resolver"
)

// Baseline captures the wildcard oracle's findings, per spec.md §3.
type Baseline struct {
	Label         string // the synthesized nonexistent label, e.g. "feei-esd-1234"
	IsWildcard    bool
	IPs           []string // sorted; wildcard_ips
	HTML          string   // wildcard_html
	HTMLLen       int
	HTMLCaptured  bool
	Disagreement  bool // true when servers did not all agree
}

// HasIPs reports whether ips is identical to the baseline's wildcard IP set.
func (b *Baseline) HasIPs(ips []string) bool {
	if len(ips) != len(b.IPs) {
		return false
	}
	cp := append([]string(nil), ips...)
	sort.Strings(cp)
	for i, v := range cp {
		if v != b.IPs[i] {
			return false
		}
	}
	return true
}

// HTTPHeaders are the fixed request headers from spec.md §6.
var HTTPHeaders = map[string]string{
	"Connection":                "keep-alive",
	"Pragma":                    "no-cache",
	"Cache-Control":             "no-cache",
	"Upgrade-Insecure-Requests": "1",
	"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_13_3) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/64.0.3282.186 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8",
	"DNT":                       "1",
	"Referer":                   "http://www.baidu.com/robot",
	"Accept-Encoding":           "gzip, deflate",
	"Accept-Language":           "zh-CN,zh;q=0.9,en;q=0.8",
}

// Logger is the minimal logging surface the oracle needs, satisfied by
// *zap.SugaredLogger.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Detect runs the oracle described in spec.md §4.3 against domain, binding
// a fresh single-server client for each server in servers. stable is the
// subset whose agreement is authoritative on disagreement.
func Detect(ctx context.Context, domain string, servers, stable []string, timeout time.Duration, log Logger) *Baseline {
	label := fmt.Sprintf("feei-esd-%04d", rand.Intn(10000))
	stableSet := make(map[string]bool, len(stable))
	for _, s := range stable {
		stableSet[s] = true
	}

	var results [][]string // nil entries mean "no result"
	var stableResult []string
	var stableFound bool
	var sawAny bool

	client := &dns.Client{Net: "udp", Timeout: timeout}
	for _, addr := range servers {
		res := resolver.QueryAt(ctx, client, resolver.WithPort(addr), dictFQDN(label, domain), label)
		var ips []string
		if res.Kind == resolver.FailureNone {
			ips = res.IPs
			sawAny = true
		}
		if log != nil {
			log.Infof("wildcard probe %s %s %v", addr, label, ips)
		}
		results = append(results, ips)
		if stableSet[addr] {
			stableResult = ips
			stableFound = true
		}
	}

	agree := allEqual(results)
	b := &Baseline{Label: label, IsWildcard: sawAny, Disagreement: !agree}

	if !sawAny {
		return b
	}

	if stableFound && stableResult != nil {
		b.IPs = stableResult
	} else if len(results) > 0 {
		b.IPs = results[0]
	}
	sort.Strings(b.IPs)

	body, err := fetchWildcardHTML(ctx, label, domain, timeout)
	if err != nil {
		if log != nil {
			log.Warnf("wildcard HTML fetch failed for %s.%s: %v", label, domain, err)
		}
		return b
	}
	b.HTML = body
	b.HTMLLen = len(body)
	b.HTMLCaptured = true
	return b
}

func fetchWildcardHTML(ctx context.Context, label, domain string, timeout time.Duration) (string, error) {
	url := fmt.Sprintf("http://%s.%s/", label, domain)

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	for k, v := range HTTPHeaders {
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func allEqual(results [][]string) bool {
	if len(results) == 0 {
		return true
	}
	first := joinSorted(results[0])
	for _, r := range results[1:] {
		if joinSorted(r) != first {
			return false
		}
	}
	return true
}

func joinSorted(ips []string) string {
	if ips == nil {
		return "\x00nil"
	}
	cp := append([]string(nil), ips...)
	sort.Strings(cp)
	out := ""
	for _, v := range cp {
		out += v + ","
	}
	return out
}

func dictFQDN(label, domain string) string {
	return label + "." + domain
}
