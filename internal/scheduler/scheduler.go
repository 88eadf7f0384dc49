// Copyright © by Jeff Foley 2017-2025. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.
// SPDX-License-Identifier: Apache-2.0

// Package scheduler implements the bounded in-flight fan-out described in
// spec.md §4.4/§5: at most Cap tasks in flight, first-to-finish result
// order, and a shared remainder counter decremented exactly once per
// completed task. Grounded on ESD.py's limited_concurrency_coroutines,
// translated into a semaphore-bounded goroutine pool draining through a
// github.com/caffix/queue.Queue the way the teacher's Resolvers wires its
// own producer/consumer queues (resolvers.go's r.queue/r.resps).
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/caffix/queue"
)

// doneMarker is the sentinel appended to the internal queue once every task has
// completed; it is never mistaken for a real result because it is a
// distinct, unexported type.
type doneMarker struct{}

// Scheduler runs up to Cap tasks concurrently.
type Scheduler struct {
	Cap int
}

// New returns a Scheduler with the given in-flight cap. A cap <= 0 is
// treated as 1 to guarantee forward progress.
func New(cap int) *Scheduler {
	if cap <= 0 {
		cap = 1
	}
	return &Scheduler{Cap: cap}
}

// Remainder is the live, diagnostic-only progress counter from spec.md
// §4.2's post-condition. It may be read concurrently with decrements.
type Remainder struct {
	n int64
}

// NewRemainder seeds a counter at n.
func NewRemainder(n int) *Remainder { return &Remainder{n: int64(n)} }

// Value returns the current remainder.
func (r *Remainder) Value() int64 { return atomic.LoadInt64(&r.n) }

func (r *Remainder) decrement() {
	if r != nil {
		atomic.AddInt64(&r.n, -1)
	}
}

// Run drives fn over every item in items, at most s.Cap concurrently, and
// streams each result on the returned channel in first-to-finish order.
// The channel is closed once every item has been dispatched and
// completed, or ctx is done. remainder, if non-nil, is decremented by
// exactly one per completed task regardless of outcome.
func Run[T any, R any](ctx context.Context, s *Scheduler, items []T, remainder *Remainder, fn func(context.Context, T) R) <-chan R {
	out := make(chan R)
	q := queue.NewQueue()

	go func() {
		sem := make(chan struct{}, s.Cap)
		var wg sync.WaitGroup

	dispatch:
		for _, item := range items {
			select {
			case <-ctx.Done():
				break dispatch
			case sem <- struct{}{}:
			}

			wg.Add(1)
			go func(it T) {
				defer wg.Done()
				defer func() { <-sem }()

				res := fn(ctx, it)
				remainder.decrement()
				q.Append(res)
			}(item)
		}

		wg.Wait()
		q.Append(doneMarker{})
	}()

	go func() {
		defer close(out)

		for {
			<-q.Signal()
			e, ok := q.Next()
			if !ok {
				continue
			}
			if _, isDone := e.(doneMarker); isDone {
				return
			}
			if r, ok := e.(R); ok {
				out <- r
			}
		}
	}()

	return out
}
