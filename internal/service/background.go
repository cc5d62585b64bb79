// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"log/slog"
	"sync"
)

// Background runs long jobs such as newsletter batches on goroutines bound
// to the server lifetime.
type Background struct {
	ctx context.Context
	wg  sync.WaitGroup
}

// NewBackground creates a runner whose jobs stop when ctx is cancelled.
func NewBackground(ctx context.Context) *Background {
	return &Background{ctx: ctx}
}

// Go starts fn in a goroutine. Panics are recovered and logged.
func (b *Background) Go(name string, fn func(ctx context.Context)) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("background job panicked", "job", name, "panic", r)
			}
		}()
		fn(b.ctx)
	}()
}

// Wait blocks until every started job has returned.
func (b *Background) Wait() {
	b.wg.Wait()
}
