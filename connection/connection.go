/*
 * Copyright 2025 The Cascade Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package connection implements the bounded FIFO edges of the graph: a
// buffered channel of items plus an immediate shutdown sentinel, with
// prometheus-instrumented queue depth and exclusive receiver lending so at
// most one goroutine ever drains a given connection at a time.
package connection

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bittoy/cascade/types"
)

// Message is the sum type carried on the channel: either an Item or the
// shutdown sentinel, never both. Exported so the execution package's
// reflect.Select-based fused receive can type-assert values pulled off
// Chan() without this package needing to know about fan-in at all.
type Message struct {
	Item       types.Item
	IsShutdown bool
}

// Connection is one live edge: a capacity-bounded channel plus the
// bookkeeping needed to report its depth and to lend its receiving end to
// exactly one fused-receive loop at a time.
//
// Connection 是图中一条存活的边：一个有容量上限的通道，外加报告其深度，
// 以及每次只将其接收端出借给一个融合接收循环所需的记账信息。
type Connection struct {
	id       string
	name     string
	maxItems int

	ch      chan Message
	depth   int64 // atomic, approximate — see Len
	metrics types.MetricsRecorder

	mu       sync.Mutex
	lent     bool
	closed   bool
}

// New creates a Connection with the given id (used only for metrics
// labeling), routing name, and capacity. recorder may be nil, in which case
// depth updates are simply skipped.
func New(id, name string, maxItems int, recorder types.MetricsRecorder) *Connection {
	return &Connection{
		id:       id,
		name:     name,
		maxItems: maxItems,
		ch:       make(chan Message, maxItems),
		metrics:  recorder,
	}
}

// Name returns the connection's routing name (e.g. "default").
func (c *Connection) Name() string { return c.name }

// ID returns the connection's identity string.
func (c *Connection) ID() string { return c.id }

// Send enqueues item, blocking if the channel is at capacity until space
// frees up. Returns types.ErrOutputClosed if the connection was already
// closed when the send began; Close must not race with a send (see Close).
func (c *Connection) Send(item types.Item) error {
	return c.SendCtx(context.Background(), item)
}

// SendCtx is Send with a cancellation-aware suspension point: a blocked
// send on a full connection unblocks as soon as ctx is done, returning
// ctx.Err(). This is the mandatory suspension point the execution package's
// shutdown protocol relies on to wake a worker parked on a full output
// channel.
func (c *Connection) SendCtx(ctx context.Context, item types.Item) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return types.ErrOutputClosed
	}
	c.mu.Unlock()

	select {
	case c.ch <- Message{Item: item}:
		n := atomic.AddInt64(&c.depth, 1)
		c.reportDepth(n)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendShutdown enqueues the shutdown sentinel. The sentinel counts against
// channel capacity like any other message (but not against Len), so it
// blocks while the channel is full; in the spliced-in signal connection
// used during shutdown the channel carries nothing else.
func (c *Connection) SendShutdown() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return types.ErrOutputClosed
	}
	c.mu.Unlock()

	c.ch <- Message{IsShutdown: true}
	return nil
}

// Recv is the low-level receive primitive: it returns the next message
// (item or shutdown) or reports that the channel has closed. Most callers
// should go through execution.Environment's fused receive instead of
// calling this directly on more than one connection at a time.
func (c *Connection) Recv() (types.Item, bool, error) {
	msg, ok := <-c.ch
	return c.Decode(msg, ok)
}

// Chan exposes the underlying channel for use in a reflect.Select-based
// fused receive loop. The execution package is the only intended caller.
func (c *Connection) Chan() <-chan Message { return c.ch }

// Decode converts a raw Message pulled off Chan() into the Recv() return
// shape, keeping the depth bookkeeping in one place.
func (c *Connection) Decode(msg Message, ok bool) (types.Item, bool, error) {
	if !ok {
		return types.Item{}, false, types.ErrInputClosed
	}
	if msg.IsShutdown {
		return types.Item{}, true, nil
	}
	n := atomic.AddInt64(&c.depth, -1)
	c.reportDepth(n)
	return msg.Item, false, nil
}

// Close closes the underlying channel. Safe to call at most once; callers
// (the controller, tearing down a removed connection) must ensure no
// further Send/SendShutdown calls race with Close.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// Len reports the approximate current buffered item count. It is
// approximate because depth is updated just after the channel operation
// completes, not atomically with it; callers needing an exact count should
// rely on len(ch) semantics only as a monitoring signal, never for
// correctness.
func (c *Connection) Len() int {
	return int(atomic.LoadInt64(&c.depth))
}

// MaxItems returns the connection's configured capacity.
func (c *Connection) MaxItems() int { return c.maxItems }

func (c *Connection) reportDepth(n int64) {
	if c.metrics != nil {
		c.metrics.ConnectionDepth(c.id, c.name, int(n))
	}
}

// AcquireReceiver lends exclusive receive rights to the caller, returning
// false if another execution already holds them. Pairs with ReleaseReceiver.
// This is the per-edge mutex the controller uses to guarantee at most one
// fused-receive loop drains a connection at a time, even across a
// stop-then-restart of the downstream node.
func (c *Connection) AcquireReceiver() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lent {
		return false
	}
	c.lent = true
	return true
}

// ReleaseReceiver gives back the receive rights acquired by AcquireReceiver.
func (c *Connection) ReleaseReceiver() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lent = false
}
