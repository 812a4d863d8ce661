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

// Package collecttest provides Collect, a terminal sink component used only
// by this module's own tests — never by production topologies — to
// observe what a pipeline actually emitted.
package collecttest

import (
	"context"
	"sync"

	"github.com/bittoy/cascade/types"
)

// Collect is a Processor that appends every item it receives to an
// in-memory, mutex-guarded slice and never calls Send, exercising the
// "zero outgoing edges" boundary case.
type Collect struct {
	mu    sync.Mutex
	items []types.Item
}

// NewCollect is a types.Factory for "collect"; config is ignored.
func NewCollect([]byte) (types.Component, error) {
	return &Collect{}, nil
}

// Process implements types.Component.
func (c *Collect) Process(ctx context.Context, env types.Environment) error {
	item, err := env.Recv(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.items = append(c.items, item)
	c.mu.Unlock()
	return nil
}

// Items returns a snapshot of every item collected so far.
func (c *Collect) Items() []types.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len reports how many items have been collected so far.
func (c *Collect) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

var _ types.Component = (*Collect)(nil)
