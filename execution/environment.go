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

// Package execution implements the running half of a node: the
// Environment a component's Process call sees (fused multi-source receive,
// named round-robin fan-out) and the NodeExecution scheduler that drives
// Process according to its Schedule and tears it down cooperatively.
package execution

import (
	"context"
	"reflect"
	"sync/atomic"

	"github.com/bittoy/cascade/connection"
	"github.com/bittoy/cascade/types"
)

// Environment is the concrete types.Environment every component sees.
// Built once per node start by the controller and shared by every worker
// of an Unbounded node, or used alone by an Interval node.
type Environment struct {
	inputs  []*connection.Connection
	outputs map[string][]*connection.Connection
	ignore  map[string]struct{}
	rr      map[string]*uint64

	// shutdown is a pointer into the owning NodeExecution's atomic flag,
	// so a Recv that observes the shutdown sentinel on the fused input
	// stream can flip it immediately for every future Recv/Send call on
	// this Environment, not just the one that saw the sentinel.
	shutdown *int32
}

// NewEnvironment builds an Environment. inputs is the fused receive set —
// it must include the node's private signal connection, indistinguishable
// from any other input except by the IsShutdown sentinel it alone carries.
// outputs groups the node's outgoing connections by routing name for
// round-robin fan-out. ignore lists output names that are not errors to
// send to when absent (DefaultConnectionName always belongs here).
func NewEnvironment(inputs []*connection.Connection, outputs map[string][]*connection.Connection, ignore map[string]struct{}, shutdown *int32) *Environment {
	rr := make(map[string]*uint64, len(outputs))
	for name := range outputs {
		var n uint64
		rr[name] = &n
	}
	return &Environment{inputs: inputs, outputs: outputs, ignore: ignore, rr: rr, shutdown: shutdown}
}

// Recv implements types.Environment. It fuses every input connection
// (including the private shutdown-signal connection) into one stream,
// picking fairly among whichever are ready via reflect.Select's documented
// pseudo-random tie-break. ctx is accepted for interface symmetry with
// Send but is deliberately not a cancellation source here: the only way to
// unblock a Recv-parked worker during shutdown is the explicit
// one-signal-per-worker protocol in NodeExecution.stop, not a ctx cancel —
// Send is the sole mandatory cancellation-aware suspension point.
func (e *Environment) Recv(ctx context.Context) (types.Item, error) {
	if atomic.LoadInt32(e.shutdown) != 0 {
		return types.Item{}, types.ErrComponentShutdown
	}
	if len(e.inputs) == 0 {
		return types.Item{}, types.ErrInputClosed
	}

	active := make([]*connection.Connection, len(e.inputs))
	copy(active, e.inputs)

	for len(active) > 0 {
		cases := make([]reflect.SelectCase, len(active))
		for i, c := range active {
			cases[i] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(c.Chan())}
		}
		idx, val, ok := reflect.Select(cases)

		var msg connection.Message
		if ok {
			msg = val.Interface().(connection.Message)
		}
		conn := active[idx]
		item, isShutdown, err := conn.Decode(msg, ok)
		if err != nil {
			// This connection's channel closed; it drops out of the fused
			// set for the remainder of this call. A later Recv starts again
			// from the full inputs list and drops it again the same way.
			active = append(active[:idx:idx], active[idx+1:]...)
			continue
		}
		if isShutdown {
			atomic.StoreInt32(e.shutdown, 1)
			return types.Item{}, types.ErrComponentShutdown
		}
		return item, nil
	}
	return types.Item{}, types.ErrInputClosed
}

// Send implements types.Environment.
func (e *Environment) Send(ctx context.Context, name string, item types.Item) error {
	if len(e.outputs) == 0 {
		return nil
	}
	conns := e.outputs[name]
	if len(conns) == 0 {
		if _, ignored := e.ignore[name]; ignored {
			return nil
		}
		return &types.MissingOutputError{Name: name}
	}

	counter := e.rr[name]
	n := atomic.AddUint64(counter, 1) - 1
	target := conns[n%uint64(len(conns))]
	err := target.SendCtx(ctx, item)
	if err != nil && ctx.Err() != nil {
		// A send preempted by cancellation (shutdown) reports as a closed
		// output.
		return types.ErrOutputClosed
	}
	return err
}

// SendDefault implements types.Environment.
func (e *Environment) SendDefault(ctx context.Context, item types.Item) error {
	return e.Send(ctx, types.DefaultConnectionName, item)
}

var _ types.Environment = (*Environment)(nil)
