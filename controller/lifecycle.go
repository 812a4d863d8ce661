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

package controller

import (
	"context"

	"github.com/bittoy/cascade/connection"
	"github.com/bittoy/cascade/execution"
	"github.com/bittoy/cascade/graph"
	"github.com/bittoy/cascade/types"
)

// signalCapacity is the buffer depth of a node's private shutdown-signal
// connection: one pending sentinel is all the stop protocol ever needs in
// flight at a time, since it sends one and joins one before sending the
// next.
const signalCapacity = 1

// StartComponent instantiates the node's component from the registry,
// wires its Environment (fused input set including a fresh private
// shutdown-signal connection, outputs grouped by routing name for
// round-robin fan-out), and launches its worker(s). Fails with
// types.ErrAlreadyRunning if already started, or types.ErrEndpointRunning
// if an incoming connection's receiver is already lent elsewhere (which
// should only happen if internal bookkeeping has drifted, since a
// connection is only ever lent to the one execution reading it). On
// success it returns the derived types.InstanceMeta for the freshly
// instantiated component: a new ID every call, but the same TypeName,
// DisplayName, and ComponentType as the node's definition, so a
// Start -> Stop -> Start round trip on the same index is observable as
// "new instance, same identity" from the returned metadata alone.
func (c *Controller) StartComponent(ctx context.Context, idx types.NodeIndex) (types.InstanceMeta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, running := c.executions[idx]; running {
		return types.InstanceMeta{}, types.ErrAlreadyRunning
	}
	def, err := c.graph.Node(idx)
	if err != nil {
		return types.InstanceMeta{}, err
	}

	inEdges, err := c.graph.Incident(idx, graph.Incoming)
	if err != nil {
		return types.InstanceMeta{}, err
	}
	outEdges, err := c.graph.Incident(idx, graph.Outgoing)
	if err != nil {
		return types.InstanceMeta{}, err
	}

	inputs := make([]*connection.Connection, 0, len(inEdges))
	for _, e := range inEdges {
		conn := c.connections[e]
		if !conn.AcquireReceiver() {
			for _, acquired := range inputs {
				acquired.ReleaseReceiver()
			}
			return types.InstanceMeta{}, types.ErrEndpointRunning
		}
		inputs = append(inputs, conn)
	}

	outputs := make(map[string][]*connection.Connection)
	for _, e := range outEdges {
		def, derr := c.graph.Edge(e)
		if derr != nil {
			continue
		}
		outputs[def.Name] = append(outputs[def.Name], c.connections[e])
	}

	signal := connection.New(newID(), "__signal__", signalCapacity, nil)
	inputs = append(inputs, signal)

	component, err := c.config.Registry.New(def.TypeName, def.Config)
	if err != nil {
		for _, conn := range inputs {
			if conn != signal {
				conn.ReleaseReceiver()
			}
		}
		return types.InstanceMeta{}, err
	}

	ignore := map[string]struct{}{types.DefaultConnectionName: {}}
	env := execution.NewEnvironment(inputs, outputs, ignore, nil)
	ne := execution.New(idx, def, component, env, signal, c.config.Logger, c.config.Metrics)
	ne.Start()

	c.executions[idx] = ne
	meta := types.InstanceMeta{
		ID:            newID(),
		TypeName:      def.TypeName,
		DisplayName:   def.DisplayName,
		ComponentType: def.ComponentType,
	}
	c.instances[idx] = meta
	return meta, nil
}

// StopComponent cooperatively shuts down the node at idx and releases its
// incoming connections' receiver leases. The long-running join inside
// NodeExecution.Stop happens with the controller's lock released, so other
// topology operations are not blocked on one node's shutdown. On success it
// returns the types.InstanceMeta of the instance that was just stopped.
func (c *Controller) StopComponent(ctx context.Context, idx types.NodeIndex) (types.InstanceMeta, error) {
	c.mu.Lock()
	ne, ok := c.executions[idx]
	if !ok {
		c.mu.Unlock()
		return types.InstanceMeta{}, types.ErrComponentNotStarted
	}
	delete(c.executions, idx)
	meta := c.instances[idx]
	delete(c.instances, idx)

	inEdges, err := c.graph.Incident(idx, graph.Incoming)
	if err != nil {
		c.mu.Unlock()
		return types.InstanceMeta{}, err
	}
	inputConns := make([]*connection.Connection, 0, len(inEdges))
	for _, e := range inEdges {
		if conn, ok := c.connections[e]; ok {
			inputConns = append(inputConns, conn)
		}
	}
	c.mu.Unlock()

	stopErr := ne.Stop(ctx)
	for _, conn := range inputConns {
		conn.ReleaseReceiver()
	}
	if stopErr != nil {
		return types.InstanceMeta{}, stopErr
	}
	return meta, nil
}
