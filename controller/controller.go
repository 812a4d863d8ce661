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

// Package controller implements the coordinator that owns the graph, the
// live connections, and the running node executions, and exposes the Go
// API a wire-layer (deliberately not shipped here) would sit in front of.
package controller

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/bittoy/cascade/connection"
	"github.com/bittoy/cascade/execution"
	"github.com/bittoy/cascade/graph"
	"github.com/bittoy/cascade/types"
)

// Controller coordinates every mutation of the graph and every node
// lifecycle transition. A zero Controller is not usable; build one with
// New.
//
// Controller 协调图的每一次变更和每一次节点生命周期转换。
type Controller struct {
	mu sync.RWMutex

	config types.Config
	graph  *graph.Graph

	connections map[types.EdgeIndex]*connection.Connection
	executions  map[types.NodeIndex]*execution.NodeExecution
	instances   map[types.NodeIndex]types.InstanceMeta
}

// New builds an empty Controller using cfg for logging, component
// resolution, and metrics.
func New(cfg types.Config) *Controller {
	return &Controller{
		config:      cfg,
		graph:       graph.New(),
		connections: make(map[types.EdgeIndex]*connection.Connection),
		executions:  make(map[types.NodeIndex]*execution.NodeExecution),
		instances:   make(map[types.NodeIndex]types.InstanceMeta),
	}
}

func newID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Sprintf("id-%p", &id)
	}
	return id.String()
}

// AddComponent validates def (filling in a default Schedule if the caller
// left it zero, and an id if left blank) and adds it to the graph as a new
// node. It does not instantiate or start the component — that happens on
// StartComponent — but it does verify def.TypeName is registered, so a
// topology built entirely from unknown types fails fast at graph-build time
// rather than only once someone tries to start it.
func (c *Controller) AddComponent(def types.ComponentDefinition) (types.NodeIndex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if def.ID == "" {
		def.ID = newID()
	}
	if def.Schedule.Kind == "" {
		def.Schedule = types.DefaultSchedule()
	}
	if err := def.Schedule.Validate(); err != nil {
		return 0, err
	}
	if !c.config.Registry.Has(def.TypeName) {
		return 0, &types.MissingComponentError{TypeName: def.TypeName}
	}

	return c.graph.AddNode(def), nil
}

// RemoveComponent removes the node at idx. It fails with types.ErrNotFound
// if no such node exists, with types.ErrComponentRunning if the node is
// currently started, or with types.ErrHasEdges (propagated from the graph)
// if any connection still touches it.
func (c *Controller) RemoveComponent(idx types.NodeIndex) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, running := c.executions[idx]; running {
		return types.ErrComponentRunning
	}
	if err := c.graph.RemoveNode(idx); err != nil {
		if errors.Is(err, types.ErrInvalidNodeIndex) {
			return types.ErrNotFound
		}
		return err
	}
	return nil
}

// AddConnection validates def (filling in defaults), verifies neither
// endpoint is currently running, adds the edge to the graph, and
// instantiates the live connection.Connection backing it.
func (c *Controller) AddConnection(def types.ConnectionDefinition) (types.EdgeIndex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if def.ID == "" {
		def.ID = newID()
	}
	if err := def.Normalize(); err != nil {
		return 0, err
	}
	if _, running := c.executions[def.Source]; running {
		return 0, types.ErrEndpointRunning
	}
	if _, running := c.executions[def.Target]; running {
		return 0, types.ErrEndpointRunning
	}

	idx, err := c.graph.AddEdge(def)
	if err != nil {
		return 0, err
	}
	c.connections[idx] = connection.New(def.ID, def.Name, def.MaxItems, c.config.Metrics)
	return idx, nil
}

// RemoveConnection removes the edge at idx, closing its live connection.
// Fails with types.ErrNotFound if no such edge exists, or with
// types.ErrEndpointRunning if either endpoint is currently running.
func (c *Controller) RemoveConnection(idx types.EdgeIndex) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	def, err := c.graph.Edge(idx)
	if err != nil {
		if errors.Is(err, types.ErrInvalidEdgeIndex) {
			return types.ErrNotFound
		}
		return err
	}
	if _, running := c.executions[def.Source]; running {
		return types.ErrEndpointRunning
	}
	if _, running := c.executions[def.Target]; running {
		return types.ErrEndpointRunning
	}

	if err := c.graph.RemoveEdge(idx); err != nil {
		return err
	}
	if conn, ok := c.connections[idx]; ok {
		conn.Close()
		delete(c.connections, idx)
	}
	return nil
}

// ListNodes returns every live NodeIndex.
func (c *Controller) ListNodes() []types.NodeIndex {
	return c.graph.Nodes()
}

// ListConnections returns every live EdgeIndex.
func (c *Controller) ListConnections() []types.EdgeIndex {
	return c.graph.Edges()
}

// ListComponentTypes returns every type_name known to the configured
// Registry.
func (c *Controller) ListComponentTypes() []string {
	return c.config.Registry.TypeNames()
}

// ConnectionStats reports the current buffered depth and configured
// capacity of the connection at idx.
func (c *Controller) ConnectionStats(idx types.EdgeIndex) (depth int, maxItems int, err error) {
	c.mu.RLock()
	conn, ok := c.connections[idx]
	c.mu.RUnlock()
	if !ok {
		return 0, 0, types.ErrInvalidEdgeIndex
	}
	return conn.Len(), conn.MaxItems(), nil
}

// IsRunning reports whether the node at idx currently has an execution.
func (c *Controller) IsRunning(idx types.NodeIndex) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.executions[idx]
	return ok
}
