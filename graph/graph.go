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

// Package graph implements a stable-index directed multigraph: once
// assigned, a NodeIndex or EdgeIndex is never reused for a different
// node/edge, even after the original is removed, for as long as the graph
// itself is alive. That stability is what lets the controller package keep
// long-lived Execution records keyed by NodeIndex without ever risking a
// stale index silently resolving to an unrelated node.
//
// 包 graph 实现了一个稳定索引的有向多重图：一旦分配，NodeIndex 或
// EdgeIndex 就绝不会在图存活期间被重新分配给不同的节点/边，即使原来的
// 已被移除。这种稳定性使得 controller 包可以用 NodeIndex 保存长期存活的
// Execution 记录，而不必担心过期索引悄悄地解析到一个不相关的节点上。
package graph

import (
	"sync"

	"github.com/bittoy/cascade/types"
)

// Direction selects which side of a node's incident edges to enumerate.
type Direction int

const (
	// Outgoing selects edges where the node is the source.
	Outgoing Direction = iota
	// Incoming selects edges where the node is the target.
	Incoming
)

type nodeSlot struct {
	def    types.ComponentDefinition
	exists bool
}

type edgeSlot struct {
	def    types.ConnectionDefinition
	source types.NodeIndex
	target types.NodeIndex
	exists bool
}

// Graph is a directed multigraph of ComponentDefinitions connected by
// ConnectionDefinitions. Indices are allocated monotonically and never
// reused, so a removed node's index stays permanently invalid rather than
// being handed to a future AddNode call.
//
// Graph is safe for concurrent use; every method takes its own lock.
type Graph struct {
	mu sync.RWMutex

	nodes []nodeSlot
	edges []edgeSlot

	// outgoing/incoming index node -> edge indices incident to it, kept in
	// insertion order so round-robin fan-out (a concern of the execution
	// package, not this one) sees a stable edge ordering per output name.
	outgoing map[types.NodeIndex][]types.EdgeIndex
	incoming map[types.NodeIndex][]types.EdgeIndex

	nodeCount int
	edgeCount int
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		outgoing: make(map[types.NodeIndex][]types.EdgeIndex),
		incoming: make(map[types.NodeIndex][]types.EdgeIndex),
	}
}

// AddNode inserts def and returns its newly allocated, permanently stable
// NodeIndex.
func (g *Graph) AddNode(def types.ComponentDefinition) types.NodeIndex {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := types.NodeIndex(len(g.nodes))
	g.nodes = append(g.nodes, nodeSlot{def: def, exists: true})
	g.nodeCount++
	return idx
}

// Node looks up a node's definition by index. Returns types.ErrInvalidNodeIndex
// if idx is out of range or was removed.
func (g *Graph) Node(idx types.NodeIndex) (types.ComponentDefinition, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	slot, err := g.nodeSlot(idx)
	if err != nil {
		return types.ComponentDefinition{}, err
	}
	return slot.def, nil
}

func (g *Graph) nodeSlot(idx types.NodeIndex) (nodeSlot, error) {
	if idx < 0 || int(idx) >= len(g.nodes) || !g.nodes[idx].exists {
		return nodeSlot{}, types.ErrInvalidNodeIndex
	}
	return g.nodes[idx], nil
}

// UpdateNode replaces the stored definition for idx in place, keeping its
// index. The controller does not call it.
func (g *Graph) UpdateNode(idx types.NodeIndex, def types.ComponentDefinition) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if idx < 0 || int(idx) >= len(g.nodes) || !g.nodes[idx].exists {
		return types.ErrInvalidNodeIndex
	}
	g.nodes[idx].def = def
	return nil
}

// RemoveNode deletes the node at idx. It fails with types.ErrHasEdges if any
// edge is still incident to it — callers must remove incident connections
// first, matching the controller's own remove-connections-before-node
// ordering.
func (g *Graph) RemoveNode(idx types.NodeIndex) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if idx < 0 || int(idx) >= len(g.nodes) || !g.nodes[idx].exists {
		return types.ErrInvalidNodeIndex
	}
	if len(g.outgoing[idx]) > 0 || len(g.incoming[idx]) > 0 {
		return types.ErrHasEdges
	}
	g.nodes[idx] = nodeSlot{}
	delete(g.outgoing, idx)
	delete(g.incoming, idx)
	g.nodeCount--
	return nil
}

// AddEdge inserts def, whose Source/Target must already exist, and returns
// its newly allocated, permanently stable EdgeIndex.
func (g *Graph) AddEdge(def types.ConnectionDefinition) (types.EdgeIndex, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := g.nodeSlot(def.Source); err != nil {
		return 0, err
	}
	if _, err := g.nodeSlot(def.Target); err != nil {
		return 0, err
	}

	idx := types.EdgeIndex(len(g.edges))
	g.edges = append(g.edges, edgeSlot{
		def:    def,
		source: def.Source,
		target: def.Target,
		exists: true,
	})
	g.outgoing[def.Source] = append(g.outgoing[def.Source], idx)
	g.incoming[def.Target] = append(g.incoming[def.Target], idx)
	g.edgeCount++
	return idx, nil
}

// Edge looks up an edge's definition by index.
func (g *Graph) Edge(idx types.EdgeIndex) (types.ConnectionDefinition, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	slot, err := g.edgeSlot(idx)
	if err != nil {
		return types.ConnectionDefinition{}, err
	}
	return slot.def, nil
}

func (g *Graph) edgeSlot(idx types.EdgeIndex) (edgeSlot, error) {
	if idx < 0 || int(idx) >= len(g.edges) || !g.edges[idx].exists {
		return edgeSlot{}, types.ErrInvalidEdgeIndex
	}
	return g.edges[idx], nil
}

// RemoveEdge deletes the edge at idx, detaching it from both endpoints'
// incidence lists.
func (g *Graph) RemoveEdge(idx types.EdgeIndex) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	slot, err := g.edgeSlot(idx)
	if err != nil {
		return err
	}
	g.edges[idx] = edgeSlot{}
	g.outgoing[slot.source] = removeIndex(g.outgoing[slot.source], idx)
	g.incoming[slot.target] = removeIndex(g.incoming[slot.target], idx)
	g.edgeCount--
	return nil
}

func removeIndex(list []types.EdgeIndex, target types.EdgeIndex) []types.EdgeIndex {
	out := list[:0]
	for _, e := range list {
		if e != target {
			out = append(out, e)
		}
	}
	return out
}

// Incident returns the edge indices touching idx in the given Direction, in
// the order they were added.
func (g *Graph) Incident(idx types.NodeIndex, dir Direction) ([]types.EdgeIndex, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, err := g.nodeSlot(idx); err != nil {
		return nil, err
	}
	var src map[types.NodeIndex][]types.EdgeIndex
	if dir == Outgoing {
		src = g.outgoing
	} else {
		src = g.incoming
	}
	list := src[idx]
	out := make([]types.EdgeIndex, len(list))
	copy(out, list)
	return out, nil
}

// Nodes returns every live NodeIndex, in ascending order.
func (g *Graph) Nodes() []types.NodeIndex {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]types.NodeIndex, 0, g.nodeCount)
	for i, slot := range g.nodes {
		if slot.exists {
			out = append(out, types.NodeIndex(i))
		}
	}
	return out
}

// Edges returns every live EdgeIndex, in ascending order.
func (g *Graph) Edges() []types.EdgeIndex {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]types.EdgeIndex, 0, g.edgeCount)
	for i, slot := range g.edges {
		if slot.exists {
			out = append(out, types.EdgeIndex(i))
		}
	}
	return out
}

// NodeCount and EdgeCount report the number of live nodes/edges.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodeCount
}

func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgeCount
}
