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

package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bittoy/cascade/graph"
	"github.com/bittoy/cascade/types"
)

func producerDef() types.ComponentDefinition {
	return types.ComponentDefinition{TypeName: "generate_item", ComponentType: types.Producer}
}

func TestAddRemoveNode(t *testing.T) {
	g := graph.New()
	n1 := g.AddNode(producerDef())
	n2 := g.AddNode(producerDef())
	assert.Equal(t, 2, g.NodeCount())

	got, err := g.Node(n1)
	require.NoError(t, err)
	assert.Equal(t, "generate_item", got.TypeName)

	require.NoError(t, g.RemoveNode(n1))
	assert.Equal(t, 1, g.NodeCount())

	_, err = g.Node(n1)
	assert.ErrorIs(t, err, types.ErrInvalidNodeIndex)

	// n2's index must survive n1's removal unchanged.
	got, err = g.Node(n2)
	require.NoError(t, err)
	assert.Equal(t, "generate_item", got.TypeName)
}

func TestNodeIndexNeverReused(t *testing.T) {
	g := graph.New()
	n1 := g.AddNode(producerDef())
	require.NoError(t, g.RemoveNode(n1))

	n2 := g.AddNode(producerDef())
	n3 := g.AddNode(producerDef())
	assert.NotEqual(t, n1, n2)
	assert.NotEqual(t, n1, n3)
}

func TestRemoveNodeWithEdgesFails(t *testing.T) {
	g := graph.New()
	a := g.AddNode(producerDef())
	b := g.AddNode(producerDef())
	_, err := g.AddEdge(types.ConnectionDefinition{Name: "default", Source: a, Target: b, MaxItems: 10})
	require.NoError(t, err)

	err = g.RemoveNode(a)
	assert.ErrorIs(t, err, types.ErrHasEdges)
}

func TestAddEdgeUnknownEndpoint(t *testing.T) {
	g := graph.New()
	a := g.AddNode(producerDef())
	_, err := g.AddEdge(types.ConnectionDefinition{Name: "default", Source: a, Target: 99, MaxItems: 10})
	assert.ErrorIs(t, err, types.ErrInvalidNodeIndex)
}

func TestIncidentOrderingAndRemoval(t *testing.T) {
	g := graph.New()
	a := g.AddNode(producerDef())
	b := g.AddNode(producerDef())
	c := g.AddNode(producerDef())

	e1, err := g.AddEdge(types.ConnectionDefinition{Name: "default", Source: a, Target: b, MaxItems: 10})
	require.NoError(t, err)
	e2, err := g.AddEdge(types.ConnectionDefinition{Name: "default", Source: a, Target: c, MaxItems: 10})
	require.NoError(t, err)

	out, err := g.Incident(a, graph.Outgoing)
	require.NoError(t, err)
	assert.Equal(t, []types.EdgeIndex{e1, e2}, out)

	require.NoError(t, g.RemoveEdge(e1))
	out, err = g.Incident(a, graph.Outgoing)
	require.NoError(t, err)
	assert.Equal(t, []types.EdgeIndex{e2}, out)

	inB, err := g.Incident(b, graph.Incoming)
	require.NoError(t, err)
	assert.Empty(t, inB)
}

func TestEdgeIndexNeverReused(t *testing.T) {
	g := graph.New()
	a := g.AddNode(producerDef())
	b := g.AddNode(producerDef())

	e1, err := g.AddEdge(types.ConnectionDefinition{Name: "default", Source: a, Target: b, MaxItems: 10})
	require.NoError(t, err)
	require.NoError(t, g.RemoveEdge(e1))

	e2, err := g.AddEdge(types.ConnectionDefinition{Name: "default", Source: a, Target: b, MaxItems: 10})
	require.NoError(t, err)
	assert.NotEqual(t, e1, e2)

	_, err = g.Edge(e1)
	assert.ErrorIs(t, err, types.ErrInvalidEdgeIndex)
}
