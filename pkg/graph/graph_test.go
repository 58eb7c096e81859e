package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNodeAndLookup(t *testing.T) {
	g := New(true)
	g.AddNode("A", Attributes{"provider_name": StringValue("Alice")})

	require.True(t, g.HasNode("A"))
	n, err := g.Node("A")
	require.NoError(t, err)
	assert.Equal(t, StringValue("Alice"), n.Attrs["provider_name"])

	_, err = g.Node("B")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestAddNodeReplacesAttributes(t *testing.T) {
	g := New(true)
	g.AddNode("A", Attributes{"old": StringValue("x"), "shared": StringValue("1")})
	g.AddNode("B", Attributes{})
	g.AddNode("A", Attributes{"shared": StringValue("2")})

	n, err := g.Node("A")
	require.NoError(t, err)
	assert.NotContains(t, n.Attrs, "old", "replace policy: no merge of prior attributes")
	assert.Equal(t, StringValue("2"), n.Attrs["shared"])

	// Replacement keeps the original enumeration position.
	nodes := g.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "A", nodes[0].ID)
	assert.Equal(t, "B", nodes[1].ID)
}

func TestAddEdgeRequiresEndpoints(t *testing.T) {
	g := New(true)
	g.AddNode("A", nil)

	err := g.AddEdge("A", "B", 1, CategoryCoreToLeaf)
	assert.ErrorIs(t, err, ErrEndpointMissing)

	err = g.AddEdge("B", "A", 1, CategoryLeafToCore)
	assert.ErrorIs(t, err, ErrEndpointMissing)

	assert.Zero(t, g.EdgeCount())
}

func TestAddEdgeLastWriteWins(t *testing.T) {
	g := New(true)
	g.AddNode("A", nil)
	g.AddNode("B", nil)

	require.NoError(t, g.AddEdge("A", "B", 5, CategoryCoreToLeaf))
	require.NoError(t, g.AddEdge("B", "A", 3, CategoryLeafToCore))
	require.NoError(t, g.AddEdge("A", "B", 9, CategoryCoreToCore))

	edges := g.Edges()
	require.Len(t, edges, 2, "same ordered pair overwrites, never duplicates")
	assert.Equal(t, Edge{From: "A", To: "B", Weight: 9, Category: CategoryCoreToCore}, edges[0])
	assert.Equal(t, Edge{From: "B", To: "A", Weight: 3, Category: CategoryLeafToCore}, edges[1])
}

func TestDirectedKeepsBothDirections(t *testing.T) {
	g := New(true)
	g.AddNode("A", nil)
	g.AddNode("B", nil)

	require.NoError(t, g.AddEdge("A", "B", 5, CategoryCoreToLeaf))
	require.NoError(t, g.AddEdge("B", "A", 3, CategoryLeafToCore))

	assert.Equal(t, 2, g.EdgeCount())
}

func TestUndirectedCollapsesPairs(t *testing.T) {
	g := New(false)
	g.AddNode("A", nil)
	g.AddNode("B", nil)

	require.NoError(t, g.AddEdge("A", "B", 5, CategoryCoreToLeaf))
	require.NoError(t, g.AddEdge("B", "A", 3, CategoryLeafToCore))

	edges := g.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, 3.0, edges[0].Weight, "reverse direction overwrites the collapsed edge")
}

func TestEnumerationOrderIsInsertionOrder(t *testing.T) {
	g := New(true)
	ids := []string{"9", "2", "7", "1"}
	for _, id := range ids {
		g.AddNode(id, nil)
	}

	var got []string
	for _, n := range g.Nodes() {
		got = append(got, n.ID)
	}
	assert.Equal(t, ids, got)
}
