package nestedset_test

import (
	"errors"
	"testing"

	"github.com/go-bumbu/nestedset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scopedNode struct {
	nestedset.Node
	nestedset.TreeScope
}

// otherScopedNode has the same field shape as scopedNode but is a distinct
// concrete type, used to exercise the schema-mismatch path.
type otherScopedNode struct {
	nestedset.Node
	nestedset.TreeScope
}

func TestIsRoot(t *testing.T) {
	assert.True(t, nestedset.IsRoot(nestedset.Node{Lft: 1, Rgt: 10}))
	assert.False(t, nestedset.IsRoot(nestedset.Node{Lft: 2, Rgt: 3}))
}

func TestIsLeaf(t *testing.T) {
	assert.True(t, nestedset.IsLeaf(nestedset.Node{Lft: 4, Rgt: 5}))
	assert.False(t, nestedset.IsLeaf(nestedset.Node{Lft: 2, Rgt: 7}))
}

func TestDescendantOf(t *testing.T) {
	parent := nestedset.Node{Lft: 2, Rgt: 9, Depth: 1}
	child := nestedset.Node{Lft: 3, Rgt: 4, Depth: 2}
	sibling := nestedset.Node{Lft: 10, Rgt: 11, Depth: 1}

	got, err := nestedset.DescendantOf(child, parent)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = nestedset.DescendantOf(sibling, parent)
	require.NoError(t, err)
	assert.False(t, got)

	got, err = nestedset.DescendantOf(parent, child)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestDescendantOfCrossTree(t *testing.T) {
	p := scopedNode{Node: nestedset.Node{Lft: 1, Rgt: 10}, TreeScope: nestedset.TreeScope{TreeID: 1}}
	n := scopedNode{Node: nestedset.Node{Lft: 2, Rgt: 3}, TreeScope: nestedset.TreeScope{TreeID: 2}}

	got, err := nestedset.DescendantOf(n, p)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestDescendantOfSchemaMismatch(t *testing.T) {
	p := scopedNode{Node: nestedset.Node{Lft: 1, Rgt: 10}, TreeScope: nestedset.TreeScope{TreeID: 1}}
	n := otherScopedNode{Node: nestedset.Node{Lft: 2, Rgt: 3}, TreeScope: nestedset.TreeScope{TreeID: 1}}

	_, err := nestedset.DescendantOf(n, p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, nestedset.ErrSchemaMismatch))

	_, err = nestedset.ChildOf(n, p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, nestedset.ErrSchemaMismatch))
}

func TestChildOf(t *testing.T) {
	parent := nestedset.Node{Lft: 2, Rgt: 9, Depth: 1}
	directChild := nestedset.Node{Lft: 3, Rgt: 4, Depth: 2}
	grandchild := nestedset.Node{Lft: 4, Rgt: 5, Depth: 3}

	got, err := nestedset.ChildOf(directChild, parent)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = nestedset.ChildOf(grandchild, parent)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestDescendantCount(t *testing.T) {
	assert.Equal(t, 0, nestedset.DescendantCount(nestedset.Node{Lft: 4, Rgt: 5}))
	assert.Equal(t, 2, nestedset.DescendantCount(nestedset.Node{Lft: 2, Rgt: 7}))
	assert.Equal(t, 3, nestedset.DescendantCount(nestedset.Node{Lft: 1, Rgt: 8}))
}
