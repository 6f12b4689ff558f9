package nestedset

import "testing"

// these tests live in the internal package since hasNode is unexported.

type plainStruct struct {
	Name string
}

type nodeStruct struct {
	Node
	Name string
}

func TestHasNode(t *testing.T) {
	if hasNode(plainStruct{}) {
		t.Error("plainStruct should not be detected as a node")
	}
	if !hasNode(nodeStruct{}) {
		t.Error("nodeStruct embeds Node and should be detected")
	}
	if !hasNode(&nodeStruct{}) {
		t.Error("hasNode should unwrap pointers")
	}
	if hasNode(nil) {
		t.Error("hasNode(nil) should be false")
	}
	if hasNode(42) {
		t.Error("hasNode on a non-struct should be false")
	}
}

func TestNodeAccessors(t *testing.T) {
	n := Node{ID: 7, Lft: 2, Rgt: 9, Depth: 1}
	if got := n.Id(); got != 7 {
		t.Errorf("Id() = %d, want 7", got)
	}
	if got := n.GetLft(); got != 2 {
		t.Errorf("GetLft() = %d, want 2", got)
	}
	if got := n.GetRgt(); got != 9 {
		t.Errorf("GetRgt() = %d, want 9", got)
	}
	if got := n.GetDepth(); got != 1 {
		t.Errorf("GetDepth() = %d, want 1", got)
	}
}
