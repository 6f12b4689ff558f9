package nestedset

import "reflect"

// Node is an embeddable struct carrying the nested-sets range fields. Any
// struct that embeds Node anonymously can be stored and mutated as a tree
// node.
type Node struct {
	ID    uint `gorm:"primarykey" json:"id"`
	Lft   int  `gorm:"not null;index:idx_lft" json:"lft"`
	Rgt   int  `gorm:"not null;index:idx_rgt" json:"rgt"`
	Depth int  `gorm:"not null;index:idx_depth" json:"depth"`
}

// Id returns the node's primary key.
func (n *Node) Id() uint {
	return n.ID
}

// GetLft returns the node's left boundary.
func (n Node) GetLft() int { return n.Lft }

// GetRgt returns the node's right boundary.
func (n Node) GetRgt() int { return n.Rgt }

// GetDepth returns the node's depth.
func (n Node) GetDepth() int { return n.Depth }

const (
	nodeIDField   = "ID"
	lftField      = "Lft"
	rgtField      = "Rgt"
	depthField    = "Depth"
	childrenField = "Children"
	treeIDField   = "TreeID"
)

// hasNode uses reflection to verify the passed struct embeds Node.
func hasNode(item any) bool {
	if item == nil {
		return false
	}

	itemType := reflect.TypeOf(item)
	if itemType.Kind() == reflect.Ptr {
		itemType = itemType.Elem()
	}
	if itemType.Kind() != reflect.Struct {
		return false
	}

	for i := 0; i < itemType.NumField(); i++ {
		field := itemType.Field(i)
		if field.Anonymous && field.Type == reflect.TypeOf(Node{}) {
			return true
		}
	}
	return false
}
