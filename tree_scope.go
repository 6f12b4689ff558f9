package nestedset

import "reflect"

// TreeScope is an embeddable struct that turns a node schema into a
// multi-tree schema: every row also carries a TreeID discriminator, and
// containment is only meaningful between rows sharing the same TreeID.
//
// Embedding TreeScope is optional; a schema with no TreeScope runs in
// single-tree mode, where exactly one root may exist for the whole table.
type TreeScope struct {
	TreeID uint `gorm:"not null;index:idx_tree" json:"tree_id"`
}

// GetTreeID returns the tree discriminator value.
func (t TreeScope) GetTreeID() uint { return t.TreeID }

// hasTreeScope reports whether item embeds TreeScope anonymously.
func hasTreeScope(item any) bool {
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
		if field.Anonymous && field.Type == reflect.TypeOf(TreeScope{}) {
			return true
		}
	}
	return false
}
