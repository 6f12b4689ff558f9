package nestedset

import (
	"fmt"
	"reflect"
)

// getID extracts the primary key of an item embedding Node, zero if unset.
func getID(item any) (uint, error) {
	_, v, err := dereferenceStruct(item)
	if err != nil {
		return 0, err
	}

	nodeField := v.FieldByName(nodeIDField)
	if nodeField.IsValid() && nodeField.CanUint() {
		return uint(nodeField.Uint()), nil
	}

	// anonymous Node embed
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Type() == reflect.TypeOf(Node{}) {
			return uint(f.FieldByName(nodeIDField).Uint()), nil
		}
	}
	return 0, fmt.Errorf("nestedset: struct Node not found")
}

// getTreeID extracts the TreeID of an item embedding TreeScope, 0 if absent.
func getTreeID(item any) uint {
	_, v, err := dereferenceStruct(item)
	if err != nil {
		return 0
	}
	f := v.FieldByName(treeIDField)
	if f.IsValid() && f.CanUint() {
		return uint(f.Uint())
	}
	return 0
}

func dereferenceStruct(item any) (reflect.Type, reflect.Value, error) {
	if item == nil {
		return nil, reflect.Value{}, fmt.Errorf("nestedset: item is nil")
	}
	t := reflect.TypeOf(item)
	v := reflect.ValueOf(item)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
		v = v.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, reflect.Value{}, fmt.Errorf("nestedset: item is not a struct")
	}
	return t, v, nil
}

// cloneWithRange returns an addressable copy of item (following the same
// reflect.New(t)+field-copy pattern as closuretree.Tree.Add) with its Node
// (and, if present, TreeScope) fields overwritten, ready to hand to
// tx.Table(...).Create. It reports whether the original item was a
// pointer, so the caller can copy the generated ID back afterwards.
func cloneWithRange(item any, lft, rgt, depth int, treeID uint, hasTree bool) (any, bool) {
	t := reflect.TypeOf(item)
	isPointer := false
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
		isPointer = true
	}

	clone := reflect.New(t).Interface()
	cv := reflect.ValueOf(clone).Elem()
	if isPointer {
		cv.Set(reflect.ValueOf(item).Elem())
	} else {
		cv.Set(reflect.ValueOf(item))
	}

	for i := 0; i < t.NumField(); i++ {
		field := cv.Field(i)
		fieldType := t.Field(i)

		if fieldType.Anonymous && field.Type() == reflect.TypeOf(Node{}) {
			if field.CanSet() {
				field.Set(reflect.ValueOf(Node{Lft: lft, Rgt: rgt, Depth: depth}))
			}
		}
		if hasTree && fieldType.Anonymous && field.Type() == reflect.TypeOf(TreeScope{}) {
			if field.CanSet() {
				field.Set(reflect.ValueOf(TreeScope{TreeID: treeID}))
			}
		}
	}

	return clone, isPointer
}

// copyIDBack copies the ID (and, if enabled, the TreeID) generated on clone
// back into the original item, when the caller passed a pointer - mirroring
// the copy-back block at the end of closuretree.Tree.Add.
func copyIDBack(original any, clone any, isPointer bool, hasTree bool) error {
	if !isPointer {
		return nil
	}

	origVal := reflect.ValueOf(original).Elem()
	cloneVal := reflect.ValueOf(clone).Elem()

	id, err := getID(clone)
	if err != nil {
		return err
	}
	if err := setID(origVal, id); err != nil {
		return err
	}

	if hasTree {
		tree := getTreeID(cloneVal.Interface())
		setTreeID(origVal, tree)
	}
	return nil
}

func setID(v reflect.Value, id uint) error {
	field := v.FieldByName(nodeIDField)
	if field.IsValid() && field.CanSet() {
		field.SetUint(uint64(id))
		return nil
	}
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Type() == reflect.TypeOf(Node{}) {
			idField := f.FieldByName(nodeIDField)
			if idField.IsValid() && idField.CanSet() {
				idField.SetUint(uint64(id))
				return nil
			}
		}
	}
	return fmt.Errorf("nestedset: field %s is not accessible or settable", nodeIDField)
}

func setTreeID(v reflect.Value, tree uint) {
	field := v.FieldByName(treeIDField)
	if field.IsValid() && field.CanSet() {
		field.SetUint(uint64(tree))
		return
	}
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Type() == reflect.TypeOf(TreeScope{}) {
			idField := f.FieldByName(treeIDField)
			if idField.IsValid() && idField.CanSet() {
				idField.SetUint(uint64(tree))
				return
			}
		}
	}
}
