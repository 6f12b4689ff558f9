package nestedset

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

const defaultChildKey = childrenField

// HierarchyOption configures the in-memory helpers in this file.
type HierarchyOption func(*hierarchyOptions)

type hierarchyOptions struct {
	childKey string
}

// WithChildKey overrides the struct field name used to hold a node's
// children; it defaults to "Children", following
// closuretree.Tree.TreeDescendants's hardcoded convention.
func WithChildKey(name string) HierarchyOption {
	return func(o *hierarchyOptions) { o.childKey = name }
}

func resolveHierarchyOptions(opts []HierarchyOption) hierarchyOptions {
	o := hierarchyOptions{childKey: defaultChildKey}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// BuildTree groups a flat slice of nodes (sorted by lft) into their nested
// shape, per spec.md section 4.4: for a node at index i with rgt R, the
// contiguous prefix of the remainder whose rgt < R is that node's
// descendants; the same rule is applied recursively within that prefix to
// recover the nesting.
//
// flat must be a slice (or pointer to a slice) of pointers to a struct that
// embeds Node and has a child-holding field (default "Children") of the
// same pointer-slice type. BuildTree returns a value of the same slice
// type, containing only the roots.
func BuildTree(flat any, opts ...HierarchyOption) (any, error) {
	o := resolveHierarchyOptions(opts)

	v := reflect.ValueOf(flat)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("nestedset: flat must be a slice or pointer to a slice")
	}
	elemType := v.Type().Elem()
	if elemType.Kind() != reflect.Ptr || elemType.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("nestedset: flat must hold pointers to structs")
	}

	items := make([]reflect.Value, v.Len())
	for i := 0; i < v.Len(); i++ {
		items[i] = v.Index(i)
		if _, ok := items[i].Interface().(Ranger); !ok {
			return nil, fmt.Errorf("nestedset: element does not embed Node")
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Interface().(Ranger).GetLft() < items[j].Interface().(Ranger).GetLft()
	})

	roots, _ := groupByRange(items, o.childKey)

	out := reflect.MakeSlice(v.Type(), 0, len(roots))
	for _, r := range roots {
		out = reflect.Append(out, r)
	}
	return out.Interface(), nil
}

// groupByRange consumes items front-to-back, nesting each node's
// descendants under it, and returns the nodes found at this level.
func groupByRange(items []reflect.Value, childKey string) ([]reflect.Value, int) {
	var level []reflect.Value
	i := 0
	for i < len(items) {
		node := items[i]
		r := node.Interface().(Ranger).GetRgt()
		i++

		start := i
		for i < len(items) && items[i].Interface().(Ranger).GetRgt() < r {
			i++
		}
		if i > start {
			children, _ := groupByRange(items[start:i], childKey)
			setChildren(node, childKey, children)
		}
		level = append(level, node)
	}
	return level, i
}

func setChildren(node reflect.Value, childKey string, children []reflect.Value) {
	elem := node.Elem()
	field := elem.FieldByName(childKey)
	if !field.IsValid() || !field.CanSet() {
		return
	}
	slice := reflect.MakeSlice(field.Type(), 0, len(children))
	for _, c := range children {
		slice = reflect.Append(slice, c)
	}
	field.Set(slice)
}

// FlatNode is one entry of FlattenTree's output: a node stripped of its
// child collection, paired with its depth.
type FlatNode struct {
	Node  any
	Depth int
}

// FlattenTree performs an in-order traversal of tree (as produced by
// BuildTree, or hand-built the same way), producing (node, depth) pairs
// with the child collection removed from each emitted node, per spec.md
// section 4.4. BuildTree followed by FlattenTree is the identity on
// (node, depth) pairs (property P6).
func FlattenTree(tree any, opts ...HierarchyOption) ([]FlatNode, error) {
	o := resolveHierarchyOptions(opts)

	v := reflect.ValueOf(tree)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("nestedset: tree must be a slice or pointer to a slice")
	}

	var out []FlatNode
	var walk func(reflect.Value, int)
	walk = func(nodes reflect.Value, depth int) {
		for i := 0; i < nodes.Len(); i++ {
			n := nodes.Index(i)
			out = append(out, FlatNode{Node: cloneWithoutChildren(n, o.childKey), Depth: depth})

			childField := n.Elem().FieldByName(o.childKey)
			if childField.IsValid() && childField.Len() > 0 {
				walk(childField, depth+1)
			}
		}
	}
	walk(v, 0)
	return out, nil
}

// cloneWithoutChildren returns a value copy (not pointer) of the struct
// nodePtr points to, with its child-holding field zeroed.
func cloneWithoutChildren(nodePtr reflect.Value, childKey string) any {
	elem := nodePtr.Elem()
	clone := reflect.New(elem.Type()).Elem()
	clone.Set(elem)

	field := clone.FieldByName(childKey)
	if field.IsValid() && field.CanSet() {
		field.Set(reflect.Zero(field.Type()))
	}
	return clone.Interface()
}

// PathString concatenates ancestors and node (in that order), rendering
// each via nameField (default "Name"), joined by separator (default "/").
func PathString(node any, ancestors []any, separator, nameField string) (string, error) {
	if separator == "" {
		separator = "/"
	}
	if nameField == "" {
		nameField = "Name"
	}

	chain := append(append([]any{}, ancestors...), node)
	parts := make([]string, 0, len(chain))
	for _, item := range chain {
		v := reflect.ValueOf(item)
		if v.Kind() == reflect.Ptr {
			v = v.Elem()
		}
		f := v.FieldByName(nameField)
		if !f.IsValid() {
			return "", fmt.Errorf("nestedset: field %s not found", nameField)
		}
		parts = append(parts, fmt.Sprintf("%v", f.Interface()))
	}
	return strings.Join(parts, separator), nil
}

// Indent renders indentString repeated depth times followed by prefix, or
// the empty string at depth 0.
func Indent(node Ranger, indentString, prefix string) string {
	if indentString == "" {
		indentString = "  "
	}
	if node.GetDepth() == 0 {
		return ""
	}
	return strings.Repeat(indentString, node.GetDepth()) + prefix
}

// ValidationErrorKind names the corruption ValidateTree detected.
type ValidationErrorKind string

const (
	InvalidLftRgt ValidationErrorKind = "invalid_lft_rgt"
	Overlap       ValidationErrorKind = "overlap"
	InvalidDepth  ValidationErrorKind = "invalid_depth"
)

// ValidationError reports which node failed validation and why.
type ValidationError struct {
	Kind     ValidationErrorKind
	Node     Ranger
	Expected int // only set for InvalidDepth
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case InvalidLftRgt:
		return fmt.Sprintf("nestedset: invalid lft/rgt on node (lft=%d, rgt=%d)", e.Node.GetLft(), e.Node.GetRgt())
	case Overlap:
		return fmt.Sprintf("nestedset: overlapping range on node (lft=%d, rgt=%d)", e.Node.GetLft(), e.Node.GetRgt())
	case InvalidDepth:
		return fmt.Sprintf("nestedset: invalid depth %d on node (lft=%d, rgt=%d), expected %d", e.Node.GetDepth(), e.Node.GetLft(), e.Node.GetRgt(), e.Expected)
	default:
		return "nestedset: invalid tree"
	}
}

// ValidateTree checks nodes via a single sorted sweep: lft < rgt on every
// node, no partial overlaps, and depth equal to the number of enclosing
// ranges. It does not check that rgt - lft is odd or that the ranges are
// contiguous. nodes need not be pre-sorted.
func ValidateTree(nodes []Ranger) error {
	sorted := make([]Ranger, len(nodes))
	copy(sorted, nodes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].GetLft() < sorted[j].GetLft() })

	var openRgts []int
	for _, n := range sorted {
		if n.GetLft() >= n.GetRgt() {
			return &ValidationError{Kind: InvalidLftRgt, Node: n}
		}

		for len(openRgts) > 0 && openRgts[len(openRgts)-1] < n.GetLft() {
			openRgts = openRgts[:len(openRgts)-1]
		}

		if len(openRgts) > 0 && openRgts[len(openRgts)-1] < n.GetRgt() {
			return &ValidationError{Kind: Overlap, Node: n}
		}

		if n.GetDepth() != len(openRgts) {
			return &ValidationError{Kind: InvalidDepth, Node: n, Expected: len(openRgts)}
		}

		openRgts = append(openRgts, n.GetRgt())
	}
	return nil
}

// HierarchyTuple is one entry of RebuildFromHierarchy's output.
type HierarchyTuple struct {
	Payload any
	Lft     int
	Rgt     int
	Depth   int
}

// RebuildFromHierarchy walks a nested literal (a slice, or pointer to a
// slice, of struct pointers with a child-holding field) and computes
// (lft, rgt, depth) for every node via a depth-first walk with a
// monotonically increasing counter, per spec.md section 4.4. The returned
// tuples are ordered by lft.
func RebuildFromHierarchy(data any, opts ...HierarchyOption) ([]HierarchyTuple, error) {
	o := resolveHierarchyOptions(opts)

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("nestedset: data must be a slice or pointer to a slice")
	}

	counter := 1
	var out []HierarchyTuple
	var walk func(reflect.Value, int)
	walk = func(nodes reflect.Value, depth int) {
		for i := 0; i < nodes.Len(); i++ {
			n := nodes.Index(i)
			lft := counter
			counter++

			childField := n.Elem().FieldByName(o.childKey)
			if childField.IsValid() && childField.Len() > 0 {
				walk(childField, depth+1)
			}

			rgt := counter
			counter++

			out = append(out, HierarchyTuple{
				Payload: cloneWithoutChildren(n, o.childKey),
				Lft:     lft,
				Rgt:     rgt,
				Depth:   depth,
			})
		}
	}
	walk(v, 0)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Lft < out[j].Lft })
	return out, nil
}

func sliceOfPointerElem(items any) (reflect.Type, error) {
	t := reflect.TypeOf(items)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Slice {
		return nil, fmt.Errorf("nestedset: items must be a pointer to a slice")
	}
	elemType := t.Elem().Elem()
	if elemType.Kind() != reflect.Ptr || elemType.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("nestedset: items must be a pointer to a slice of struct pointers")
	}
	return elemType, nil
}

func newSliceOfPointer(elemType reflect.Type) any {
	sliceType := reflect.SliceOf(elemType)
	return reflect.New(sliceType).Interface()
}

func assignSlice(dst any, src any) error {
	dstVal := reflect.ValueOf(dst)
	if dstVal.Kind() != reflect.Ptr {
		return fmt.Errorf("nestedset: dst must be a pointer to a slice")
	}
	dstVal.Elem().Set(reflect.ValueOf(src))
	return nil
}
