package nestedset

import "reflect"

// Predicates are pure inspectors over already-loaded nodes; spec.md section
// 4.3. They never touch the database.

// IsRoot reports whether n sits at the very start of its scope.
func IsRoot(n Ranger) bool {
	return n.GetLft() == 1
}

// IsLeaf reports whether n has no children, i.e. rgt - lft == 1. As
// noted in spec.md section 9, this only holds for well-formed storage.
func IsLeaf(n Ranger) bool {
	return n.GetRgt()-n.GetLft() == 1
}

// DescendantOf reports whether n is strictly contained in p's range.
// Mismatched schemas (n and p of different concrete node types) raise
// ErrSchemaMismatch rather than silently comparing incomparable ranges, per
// spec.md section 4.3's "mismatched schemas on predicate pairs raise an
// argument error". The (bool, error) shape mirrors
// closuretree.Tree.IsChildOf, the teacher's own ancestry predicate.
func DescendantOf(n, p Ranger) (bool, error) {
	if reflect.TypeOf(n) != reflect.TypeOf(p) {
		return false, ErrSchemaMismatch
	}
	if !(n.GetLft() > p.GetLft() && n.GetRgt() < p.GetRgt()) {
		return false, nil
	}
	// same concrete type guarantees n and p agree on whether they embed
	// TreeScope, so the type assertion below cannot fail.
	if nt, ok := n.(scopedRanger); ok {
		pt := p.(scopedRanger)
		if nt.GetTreeID() != pt.GetTreeID() {
			return false, nil
		}
	}
	return true, nil
}

// ChildOf reports whether n is an immediate child of p, raising the same
// ErrSchemaMismatch as DescendantOf on mismatched schemas.
func ChildOf(n, p Ranger) (bool, error) {
	desc, err := DescendantOf(n, p)
	if err != nil {
		return false, err
	}
	return desc && n.GetDepth() == p.GetDepth()+1, nil
}

// DescendantCount returns the number of nodes strictly contained in n's
// range, computed purely from the range width.
func DescendantCount(n Ranger) int {
	return (n.GetRgt() - n.GetLft() - 1) / 2
}
