package nestedset

import (
	"context"
	"fmt"
	"reflect"

	"gorm.io/gorm"
)

// position selects where an insert/move lands relative to a target,
// spec.md section 4.1's position table.
type position int

const (
	posPrepend position = iota
	posAppend
	posBefore
	posAfter
)

// destLft and childDepth implement the position arithmetic table in
// spec.md section 4.1 for a target with range (L, R) at depth D.
func destLft(pos position, target row) int {
	switch pos {
	case posPrepend:
		return target.lft + 1
	case posAppend:
		return target.rgt
	case posBefore:
		return target.lft
	case posAfter:
		return target.rgt + 1
	}
	panic("nestedset: unknown position")
}

func childDepth(pos position, target row) int {
	switch pos {
	case posPrepend, posAppend:
		return target.depth + 1
	case posBefore, posAfter:
		return target.depth
	}
	panic("nestedset: unknown position")
}

// shift implements the gap shift primitive of spec.md section 4.1: within
// the scope identified by treeID, every node whose lft (then rgt) is >=
// start is moved by delta. Two statements are required because the
// predicates differ.
func (s *Tree) shift(tx *gorm.DB, treeID uint, start, delta int) error {
	if delta == 0 {
		return nil
	}
	if err := s.scope(tx, treeID).
		Where(fmt.Sprintf("%s >= ?", s.lftColumn), start).
		UpdateColumn(s.lftColumn, gorm.Expr(fmt.Sprintf("%s + ?", s.lftColumn), delta)).Error; err != nil {
		return err
	}
	return s.scope(tx, treeID).
		Where(fmt.Sprintf("%s >= ?", s.rgtColumn), start).
		UpdateColumn(s.rgtColumn, gorm.Expr(fmt.Sprintf("%s + ?", s.rgtColumn), delta)).Error
}

// MakeRoot creates the first (single-tree) or an independent (multi-tree)
// root for item, spec.md section 4.1.
func (s *Tree) MakeRoot(ctx context.Context, item any) error {
	if !hasNode(item) {
		return ErrItemIsNotTreeNode
	}
	hasTree := hasTreeScope(item)
	if s.mode == treeEnabled && !hasTree {
		return ErrTreeRequired
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.mode == treeDisabled {
			exists, err := s.isRootPresent(tx, 0)
			if err != nil {
				return err
			}
			if exists {
				return ErrRootAlreadyExists
			}
		}

		clone, isPointer := cloneWithRange(item, 1, 2, 0, 0, hasTree)
		if err := tx.Table(s.table).Create(clone).Error; err != nil {
			return err
		}

		if s.mode == treeEnabled {
			id, err := getID(clone)
			if err != nil {
				return err
			}
			if err := tx.Table(s.table).Where(fmt.Sprintf("%s = ?", s.pkColumn), id).
				UpdateColumn(s.treeColumn, id).Error; err != nil {
				return err
			}
			setTreeID(reflect.ValueOf(clone).Elem(), id)
		}

		return copyIDBack(item, clone, isPointer, hasTree)
	})
}

// insertAt runs the insert algorithm of spec.md section 4.1: shift the
// scope open by 2 at the destination, then create the new row there.
func (s *Tree) insertAt(ctx context.Context, item any, pos position, targetID uint) error {
	if !hasNode(item) {
		return ErrItemIsNotTreeNode
	}
	hasTree := hasTreeScope(item)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := s.fetch(tx, targetID)
		if err != nil {
			return err
		}

		if (pos == posBefore || pos == posAfter) && target.lft == 1 {
			return ErrCannotInsertBeforeRoot
		}

		dLft := destLft(pos, target)
		depth := childDepth(pos, target)

		if err := s.shift(tx, target.tree, dLft, 2); err != nil {
			return err
		}

		clone, isPointer := cloneWithRange(item, dLft, dLft+1, depth, target.tree, hasTree)
		if err := tx.Table(s.table).Create(clone).Error; err != nil {
			return err
		}

		return copyIDBack(item, clone, isPointer, hasTree)
	})
}

// moveTo runs the move-within-tree or move-between-trees algorithm of
// spec.md section 4.1, depending on whether node and target share a tree.
func (s *Tree) moveTo(ctx context.Context, nodeID uint, pos position, targetID uint) error {
	if nodeID == targetID {
		return ErrCannotMoveToItself
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		node, err := s.fetch(tx, nodeID)
		if err != nil {
			return err
		}
		target, err := s.fetch(tx, targetID)
		if err != nil {
			return err
		}

		if (pos == posBefore || pos == posAfter) && target.lft == 1 {
			return ErrCannotMoveBeforeAfterRoot
		}

		sameTree := s.mode == treeDisabled || node.tree == target.tree
		if sameTree && target.lft > node.lft && target.rgt < node.rgt {
			return ErrCannotMoveToDescendant
		}

		width := node.rgt - node.lft + 1
		dLft := destLft(pos, target)
		newDepth := childDepth(pos, target)

		if sameTree {
			return s.moveWithinTree(tx, node, target.tree, dLft, newDepth, width)
		}
		return s.moveBetweenTrees(tx, node, target.tree, dLft, newDepth, width)
	})
}

// moveWithinTree implements spec.md section 4.1's move-within-tree
// algorithm. Rather than opening a gap at the destination and closing one
// at the source across the whole scope (which double-counts the moved
// subtree whenever the destination sorts after it), it shifts only the
// band of nodes strictly between the old and new location, then slides the
// moved subtree itself by the plain distance between the two.
//
// The subtree's primary keys are snapshotted before shiftBand runs and the
// slide re-targets those keys directly (applyMove), not a re-evaluated
// lft/rgt range: shiftBand can relocate a neighbor into exactly the
// subtree's vacated coordinates, and a range predicate evaluated afterward
// would match that neighbor too.
func (s *Tree) moveWithinTree(tx *gorm.DB, node row, treeID uint, dLft, newDepth, width int) error {
	depthDelta := newDepth - node.depth

	ids, err := s.subtreeIDs(tx, treeID, node.lft, node.rgt)
	if err != nil {
		return err
	}

	var moveDistance int
	switch {
	case dLft > node.rgt:
		// destination is computed in the numbering that still includes
		// this subtree's own slot; once the subtree leaves, everything
		// in the band collapses left by width, and so does the
		// destination itself.
		if err := s.shiftBand(tx, treeID, node.rgt+1, dLft-1, -width); err != nil {
			return err
		}
		moveDistance = (dLft - width) - node.lft
	case dLft < node.lft:
		if err := s.shiftBand(tx, treeID, dLft, node.lft-1, width); err != nil {
			return err
		}
		moveDistance = dLft - node.lft
	}

	if moveDistance == 0 && depthDelta == 0 {
		return nil
	}
	return s.applyMove(tx, treeID, ids, moveDistance, depthDelta)
}

// subtreeIDs returns the primary keys of every row in [lft, rgt], read
// before any shift runs so the set stays valid as an identity key even
// after shiftBand rewrites coordinates within that same range.
func (s *Tree) subtreeIDs(tx *gorm.DB, treeID uint, lft, rgt int) ([]uint, error) {
	var ids []uint
	err := s.scope(tx, treeID).
		Where(fmt.Sprintf("%s >= ? AND %s <= ?", s.lftColumn, s.rgtColumn), lft, rgt).
		Pluck(s.pkColumn, &ids).Error
	return ids, err
}

// shiftBand shifts the lft/rgt of every row whose value falls within
// [start, end] by delta; used to close or open the space a moved subtree
// vacates or claims without touching the subtree itself.
func (s *Tree) shiftBand(tx *gorm.DB, treeID uint, start, end, delta int) error {
	if start > end || delta == 0 {
		return nil
	}
	if err := s.scope(tx, treeID).
		Where(fmt.Sprintf("%s BETWEEN ? AND ?", s.lftColumn), start, end).
		UpdateColumn(s.lftColumn, gorm.Expr(fmt.Sprintf("%s + ?", s.lftColumn), delta)).Error; err != nil {
		return err
	}
	return s.scope(tx, treeID).
		Where(fmt.Sprintf("%s BETWEEN ? AND ?", s.rgtColumn), start, end).
		UpdateColumn(s.rgtColumn, gorm.Expr(fmt.Sprintf("%s + ?", s.rgtColumn), delta)).Error
}

// applyMove slides every row whose primary key is in ids - the subtree
// being moved, identified before any band shift ran - by moveDistance, and
// offsets its depth.
func (s *Tree) applyMove(tx *gorm.DB, treeID uint, ids []uint, moveDistance, depthDelta int) error {
	if len(ids) == 0 {
		return nil
	}
	return s.scope(tx, treeID).
		Where(fmt.Sprintf("%s IN ?", s.pkColumn), ids).
		Updates(map[string]any{
			s.lftColumn:   gorm.Expr(fmt.Sprintf("%s + ?", s.lftColumn), moveDistance),
			s.rgtColumn:   gorm.Expr(fmt.Sprintf("%s + ?", s.rgtColumn), moveDistance),
			s.depthColumn: gorm.Expr(fmt.Sprintf("%s + ?", s.depthColumn), depthDelta),
		}).Error
}

// moveBetweenTrees implements spec.md section 4.1's move-between-trees
// algorithm: the destination shift scopes on the target's tree, the
// subtree rewrite scopes on (and reassigns away from) the source tree, and
// the closing shift scopes on the source tree.
func (s *Tree) moveBetweenTrees(tx *gorm.DB, node row, destTree uint, dLft, newDepth, width int) error {
	if err := s.shift(tx, destTree, dLft, width); err != nil {
		return err
	}

	moveDistance := dLft - node.lft
	depthDelta := newDepth - node.depth

	if err := s.scope(tx, node.tree).
		Where(fmt.Sprintf("%s >= ? AND %s <= ?", s.lftColumn, s.rgtColumn), node.lft, node.rgt).
		Updates(map[string]any{
			s.lftColumn:   gorm.Expr(fmt.Sprintf("%s + ?", s.lftColumn), moveDistance),
			s.rgtColumn:   gorm.Expr(fmt.Sprintf("%s + ?", s.rgtColumn), moveDistance),
			s.depthColumn: gorm.Expr(fmt.Sprintf("%s + ?", s.depthColumn), depthDelta),
			s.treeColumn:  destTree,
		}).Error; err != nil {
		return err
	}

	return s.shift(tx, node.tree, node.rgt+1, -width)
}

// PrependTo inserts item as the first child of target, or moves an
// already-persisted item there, dispatching on whether item is persisted
// (spec.md section 4.1).
func (s *Tree) PrependTo(ctx context.Context, item any, target any) error {
	return s.place(ctx, item, posPrepend, target)
}

// AppendTo inserts item as the last child of target, or moves it there.
func (s *Tree) AppendTo(ctx context.Context, item any, target any) error {
	return s.place(ctx, item, posAppend, target)
}

// InsertBefore inserts item as target's previous sibling, or moves it
// there. Fails with ErrCannotInsertBeforeRoot / ErrCannotMoveBeforeAfterRoot
// if target is a root.
func (s *Tree) InsertBefore(ctx context.Context, item any, target any) error {
	return s.place(ctx, item, posBefore, target)
}

// InsertAfter inserts item as target's next sibling, or moves it there.
func (s *Tree) InsertAfter(ctx context.Context, item any, target any) error {
	return s.place(ctx, item, posAfter, target)
}

// place dispatches to insertAt or moveTo depending on whether item is
// persisted, after rejecting a node/target pair of different concrete
// types with ErrSchemaMismatch (spec.md section 4.3).
func (s *Tree) place(ctx context.Context, item any, pos position, target any) error {
	if !hasNode(item) || !hasNode(target) {
		return ErrItemIsNotTreeNode
	}
	itemType, _, err := dereferenceStruct(item)
	if err != nil {
		return err
	}
	targetType, _, err := dereferenceStruct(target)
	if err != nil {
		return err
	}
	if itemType != targetType {
		return ErrSchemaMismatch
	}

	targetID, err := getID(target)
	if err != nil {
		return err
	}
	if targetID == 0 {
		return ErrTargetIsNew
	}

	nodeID, err := getID(item)
	if err != nil {
		return err
	}
	if nodeID == 0 {
		return s.insertAt(ctx, item, pos, targetID)
	}
	return s.moveTo(ctx, nodeID, pos, targetID)
}

// DeleteWithChildren removes item's entire subtree and closes the gap,
// spec.md section 4.1's delete-subtree algorithm. It returns the number of
// deleted rows.
func (s *Tree) DeleteWithChildren(ctx context.Context, item any) (int64, error) {
	id, err := getID(item)
	if err != nil {
		return 0, err
	}

	var count int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.fetch(tx, id)
		if err != nil {
			return err
		}

		res := s.scope(tx, n.tree).
			Where(fmt.Sprintf("%s >= ? AND %s <= ?", s.lftColumn, s.rgtColumn), n.lft, n.rgt).
			Delete(nil)
		if res.Error != nil {
			return res.Error
		}
		count = res.RowsAffected

		width := n.rgt - n.lft + 1
		return s.shift(tx, n.tree, n.rgt+1, -width)
	})
	return count, err
}

// DeleteNode removes item alone, promoting its children up one level and
// left one position, spec.md section 4.1's delete-node algorithm. Fails
// with ErrCannotDeleteNonEmptyRoot when item is a root with children; see
// DESIGN.md for the open-question resolution.
func (s *Tree) DeleteNode(ctx context.Context, item any) error {
	id, err := getID(item)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.fetch(tx, id)
		if err != nil {
			return err
		}

		hasChildren := n.rgt-n.lft > 1
		if n.lft == 1 && hasChildren {
			return ErrCannotDeleteNonEmptyRoot
		}

		if err := tx.Table(s.table).
			Where(fmt.Sprintf("%s = ?", s.pkColumn), id).
			Delete(nil).Error; err != nil {
			return err
		}

		if hasChildren {
			if err := s.scope(tx, n.tree).
				Where(fmt.Sprintf("%s > ? AND %s < ?", s.lftColumn, s.rgtColumn), n.lft, n.rgt).
				Updates(map[string]any{
					s.lftColumn:   gorm.Expr(fmt.Sprintf("%s - 1", s.lftColumn)),
					s.rgtColumn:   gorm.Expr(fmt.Sprintf("%s - 1", s.rgtColumn)),
					s.depthColumn: gorm.Expr(fmt.Sprintf("%s - 1", s.depthColumn)),
				}).Error; err != nil {
				return err
			}
		}

		return s.shift(tx, n.tree, n.rgt+1, -2)
	})
}

// MakeRootFrom detaches item's subtree and turns it into an independent
// tree, spec.md section 4.1's make-root-from algorithm. Multi-tree only.
func (s *Tree) MakeRootFrom(ctx context.Context, item any) error {
	if s.mode != treeEnabled {
		return ErrTreeRequired
	}
	id, err := getID(item)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.fetch(tx, id)
		if err != nil {
			return err
		}
		if n.lft == 1 {
			return ErrAlreadyRoot
		}

		width := n.rgt - n.lft + 1

		if err := s.scope(tx, n.tree).
			Where(fmt.Sprintf("%s >= ? AND %s <= ?", s.lftColumn, s.rgtColumn), n.lft, n.rgt).
			Updates(map[string]any{
				s.lftColumn:   gorm.Expr(fmt.Sprintf("%s + ?", s.lftColumn), 1-n.lft),
				s.rgtColumn:   gorm.Expr(fmt.Sprintf("%s + ?", s.rgtColumn), 1-n.lft),
				s.depthColumn: gorm.Expr(fmt.Sprintf("%s - ?", s.depthColumn), n.depth),
				s.treeColumn:  id,
			}).Error; err != nil {
			return err
		}

		if err := s.scope(tx, n.tree).
			Where(fmt.Sprintf("%s > ?", s.lftColumn), n.rgt).
			UpdateColumn(s.lftColumn, gorm.Expr(fmt.Sprintf("%s - ?", s.lftColumn), width)).Error; err != nil {
			return err
		}
		return s.scope(tx, n.tree).
			Where(fmt.Sprintf("%s > ?", s.rgtColumn), n.rgt).
			UpdateColumn(s.rgtColumn, gorm.Expr(fmt.Sprintf("%s - ?", s.rgtColumn), width)).Error
	})
}

// LoadSubtree loads ctxNode's subtree flat and hydrates it into the nested
// shape expected by items (a pointer to a slice of pointers to a struct
// with a Children field), mirroring closuretree.Tree.TreeDescendants while
// staying layered on top of Subtree and BuildTree per spec.md's component
// boundaries.
func (s *Tree) LoadSubtree(ctx context.Context, ctxNode Ranger, items any, opts ...HierarchyOption) error {
	elemType, err := sliceOfPointerElem(items)
	if err != nil {
		return err
	}

	flat := newSliceOfPointer(elemType)
	if err := s.Subtree(s.db.WithContext(ctx), ctxNode).Find(flat).Error; err != nil {
		return err
	}

	tree, err := BuildTree(flat, opts...)
	if err != nil {
		return err
	}

	return assignSlice(items, tree)
}
