package nestedset

import (
	"fmt"

	"gorm.io/gorm"
)

// Ranger is satisfied by anything that embeds Node: the query builder and
// the predicates in predicates.go only ever need the range fields of a
// context node, never its full type.
type Ranger interface {
	GetLft() int
	GetRgt() int
	GetDepth() int
}

// scopedRanger is additionally satisfied by anything that also embeds
// TreeScope.
type scopedRanger interface {
	GetTreeID() uint
}

func treeIDOf(ctx any) uint {
	if tr, ok := ctx.(scopedRanger); ok {
		return tr.GetTreeID()
	}
	return 0
}

// Ancestors returns, unexecuted, the query for every strict ancestor of ctx,
// ordered by lft ascending. maxK limits how many levels up to climb (0 means
// unlimited), matching the optional depth bound in spec.md section 4.2.
func (s *Tree) Ancestors(tx *gorm.DB, ctx Ranger, maxK int) *gorm.DB {
	q := s.scope(tx, treeIDOf(ctx)).
		Where(fmt.Sprintf("%s < ? AND %s > ?", s.lftColumn, s.rgtColumn), ctx.GetLft(), ctx.GetRgt()).
		Order(s.lftColumn + " asc")
	if maxK > 0 {
		q = q.Where(fmt.Sprintf("%s >= ?", s.depthColumn), ctx.GetDepth()-maxK)
	}
	return q
}

// Descendants returns, unexecuted, the query for every strict descendant of
// ctx, ordered by lft ascending. maxK limits how many levels down to
// descend (0 means unlimited).
func (s *Tree) Descendants(tx *gorm.DB, ctx Ranger, maxK int) *gorm.DB {
	q := s.scope(tx, treeIDOf(ctx)).
		Where(fmt.Sprintf("%s > ? AND %s < ?", s.lftColumn, s.rgtColumn), ctx.GetLft(), ctx.GetRgt()).
		Order(s.lftColumn + " asc")
	if maxK > 0 {
		q = q.Where(fmt.Sprintf("%s <= ?", s.depthColumn), ctx.GetDepth()+maxK)
	}
	return q
}

// DirectChildren returns, unexecuted, the query for ctx's immediate
// children only.
func (s *Tree) DirectChildren(tx *gorm.DB, ctx Ranger) *gorm.DB {
	return s.Descendants(tx, ctx, 1)
}

// Leaves returns, unexecuted, the query for descendants of ctx that have no
// children of their own. As noted in spec.md section 9, this assumes
// well-formed storage; ValidateTree is the way to check that assumption.
func (s *Tree) Leaves(tx *gorm.DB, ctx Ranger) *gorm.DB {
	return s.Descendants(tx, ctx, 0).
		Where(fmt.Sprintf("%s = %s + 1", s.rgtColumn, s.lftColumn))
}

// PrevSibling returns, unexecuted, the query for the sibling immediately to
// the left of ctx, if any (limit 1).
func (s *Tree) PrevSibling(tx *gorm.DB, ctx Ranger) *gorm.DB {
	return s.scope(tx, treeIDOf(ctx)).
		Where(fmt.Sprintf("%s = ?", s.rgtColumn), ctx.GetLft()-1).
		Limit(1)
}

// NextSibling returns, unexecuted, the query for the sibling immediately to
// the right of ctx, if any (limit 1).
func (s *Tree) NextSibling(tx *gorm.DB, ctx Ranger) *gorm.DB {
	return s.scope(tx, treeIDOf(ctx)).
		Where(fmt.Sprintf("%s = ?", s.lftColumn), ctx.GetRgt()+1).
		Limit(1)
}

// Siblings returns, unexecuted, the query for every node sharing ctx's
// parent, excluding ctx itself, ordered by lft ascending. The parent is
// located by its depth (ctx.depth - 1) and by strictly containing ctx's
// range within ctx's scope, which nested sets invariants guarantee is unique.
func (s *Tree) Siblings(tx *gorm.DB, ctx Ranger) *gorm.DB {
	parentScope := ""
	parentArgs := []any{ctx.GetDepth() - 1, ctx.GetLft(), ctx.GetRgt()}
	if s.mode == treeEnabled {
		parentScope = fmt.Sprintf(" AND p.%s = ?", s.treeColumn)
		parentArgs = append(parentArgs, treeIDOf(ctx))
	}
	parent := fmt.Sprintf(
		"(SELECT p.%s FROM %s p WHERE p.%s = ? AND p.%s < ? AND p.%s > ?%s)",
		s.lftColumn, s.table, s.depthColumn, s.lftColumn, s.rgtColumn, parentScope,
	)
	parentRgt := fmt.Sprintf(
		"(SELECT p.%s FROM %s p WHERE p.%s = ? AND p.%s < ? AND p.%s > ?%s)",
		s.rgtColumn, s.table, s.depthColumn, s.lftColumn, s.rgtColumn, parentScope,
	)

	return s.scope(tx, treeIDOf(ctx)).
		Where(fmt.Sprintf("%s = ?", s.depthColumn), ctx.GetDepth()).
		Where(fmt.Sprintf("%s != ?", s.lftColumn), ctx.GetLft()).
		Where(fmt.Sprintf("%s > %s", s.lftColumn, parent), parentArgs...).
		Where(fmt.Sprintf("%s < %s", s.rgtColumn, parentRgt), parentArgs...).
		Order(s.lftColumn + " asc")
}

// Roots returns, unexecuted, the query for every root in the table (one per
// scope in multi-tree mode), ordered by lft ascending.
func (s *Tree) Roots(tx *gorm.DB) *gorm.DB {
	return tx.Table(s.table).
		Where(fmt.Sprintf("%s = 1", s.lftColumn)).
		Order(s.lftColumn + " asc")
}

// Root returns, unexecuted, the query for the root of ctx's own scope
// (limit 1).
func (s *Tree) Root(tx *gorm.DB, ctx any) *gorm.DB {
	return s.scope(tx, treeIDOf(ctx)).
		Where(fmt.Sprintf("%s = 1", s.lftColumn)).
		Limit(1)
}

// Subtree returns, unexecuted, the query for ctx together with every node
// it strictly contains, ordered by lft ascending.
func (s *Tree) Subtree(tx *gorm.DB, ctx Ranger) *gorm.DB {
	return s.scope(tx, treeIDOf(ctx)).
		Where(fmt.Sprintf("%s >= ? AND %s <= ?", s.lftColumn, s.rgtColumn), ctx.GetLft(), ctx.GetRgt()).
		Order(s.lftColumn + " asc")
}

// AtDepth returns, unexecuted, the query for every node at exactly depth d,
// across all scopes, ordered by lft ascending.
func (s *Tree) AtDepth(tx *gorm.DB, depth int) *gorm.DB {
	return tx.Table(s.table).
		Where(fmt.Sprintf("%s = ?", s.depthColumn), depth).
		Order(s.lftColumn + " asc")
}

// InTree returns, unexecuted, the query for every node sharing treeID.
// Calling it in single-tree mode is a caller bug (there is no tree column
// to filter on) and returns the unfiltered table query.
func (s *Tree) InTree(tx *gorm.DB, treeID uint) *gorm.DB {
	if s.mode != treeEnabled {
		return tx.Table(s.table)
	}
	return tx.Table(s.table).Where(fmt.Sprintf("%s = ?", s.treeColumn), treeID)
}
