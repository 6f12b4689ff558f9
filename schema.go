package nestedset

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// treeMode is the tagged sum from spec.md design note 1: scope-conditional
// code branches on this variant instead of repeatedly inspecting a runtime
// boolean.
type treeMode int

const (
	treeDisabled treeMode = iota
	treeEnabled
)

// Tree describes how a user struct maps onto the nested-sets fields and
// is resolved once by Open and threaded through every mutation and query,
// per spec.md section 4.1 ("every operation threads this descriptor").
type Tree struct {
	db *gorm.DB

	table string

	pkColumn string
	pkField  string

	lftColumn, rgtColumn, depthColumn string
	lftField, rgtField, depthField    string

	mode       treeMode
	treeColumn string
	treeField  string
}

// Option configures a Tree at Open time.
type Option func(*schemaOptions)

type schemaOptions struct {
	requireTree bool
}

// WithTreeScope requires that item embeds TreeScope, enabling multi-tree
// mode. Open returns ErrTreeRequired if the item does not embed TreeScope.
func WithTreeScope() Option {
	return func(o *schemaOptions) { o.requireTree = true }
}

// Open resolves a Tree for item and runs AutoMigrate against db, mirroring
// closuretree.New's use of gorm.Statement.Parse plus db.AutoMigrate.
func Open(db *gorm.DB, item any, opts ...Option) (*Tree, error) {
	if !hasNode(item) {
		return nil, ErrItemIsNotTreeNode
	}

	var o schemaOptions
	for _, opt := range opts {
		opt(&o)
	}

	hasTree := hasTreeScope(item)
	if o.requireTree && !hasTree {
		return nil, ErrTreeRequired
	}

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(item); err != nil {
		return nil, fmt.Errorf("error parsing schema: %w", err)
	}

	s := &Tree{
		db:         db,
		table:      stmt.Schema.Table,
		pkField:    nodeIDField,
		lftField:   lftField,
		rgtField:   rgtField,
		depthField: depthField,
	}

	for _, f := range stmt.Schema.Fields {
		switch f.Name {
		case nodeIDField:
			s.pkColumn = f.DBName
		case lftField:
			s.lftColumn = f.DBName
		case rgtField:
			s.rgtColumn = f.DBName
		case depthField:
			s.depthColumn = f.DBName
		case treeIDField:
			s.treeColumn = f.DBName
			s.treeField = treeIDField
		}
	}

	if hasTree {
		s.mode = treeEnabled
	} else {
		s.mode = treeDisabled
	}

	if err := db.AutoMigrate(item); err != nil {
		return nil, fmt.Errorf("unable to migrate node table: %w", err)
	}

	return s, nil
}

// Table returns the underlying node table name.
func (s *Tree) Table() string { return s.table }

// MultiTree reports whether this schema scopes nodes by tree.
func (s *Tree) MultiTree() bool { return s.mode == treeEnabled }

// scope returns a *gorm.DB already filtered to this schema's table and, in
// multi-tree mode, to the given tree value. Single-tree mode omits the
// predicate entirely, per spec.md section 4.2.
func (s *Tree) scope(tx *gorm.DB, treeID uint) *gorm.DB {
	q := tx.Table(s.table)
	if s.mode == treeEnabled {
		q = q.Where(fmt.Sprintf("%s = ?", s.treeColumn), treeID)
	}
	return q
}

// row is the engine's internal, column-level view of a stored node; it
// never leaves the package.
type row struct {
	id    uint
	lft   int
	rgt   int
	depth int
	tree  uint
}

// fetch re-reads a node's range fields by primary key, inside tx. It is how
// every mutation "re-reads target inside the transaction" (spec.md 4.1).
func (s *Tree) fetch(tx *gorm.DB, id uint) (row, error) {
	cols := []string{s.pkColumn, s.lftColumn, s.rgtColumn, s.depthColumn}
	dest := make([]any, 0, 5)
	var r row
	dest = append(dest, &r.id, &r.lft, &r.rgt, &r.depth)
	if s.mode == treeEnabled {
		cols = append(cols, s.treeColumn)
		dest = append(dest, &r.tree)
	}

	sqlRow := tx.Table(s.table).
		Select(strings.Join(cols, ", ")).
		Where(fmt.Sprintf("%s = ?", s.pkColumn), id).
		Row()

	if err := sqlRow.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return row{}, ErrNodeNotFound
		}
		return row{}, err
	}
	return r, nil
}

// isRootPresent reports whether any row in scope already has lft = 1.
func (s *Tree) isRootPresent(tx *gorm.DB, treeID uint) (bool, error) {
	var count int64
	err := s.scope(tx, treeID).Where(fmt.Sprintf("%s = 1", s.lftColumn)).Count(&count).Error
	return count > 0, err
}
