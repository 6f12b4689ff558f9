package nestedset_test

import (
	"context"
	"sort"
	"testing"

	"github.com/go-bumbu/nestedset"
	"github.com/go-bumbu/testdbs"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// reload refreshes each node from the database: mutations write the new
// ranges to the table, not back into the caller's structs, and the query
// builders read their context node's range fields.
func reload(t *testing.T, db *gorm.DB, nodes ...*Category) {
	t.Helper()
	for _, n := range nodes {
		require.NoError(t, db.First(n, n.ID).Error)
	}
}

// buildQueryFixture constructs:
//
//	R -> A -> [A1, A2]
//	  -> B
//
// and returns the persisted nodes.
func buildQueryFixture(t *testing.T, tr *nestedset.Tree, ctx context.Context) (r, a, b, a1, a2 *Category) {
	t.Helper()
	r = &Category{Name: "R"}
	require.NoError(t, tr.MakeRoot(ctx, r))
	a = &Category{Name: "A"}
	require.NoError(t, tr.AppendTo(ctx, a, r))
	b = &Category{Name: "B"}
	require.NoError(t, tr.AppendTo(ctx, b, r))
	a1 = &Category{Name: "A1"}
	require.NoError(t, tr.AppendTo(ctx, a1, a))
	a2 = &Category{Name: "A2"}
	require.NoError(t, tr.AppendTo(ctx, a2, a))
	return
}

func TestDescendantsAndAncestors(t *testing.T) {
	for _, db := range testdbs.DBs() {
		t.Run(db.DbType(), func(t *testing.T) {
			conn := db.ConnDbName("descendants")
			tr, err := nestedset.Open(conn, Category{})
			require.NoError(t, err)
			ctx := context.Background()

			r, a, _, a1, a2 := buildQueryFixture(t, tr, ctx)
			reload(t, conn, r, a, a1)

			var desc []Category
			require.NoError(t, tr.Descendants(conn, a, 0).Find(&desc).Error)
			gotNames := make([]string, len(desc))
			for i, d := range desc {
				gotNames[i] = d.Name
			}
			require.Equal(t, []string{"A1", "A2"}, gotNames)

			var anc []Category
			require.NoError(t, tr.Ancestors(conn, a1, 0).Find(&anc).Error)
			ancNames := make([]string, len(anc))
			for i, d := range anc {
				ancNames[i] = d.Name
			}
			require.Equal(t, []string{"R", "A"}, ancNames)

			var direct []Category
			require.NoError(t, tr.DirectChildren(conn, r).Find(&direct).Error)
			require.Len(t, direct, 2)

			_ = a2
		})
	}
}

func TestSiblingsExcludesSelf(t *testing.T) {
	for _, db := range testdbs.DBs() {
		t.Run(db.DbType(), func(t *testing.T) {
			conn := db.ConnDbName("siblingsexcl")
			tr, err := nestedset.Open(conn, Category{})
			require.NoError(t, err)
			ctx := context.Background()

			_, a, _, a1, a2 := buildQueryFixture(t, tr, ctx)
			_ = a
			reload(t, conn, a1)

			var sib []Category
			require.NoError(t, tr.Siblings(conn, a1).Find(&sib).Error)
			require.Len(t, sib, 1)
			require.Equal(t, "A2", sib[0].Name)
			_ = a2
		})
	}
}

func TestPrevNextSibling(t *testing.T) {
	for _, db := range testdbs.DBs() {
		t.Run(db.DbType(), func(t *testing.T) {
			conn := db.ConnDbName("prevnextsibling")
			tr, err := nestedset.Open(conn, Category{})
			require.NoError(t, err)
			ctx := context.Background()

			_, _, _, a1, a2 := buildQueryFixture(t, tr, ctx)
			reload(t, conn, a1, a2)

			var next Category
			require.NoError(t, tr.NextSibling(conn, a1).First(&next).Error)
			require.Equal(t, "A2", next.Name)

			var prev Category
			require.NoError(t, tr.PrevSibling(conn, a2).First(&prev).Error)
			require.Equal(t, "A1", prev.Name)
		})
	}
}

func TestLeaves(t *testing.T) {
	for _, db := range testdbs.DBs() {
		t.Run(db.DbType(), func(t *testing.T) {
			conn := db.ConnDbName("leaves")
			tr, err := nestedset.Open(conn, Category{})
			require.NoError(t, err)
			ctx := context.Background()

			r, _, b, _, _ := buildQueryFixture(t, tr, ctx)
			reload(t, conn, r)

			var leaves []Category
			require.NoError(t, tr.Leaves(conn, r).Find(&leaves).Error)
			gotNames := make([]string, len(leaves))
			for i, l := range leaves {
				gotNames[i] = l.Name
			}
			sort.Strings(gotNames)
			require.Equal(t, []string{"A1", "A2", "B"}, gotNames)
			_ = b
		})
	}
}

func TestRootAndRoots(t *testing.T) {
	for _, db := range testdbs.DBs() {
		t.Run(db.DbType(), func(t *testing.T) {
			conn := db.ConnDbName("rootsandroot")
			tr, err := nestedset.Open(conn, Category{})
			require.NoError(t, err)
			ctx := context.Background()

			r, _, _, a1, _ := buildQueryFixture(t, tr, ctx)

			var root Category
			require.NoError(t, tr.Root(conn, a1).First(&root).Error)
			require.Equal(t, "R", root.Name)

			var roots []Category
			require.NoError(t, tr.Roots(conn).Find(&roots).Error)
			require.Len(t, roots, 1)
			require.Equal(t, r.Name, roots[0].Name)
		})
	}
}

func TestSubtreeAndAtDepth(t *testing.T) {
	for _, db := range testdbs.DBs() {
		t.Run(db.DbType(), func(t *testing.T) {
			conn := db.ConnDbName("subtreeatdepth")
			tr, err := nestedset.Open(conn, Category{})
			require.NoError(t, err)
			ctx := context.Background()

			_, a, _, _, _ := buildQueryFixture(t, tr, ctx)
			reload(t, conn, a)

			var subtree []Category
			require.NoError(t, tr.Subtree(conn, a).Find(&subtree).Error)
			gotNames := make([]string, len(subtree))
			for i, s := range subtree {
				gotNames[i] = s.Name
			}
			require.Equal(t, []string{"A", "A1", "A2"}, gotNames)

			var atDepth1 []Category
			require.NoError(t, tr.AtDepth(conn, 1).Find(&atDepth1).Error)
			require.Len(t, atDepth1, 2)
		})
	}
}
