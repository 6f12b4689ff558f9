package nestedset

import "errors"

// Structural preconditions, as defined in spec.md section 7. Each is
// returned verbatim from the mutation that detects it; callers are
// expected to compare with errors.Is.
var (
	ErrItemIsNotTreeNode = errors.New("the item does not embed Node")
	ErrNodeNotFound      = errors.New("node not found")
	ErrSchemaMismatch    = errors.New("node and target belong to different schemas")

	ErrRootAlreadyExists         = errors.New("a root already exists for this table")
	ErrAlreadyRoot               = errors.New("node is already a root")
	ErrTreeRequired              = errors.New("operation requires a schema with tree scoping enabled")
	ErrCannotInsertBeforeRoot    = errors.New("cannot insert before or after a root")
	ErrCannotMoveBeforeAfterRoot = errors.New("cannot move a node before or after a root")
	ErrCannotMoveToItself        = errors.New("cannot move a node to itself")
	ErrCannotMoveToDescendant    = errors.New("cannot move a node into its own subtree")
	ErrTargetIsNew               = errors.New("target node is not persisted")

	// ErrCannotDeleteRoot is reserved for callers that want a stricter
	// policy where DeleteNode never touches a root, even an empty one.
	// DeleteNode itself never returns it; see DESIGN.md open question 1.
	ErrCannotDeleteRoot = errors.New("cannot delete a root node")

	// ErrCannotDeleteNonEmptyRoot is what DeleteNode actually returns when
	// asked to delete a root that still has children.
	ErrCannotDeleteNonEmptyRoot = errors.New("cannot delete a root node that still has children")
)
