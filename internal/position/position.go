package position

import (
	"context"
	"strconv"
	"strings"

	"github.com/goliatone/go-layouts/internal/domain"
	"github.com/goliatone/go-layouts/internal/persistence"
)

// Scope identifies a sibling list: the children of one parent placed in one
// placeholder, in one status.
type Scope struct {
	ParentID    int64
	Placeholder string
	Status      domain.Status
}

// Store exposes the sibling queries the engine needs. Block gateways
// implement it.
type Store interface {
	// CountSiblings returns the number of nodes in scope.
	CountSiblings(ctx context.Context, scope Scope) (int, error)
	// ShiftPositions adds delta to the position of every node in scope whose
	// position is within [from, to]. A nil to leaves the range open ended.
	ShiftPositions(ctx context.Context, scope Scope, from int, to *int, delta int) error
}

// Engine keeps sibling positions contiguous (0..n-1) across inserts, removals
// and moves.
type Engine struct {
	store Store
}

// NewEngine builds a positioning engine over the provided store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// CreatePosition opens a slot for a new node in scope and returns the position
// the node must take. A nil position appends to the end of the scope.
func (e *Engine) CreatePosition(ctx context.Context, scope Scope, position *int) (int, error) {
	count, err := e.store.CountSiblings(ctx, scope)
	if err != nil {
		return 0, err
	}
	if position == nil {
		return count, nil
	}

	target := *position
	if target < 0 {
		return 0, persistence.NewBadState("position", "Position cannot be negative.")
	}
	if target > count {
		return 0, persistence.NewBadState("position", "Position is out of range.")
	}
	if target < count {
		if err := e.store.ShiftPositions(ctx, scope, target, nil, 1); err != nil {
			return 0, err
		}
	}
	return target, nil
}

// ReleasePosition closes the gap left by a node removed from position in scope.
func (e *Engine) ReleasePosition(ctx context.Context, scope Scope, position int) error {
	return e.store.ShiftPositions(ctx, scope, position+1, nil, -1)
}

// MovePosition relocates a node inside scope from current to position with a
// single shift of the siblings in between, and returns the new position.
func (e *Engine) MovePosition(ctx context.Context, scope Scope, current int, position int) (int, error) {
	if position < 0 {
		return 0, persistence.NewBadState("position", "Position cannot be negative.")
	}
	count, err := e.store.CountSiblings(ctx, scope)
	if err != nil {
		return 0, err
	}
	if position >= count {
		return 0, persistence.NewBadState("position", "Position is out of range.")
	}

	switch {
	case position < current:
		upper := current - 1
		err = e.store.ShiftPositions(ctx, scope, position, &upper, 1)
	case position > current:
		upper := position
		err = e.store.ShiftPositions(ctx, scope, current+1, &upper, -1)
	}
	if err != nil {
		return 0, err
	}
	return position, nil
}

// ChildPath returns the materialized path of node id placed below parentPath.
func ChildPath(parentPath string, id int64) string {
	if parentPath == "" {
		parentPath = "/"
	}
	return parentPath + strconv.FormatInt(id, 10) + "/"
}

// RootPath returns the materialized path of a parentless node.
func RootPath(id int64) string {
	return ChildPath("/", id)
}

// IsWithin reports whether path lies at or below ancestorPath.
func IsWithin(path, ancestorPath string) bool {
	return ancestorPath != "" && strings.HasPrefix(path, ancestorPath)
}

// Rebase moves path from below oldBase to below newBase.
func Rebase(path, oldBase, newBase string) string {
	return newBase + strings.TrimPrefix(path, oldBase)
}
