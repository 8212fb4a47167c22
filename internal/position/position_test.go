package position

import (
	"context"
	"errors"
	"slices"
	"sort"
	"testing"

	"github.com/goliatone/go-layouts/internal/domain"
	"github.com/goliatone/go-layouts/internal/persistence"
)

type node struct {
	id       int64
	position int
}

type fakeStore struct {
	nodes []*node
}

func (s *fakeStore) CountSiblings(context.Context, Scope) (int, error) {
	return len(s.nodes), nil
}

func (s *fakeStore) ShiftPositions(_ context.Context, _ Scope, from int, to *int, delta int) error {
	for _, n := range s.nodes {
		if n.position < from {
			continue
		}
		if to != nil && n.position > *to {
			continue
		}
		n.position += delta
	}
	return nil
}

func (s *fakeStore) insert(t *testing.T, engine *Engine, id int64, pos *int) {
	t.Helper()
	p, err := engine.CreatePosition(context.Background(), testScope, pos)
	if err != nil {
		t.Fatalf("create position for %d: %v", id, err)
	}
	s.nodes = append(s.nodes, &node{id: id, position: p})
}

func (s *fakeStore) remove(t *testing.T, engine *Engine, id int64) {
	t.Helper()
	idx := slices.IndexFunc(s.nodes, func(n *node) bool { return n.id == id })
	removed := s.nodes[idx]
	s.nodes = slices.Delete(s.nodes, idx, idx+1)
	if err := engine.ReleasePosition(context.Background(), testScope, removed.position); err != nil {
		t.Fatalf("release position: %v", err)
	}
}

func (s *fakeStore) order() []int64 {
	sorted := slices.Clone(s.nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].position < sorted[j].position })
	out := make([]int64, 0, len(sorted))
	for _, n := range sorted {
		out = append(out, n.id)
	}
	return out
}

func (s *fakeStore) assertContiguous(t *testing.T) {
	t.Helper()
	positions := make([]int, 0, len(s.nodes))
	for _, n := range s.nodes {
		positions = append(positions, n.position)
	}
	sort.Ints(positions)
	for i, p := range positions {
		if p != i {
			t.Fatalf("positions not contiguous: %v", positions)
		}
	}
}

var testScope = Scope{ParentID: 3, Placeholder: "left", Status: domain.StatusDraft}

func intPtr(v int) *int { return &v }

func TestInsertAtHeadShiftsSiblings(t *testing.T) {
	store := &fakeStore{nodes: []*node{{id: 31, position: 0}, {id: 35, position: 1}}}
	engine := NewEngine(store)

	store.insert(t, engine, 99, intPtr(0))
	if got := store.order(); !slices.Equal(got, []int64{99, 31, 35}) {
		t.Fatalf("unexpected order %v", got)
	}
	store.assertContiguous(t)

	store.remove(t, engine, 99)
	if got := store.order(); !slices.Equal(got, []int64{31, 35}) {
		t.Fatalf("unexpected order after delete %v", got)
	}
	store.assertContiguous(t)
}

func TestInsertWithoutPositionAppends(t *testing.T) {
	store := &fakeStore{nodes: []*node{{id: 31, position: 0}}}
	engine := NewEngine(store)

	store.insert(t, engine, 40, nil)
	if got := store.order(); !slices.Equal(got, []int64{31, 40}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestInsertRejectsInvalidPositions(t *testing.T) {
	store := &fakeStore{nodes: []*node{{id: 31, position: 0}, {id: 35, position: 1}}}
	engine := NewEngine(store)

	for _, pos := range []int{-1, 3} {
		_, err := engine.CreatePosition(context.Background(), testScope, intPtr(pos))
		if !errors.Is(err, persistence.ErrBadState) {
			t.Fatalf("position %d: expected bad state, got %v", pos, err)
		}
	}
	if got := store.order(); !slices.Equal(got, []int64{31, 35}) {
		t.Fatalf("expected untouched scope, got %v", got)
	}
}

func TestMovePositionSwapsTwoSiblings(t *testing.T) {
	store := &fakeStore{nodes: []*node{{id: 31, position: 0}, {id: 35, position: 1}}}
	engine := NewEngine(store)

	moved := store.nodes[0]
	p, err := engine.MovePosition(context.Background(), testScope, moved.position, 1)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	moved.position = p

	if store.nodes[0].position != 1 || store.nodes[1].position != 0 {
		t.Fatalf("expected [1,0], got [%d,%d]", store.nodes[0].position, store.nodes[1].position)
	}
}

func TestMovePositionKeepsContiguity(t *testing.T) {
	tests := []struct {
		name string
		from int
		to   int
		want []int64
	}{
		{name: "down", from: 0, to: 3, want: []int64{2, 3, 4, 1, 5}},
		{name: "up", from: 4, to: 1, want: []int64{1, 5, 2, 3, 4}},
		{name: "same", from: 2, to: 2, want: []int64{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			for i := 0; i < 5; i++ {
				store.nodes = append(store.nodes, &node{id: int64(i + 1), position: i})
			}
			engine := NewEngine(store)

			moved := store.nodes[tt.from]
			p, err := engine.MovePosition(context.Background(), testScope, moved.position, tt.to)
			if err != nil {
				t.Fatalf("move: %v", err)
			}
			moved.position = p

			store.assertContiguous(t)
			if got := store.order(); !slices.Equal(got, tt.want) {
				t.Fatalf("unexpected order %v want %v", got, tt.want)
			}
		})
	}
}

func TestMovePositionRejectsOutOfRange(t *testing.T) {
	store := &fakeStore{nodes: []*node{{id: 31, position: 0}, {id: 35, position: 1}}}
	engine := NewEngine(store)

	if _, err := engine.MovePosition(context.Background(), testScope, 0, 2); !errors.Is(err, persistence.ErrBadState) {
		t.Fatalf("expected bad state, got %v", err)
	}
	if _, err := engine.MovePosition(context.Background(), testScope, 0, -1); !errors.Is(err, persistence.ErrBadState) {
		t.Fatalf("expected bad state, got %v", err)
	}
}

func TestPaths(t *testing.T) {
	if got := RootPath(3); got != "/3/" {
		t.Fatalf("unexpected root path %q", got)
	}
	if got := ChildPath("/3/", 31); got != "/3/31/" {
		t.Fatalf("unexpected child path %q", got)
	}
	if !IsWithin("/3/31/", "/3/") {
		t.Fatal("expected descendant path to be within ancestor")
	}
	if IsWithin("/30/", "/3/") {
		t.Fatal("expected sibling id prefix not to match")
	}
	if got := Rebase("/3/31/40/", "/3/31/", "/5/31/"); got != "/5/31/40/" {
		t.Fatalf("unexpected rebased path %q", got)
	}
}
