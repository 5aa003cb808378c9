// Package hierarchy links entities into parent/child trees. Links are stored in a Node component on
// every entity of a tree, and are rewritten when a world is cloned or merged.
package hierarchy

import (
	"slices"

	"github.com/rotisserie/eris"

	"pkg.world.dev/world-engine/strata"
	"pkg.world.dev/world-engine/strata/component"
	"pkg.world.dev/world-engine/strata/entity"
	"pkg.world.dev/world-engine/strata/types"
)

var ErrCycle = eris.New("entity cannot become a child of its own descendant")

// Node holds the tree links of an entity. Children form a doubly linked list; a parent only knows its
// last child. Absent links are types.NullEntity.
type Node struct {
	Parent          types.Entity
	LastChild       types.Entity
	NextSibling     types.Entity
	PreviousSibling types.Entity
}

func (Node) Name() string { return "hierarchy_node" }

func (n Node) Clone(m *entity.Migrator) Node {
	return Node{
		Parent:          m.Migrate(n.Parent),
		LastChild:       m.Migrate(n.LastChild),
		NextSibling:     m.Migrate(n.NextSibling),
		PreviousSibling: m.Migrate(n.PreviousSibling),
	}
}

func emptyNode() Node {
	return Node{
		Parent:          types.NullEntity,
		LastChild:       types.NullEntity,
		NextSibling:     types.NullEntity,
		PreviousSibling: types.NullEntity,
	}
}

func node(w *strata.World, e types.Entity) (*Node, error) {
	return strata.GetComponent[Node](w, e)
}

// ensureNode gives e a Node if it has none. It may move e to another archetype.
func ensureNode(w *strata.World, e types.Entity) error {
	_, err := node(w, e)
	if eris.Is(err, types.ErrNoMatchingComponent) {
		return w.AddComponent(e, component.New(emptyNode()))
	}
	return err
}

// Parent returns the parent of e, if any.
func Parent(w *strata.World, e types.Entity) (types.Entity, bool) {
	n, err := node(w, e)
	if err != nil || n.Parent.IsNull() {
		return types.NullEntity, false
	}
	return n.Parent, true
}

// Children lists the children of e, oldest first.
func Children(w *strata.World, e types.Entity) ([]types.Entity, error) {
	n, err := node(w, e)
	if eris.Is(err, types.ErrNoMatchingComponent) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []types.Entity
	for child := n.LastChild; !child.IsNull(); {
		out = append(out, child)
		cn, err := node(w, child)
		if err != nil {
			return nil, eris.Wrapf(err, "broken sibling link at %s", child)
		}
		child = cn.PreviousSibling
	}
	slices.Reverse(out)
	return out, nil
}

// SetParent makes child the last child of parent, detaching it from its previous parent first. A
// NullEntity parent only detaches child.
func SetParent(w *strata.World, parent, child types.Entity) error {
	if _, ok := w.Store().Location(child); !ok {
		return eris.Wrapf(types.ErrEntityMissing, "child %s", child)
	}
	if !parent.IsNull() {
		if _, ok := w.Store().Location(parent); !ok {
			return eris.Wrapf(types.ErrEntityMissing, "parent %s", parent)
		}
		for ancestor := parent; !ancestor.IsNull(); {
			if ancestor == child {
				return eris.Wrapf(ErrCycle, "%s under %s", child, parent)
			}
			ancestor, _ = Parent(w, ancestor)
		}
	}

	if old, ok := Parent(w, child); ok {
		if err := RemoveChild(w, old, child); err != nil {
			return err
		}
	}
	if parent.IsNull() {
		return nil
	}

	if err := ensureNode(w, parent); err != nil {
		return err
	}
	if err := ensureNode(w, child); err != nil {
		return err
	}

	pn, err := node(w, parent)
	if err != nil {
		return err
	}
	previous := pn.LastChild
	pn.LastChild = child
	if !previous.IsNull() {
		prev, err := node(w, previous)
		if err != nil {
			return eris.Wrapf(err, "broken sibling link at %s", previous)
		}
		prev.NextSibling = child
	}

	cn, err := node(w, child)
	if err != nil {
		return err
	}
	cn.Parent = parent
	cn.PreviousSibling = previous
	cn.NextSibling = types.NullEntity
	return nil
}

// RemoveChild detaches child from parent. Nothing happens when child is not a child of parent.
func RemoveChild(w *strata.World, parent, child types.Entity) error {
	cn, err := node(w, child)
	if err != nil {
		return err
	}
	if cn.Parent != parent {
		return nil
	}
	previous, next := cn.PreviousSibling, cn.NextSibling
	cn.Parent, cn.PreviousSibling, cn.NextSibling = types.NullEntity, types.NullEntity, types.NullEntity

	if !previous.IsNull() {
		prev, err := node(w, previous)
		if err != nil {
			return eris.Wrapf(err, "broken sibling link at %s", previous)
		}
		prev.NextSibling = next
	}
	if !next.IsNull() {
		nn, err := node(w, next)
		if err != nil {
			return eris.Wrapf(err, "broken sibling link at %s", next)
		}
		nn.PreviousSibling = previous
		return nil
	}
	pn, err := node(w, parent)
	if err != nil {
		return err
	}
	pn.LastChild = previous
	return nil
}

// DespawnHierarchy removes e and all of its descendants.
func DespawnHierarchy(w *strata.World, e types.Entity) error {
	if _, ok := w.Store().Location(e); !ok {
		return eris.Wrapf(types.ErrEntityMissing, "despawn hierarchy of %s", e)
	}
	if parent, ok := Parent(w, e); ok {
		if err := RemoveChild(w, parent, e); err != nil {
			return err
		}
	}
	children, err := Children(w, e)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := despawnTree(w, child); err != nil {
			return err
		}
	}
	return w.Despawn(e)
}

func despawnTree(w *strata.World, e types.Entity) error {
	children, err := Children(w, e)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := despawnTree(w, child); err != nil {
			return err
		}
	}
	return w.Despawn(e)
}
