// Package filter describes how a query term restricts the archetypes it matches.
package filter

import (
	"fmt"

	"pkg.world.dev/world-engine/strata/component"
)

type Kind uint8

const (
	// KindWith requires the component to be present.
	KindWith Kind = iota
	// KindWithout requires the component to be absent.
	KindWithout
	// KindOptional never excludes an archetype.
	KindOptional
)

func (k Kind) String() string {
	switch k {
	case KindWith:
		return "with"
	case KindWithout:
		return "without"
	case KindOptional:
		return "optional"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

type Filter struct {
	Component component.ID
	Kind      Kind
}

func With(id component.ID) Filter {
	return Filter{Component: id, Kind: KindWith}
}

func Without(id component.ID) Filter {
	return Filter{Component: id, Kind: KindWithout}
}

func Optional(id component.ID) Filter {
	return Filter{Component: id, Kind: KindOptional}
}

func (f Filter) String() string {
	return fmt.Sprintf("%s(%s)", f.Kind, component.Name(f.Component))
}
