package filter_test

import (
	"testing"

	"pkg.world.dev/world-engine/strata/assert"
	"pkg.world.dev/world-engine/strata/component"
	"pkg.world.dev/world-engine/strata/filter"
)

type Beta struct{}

func TestString(t *testing.T) {
	assert.Equal(t, filter.With(component.IDOf[Beta]()).String(), "with(filter_test.Beta)")
	assert.Equal(t, filter.Optional(component.IDOf[Beta]()).Kind, filter.KindOptional)
	assert.Equal(t, filter.Without(component.IDOf[Beta]()).String(), "without(filter_test.Beta)")
	assert.Equal(t, filter.Kind(9).String(), "kind(9)")
}
