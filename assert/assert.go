// Package assert bundles the gotest.tools and testify assertions used by the strata tests. Error
// assertions print the full eris stack of the error under test.
package assert

import (
	gocmp "github.com/google/go-cmp/cmp"
	"github.com/rotisserie/eris"
	testify "github.com/stretchr/testify/assert"
	gotest "gotest.tools/v3/assert"
)

type helperT interface {
	Helper()
}

func helper(t any) {
	if ht, ok := t.(helperT); ok {
		ht.Helper()
	}
}

func withStack(err error, msgAndArgs []any) []any {
	return append([]any{eris.ToString(err, true)}, msgAndArgs...)
}

func Assert(t gotest.TestingT, comparison gotest.BoolOrComparison, msgAndArgs ...any) {
	helper(t)
	gotest.Assert(t, comparison, msgAndArgs...)
}

func Check(t gotest.TestingT, comparison gotest.BoolOrComparison, msgAndArgs ...any) bool {
	helper(t)
	return gotest.Check(t, comparison, msgAndArgs...)
}

func NilError(t gotest.TestingT, err error, msgAndArgs ...any) {
	helper(t)
	gotest.NilError(t, err, withStack(err, msgAndArgs)...)
}

func Equal(t gotest.TestingT, x, y any, msgAndArgs ...any) {
	helper(t)
	gotest.Equal(t, x, y, msgAndArgs...)
}

func DeepEqual(t gotest.TestingT, x, y any, opts ...gocmp.Option) {
	helper(t)
	gotest.DeepEqual(t, x, y, opts...)
}

// ErrorIs compares the root causes of err and expected, so wrapped sentinels match.
func ErrorIs(t gotest.TestingT, err error, expected error, msgAndArgs ...any) {
	helper(t)
	gotest.ErrorIs(t, eris.Cause(err), eris.Cause(expected), withStack(err, msgAndArgs)...)
}

func ErrorContains(t gotest.TestingT, err error, substring string, msgAndArgs ...any) {
	helper(t)
	gotest.ErrorContains(t, err, substring, withStack(err, msgAndArgs)...)
}

func IsError(t testify.TestingT, err error, msgAndArgs ...any) bool {
	helper(t)
	return testify.Error(t, err, msgAndArgs...)
}

func NoError(t testify.TestingT, err error, msgAndArgs ...any) bool {
	helper(t)
	return testify.NoError(t, err, withStack(err, msgAndArgs)...)
}

func NotErrorIs(t testify.TestingT, err, target error, msgAndArgs ...any) bool {
	helper(t)
	return testify.NotErrorIs(t, err, target, msgAndArgs...)
}

func True(t testify.TestingT, value bool, msgAndArgs ...any) bool {
	helper(t)
	return testify.True(t, value, msgAndArgs...)
}

func False(t testify.TestingT, value bool, msgAndArgs ...any) bool {
	helper(t)
	return testify.False(t, value, msgAndArgs...)
}

func Len(t testify.TestingT, object any, length int, msgAndArgs ...any) bool {
	helper(t)
	return testify.Len(t, object, length, msgAndArgs...)
}

func Empty(t testify.TestingT, object any, msgAndArgs ...any) bool {
	helper(t)
	return testify.Empty(t, object, msgAndArgs...)
}

func NotEmpty(t testify.TestingT, object any, msgAndArgs ...any) bool {
	helper(t)
	return testify.NotEmpty(t, object, msgAndArgs...)
}

func Nil(t testify.TestingT, object any, msgAndArgs ...any) bool {
	helper(t)
	return testify.Nil(t, object, msgAndArgs...)
}

func NotNil(t testify.TestingT, object any, msgAndArgs ...any) bool {
	helper(t)
	return testify.NotNil(t, object, msgAndArgs...)
}

func NotEqual(t testify.TestingT, expected, actual any, msgAndArgs ...any) bool {
	helper(t)
	return testify.NotEqual(t, expected, actual, msgAndArgs...)
}

func Contains(t testify.TestingT, s, contains any, msgAndArgs ...any) bool {
	helper(t)
	return testify.Contains(t, s, contains, msgAndArgs...)
}

func NotContains(t testify.TestingT, s, contains any, msgAndArgs ...any) bool {
	helper(t)
	return testify.NotContains(t, s, contains, msgAndArgs...)
}

func ElementsMatch(t testify.TestingT, listA, listB any, msgAndArgs ...any) bool {
	helper(t)
	return testify.ElementsMatch(t, listA, listB, msgAndArgs...)
}

func Subset(t testify.TestingT, list, subset any, msgAndArgs ...any) bool {
	helper(t)
	return testify.Subset(t, list, subset, msgAndArgs...)
}

func Greater(t testify.TestingT, e1, e2 any, msgAndArgs ...any) bool {
	helper(t)
	return testify.Greater(t, e1, e2, msgAndArgs...)
}

func Same(t testify.TestingT, expected, actual any, msgAndArgs ...any) bool {
	helper(t)
	return testify.Same(t, expected, actual, msgAndArgs...)
}

func NotSame(t testify.TestingT, expected, actual any, msgAndArgs ...any) bool {
	helper(t)
	return testify.NotSame(t, expected, actual, msgAndArgs...)
}

func Panics(t testify.TestingT, f testify.PanicTestFunc, msgAndArgs ...any) bool {
	helper(t)
	return testify.Panics(t, f, msgAndArgs...)
}

func NotPanics(t testify.TestingT, f testify.PanicTestFunc, msgAndArgs ...any) bool {
	helper(t)
	return testify.NotPanics(t, f, msgAndArgs...)
}

func JSONEq(t testify.TestingT, expected string, actual string, msgAndArgs ...any) bool {
	helper(t)
	return testify.JSONEq(t, expected, actual, msgAndArgs...)
}
