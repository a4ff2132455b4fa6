package lel_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilsec/veil/internal/lel"
)

// fakeAttrs implements lel.AttrSource over a plain map for tests.
type fakeAttrs map[string][]string

func (f fakeAttrs) Values(attr string) ([]string, bool) {
	v, ok := f[attr]
	return v, ok
}

// fakeLevels implements lel.LevelSource over a plain map for tests.
type fakeLevels map[[2]string]int

func (f fakeLevels) Rank(attr, value string) (int, bool) {
	r, ok := f[[2]string{attr, value}]
	return r, ok
}

func TestEval_TrueFalse(t *testing.T) {
	r, err := lel.Eval(lel.True{}, fakeAttrs{}, fakeLevels{})
	require.NoError(t, err)
	assert.True(t, r)

	r, err = lel.Eval(lel.False{}, fakeAttrs{}, fakeLevels{})
	require.NoError(t, err)
	assert.False(t, r)
}

func TestEval_EmptyContextStillTrueLabel(t *testing.T) {
	n, err := lel.Parse("true")
	require.NoError(t, err)
	r, err := lel.Eval(n, fakeAttrs{}, fakeLevels{})
	require.NoError(t, err)
	assert.True(t, r)
}

func TestEval_Eq_Membership(t *testing.T) {
	attrs := fakeAttrs{"role": {"admin", "manager"}}
	n, _ := lel.Parse("role=admin")
	r, err := lel.Eval(n, attrs, fakeLevels{})
	require.NoError(t, err)
	assert.True(t, r)

	n, _ = lel.Parse("role=auditor")
	r, err = lel.Eval(n, attrs, fakeLevels{})
	require.NoError(t, err)
	assert.False(t, r)
}

func TestEval_MultiValuedAttribute(t *testing.T) {
	attrs := fakeAttrs{"role": {"a", "b"}}
	na, _ := lel.Parse("role=a")
	nb, _ := lel.Parse("role=b")

	ra, err := lel.Eval(na, attrs, fakeLevels{})
	require.NoError(t, err)
	rb, err := lel.Eval(nb, attrs, fakeLevels{})
	require.NoError(t, err)
	assert.True(t, ra)
	assert.True(t, rb)
}

func TestEval_MissingAttributeIsFalse(t *testing.T) {
	n, _ := lel.Parse("role=admin")
	r, err := lel.Eval(n, fakeAttrs{}, fakeLevels{})
	require.NoError(t, err)
	assert.False(t, r)
}

func TestEval_NotAndOr(t *testing.T) {
	attrs := fakeAttrs{"role": {"admin"}}
	n, _ := lel.Parse("!role=admin")
	r, _ := lel.Eval(n, attrs, fakeLevels{})
	assert.False(t, r)

	n, _ = lel.Parse("role=admin&team=finance")
	r, _ = lel.Eval(n, attrs, fakeLevels{})
	assert.False(t, r, "team=finance unsatisfied")

	n, _ = lel.Parse("role=admin|team=finance")
	r, _ = lel.Eval(n, attrs, fakeLevels{})
	assert.True(t, r)
}

func TestEval_LevelComparison(t *testing.T) {
	levels := fakeLevels{
		{"clearance", "public"}:       0,
		{"clearance", "confidential"}: 1,
		{"clearance", "secret"}:       2,
		{"clearance", "top_secret"}:   3,
	}
	n, err := lel.Parse("clearance>=secret")
	require.NoError(t, err)

	r, err := lel.Eval(n, fakeAttrs{"clearance": {"confidential"}}, levels)
	require.NoError(t, err)
	assert.False(t, r)

	r, err = lel.Eval(n, fakeAttrs{"clearance": {"secret"}}, levels)
	require.NoError(t, err)
	assert.True(t, r)

	r, err = lel.Eval(n, fakeAttrs{"clearance": {"top_secret"}}, levels)
	require.NoError(t, err)
	assert.True(t, r)
}

func TestEval_UnknownLevelValueInContextIsIgnored(t *testing.T) {
	levels := fakeLevels{
		{"clearance", "secret"}: 2,
	}
	n, err := lel.Parse("clearance>=secret")
	require.NoError(t, err)

	// "bogus" has no known rank and should simply be ignored, not error.
	r, err := lel.Eval(n, fakeAttrs{"clearance": {"bogus"}}, levels)
	require.NoError(t, err)
	assert.False(t, r)
}

func TestEval_UndefinedLevelInComparisonIsError(t *testing.T) {
	n, err := lel.Parse("clearance>=nonexistent")
	require.NoError(t, err)

	_, err = lel.Eval(n, fakeAttrs{"clearance": {"secret"}}, fakeLevels{})
	require.Error(t, err)
	var evalErr *lel.EvaluationError
	assert.True(t, errors.As(err, &evalErr))
}

func TestEval_ShortCircuitAnd(t *testing.T) {
	// The right side references an undefined level; if And short-circuits
	// correctly on a false left side, evaluation must not error.
	n := lel.And{
		L: lel.False{},
		R: lel.Cmp{Attr: "clearance", Op: lel.OpGE, Value: "nonexistent"},
	}
	r, err := lel.Eval(n, fakeAttrs{}, fakeLevels{})
	require.NoError(t, err)
	assert.False(t, r)
}

func TestEval_ShortCircuitOr(t *testing.T) {
	n := lel.Or{
		L: lel.True{},
		R: lel.Cmp{Attr: "clearance", Op: lel.OpGE, Value: "nonexistent"},
	}
	r, err := lel.Eval(n, fakeAttrs{}, fakeLevels{})
	require.NoError(t, err)
	assert.True(t, r)
}
