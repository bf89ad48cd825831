package gemfile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTranslateSpecPessimisticTwoSegment(t *testing.T) {
	got, err := translateSpec("~> 1.2")
	require.NoError(t, err)
	require.Equal(t, ">= 1.2.0, < 1.3.0", got)
}

func TestTranslateSpecPessimisticThreeSegment(t *testing.T) {
	got, err := translateSpec("~> 1.2.3")
	require.NoError(t, err)
	require.Equal(t, ">= 1.2.3, < 1.3.0", got)
}

func TestTranslateSpecPassthrough(t *testing.T) {
	got, err := translateSpec(">= 2.0")
	require.NoError(t, err)
	require.Equal(t, ">= 2.0", got)
}

func TestGemConstraintCheck(t *testing.T) {
	g := &Gem{Name: "rails", VersionSpecs: []string{"~> 7.0"}}
	c, err := g.Constraint()
	require.NoError(t, err)

	ok, err := c.Check("7.0.4")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.Check("7.1.0")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = c.Check("6.9.0")
	require.NoError(t, err)
	require.False(t, ok)
}
