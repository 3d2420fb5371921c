package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	t.Parallel()

	pool := []string{"foo_pass", "foo_diff", "foo_fail", "foo_skip", "bar_analyze"}

	tests := []struct {
		name    string
		pattern string
		pool    []string
		want    []string
	}{
		{
			name:    "literal match",
			pattern: "foo_pass",
			pool:    pool,
			want:    []string{"foo_pass"},
		},
		{
			name:    "literal no match",
			pattern: "foo_nope",
			pool:    pool,
			want:    nil,
		},
		{
			name:    "glob prefix",
			pattern: "foo_*",
			pool:    pool,
			want:    []string{"foo_diff", "foo_fail", "foo_pass", "foo_skip"},
		},
		{
			name:    "glob matches everything",
			pattern: "*",
			pool:    pool,
			want:    []string{"bar_analyze", "foo_diff", "foo_fail", "foo_pass", "foo_skip"},
		},
		{
			name:    "glob zero matches is not an error",
			pattern: "fizz*",
			pool:    pool,
			want:    nil,
		},
		{
			name:    "empty pool",
			pattern: "foo_*",
			pool:    nil,
			want:    nil,
		},
		{
			name:    "infix glob",
			pattern: "foo_*i*",
			pool:    pool,
			want:    []string{"foo_diff", "foo_fail", "foo_skip"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Match(tt.pattern, tt.pool)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatch_SetSemantics(t *testing.T) {
	t.Parallel()

	// Order-independent: any permutation of the pool yields the same result.
	a, err := Match("foo_*", []string{"foo_b", "foo_a", "foo_c"})
	require.NoError(t, err)
	b, err := Match("foo_*", []string{"foo_c", "foo_b", "foo_a"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, []string{"foo_a", "foo_b", "foo_c"}, a)

	// Duplicates in the pool collapse to one entry.
	c, err := Match("foo_*", []string{"foo_a", "foo_a", "foo_a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"foo_a"}, c)
}

func TestMatch_BadPattern(t *testing.T) {
	t.Parallel()

	_, err := Match("foo_[", []string{"foo_a"})
	require.Error(t, err)
}

func TestIsLiteral(t *testing.T) {
	t.Parallel()

	assert.True(t, IsLiteral("foo_pass"))
	assert.False(t, IsLiteral("foo_*"))
	assert.False(t, IsLiteral("foo_?"))
	assert.False(t, IsLiteral("foo_[ab]"))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Validate("foo_pass"))
	assert.NoError(t, Validate("foo_*"))
	assert.Error(t, Validate("foo_["))
}
