package depspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantKind ExpectKind
		wantN    int
		wantErr  bool
	}{
		{name: "plus", input: "+", wantKind: ExpectAtLeastOne},
		{name: "question mark", input: "?", wantKind: ExpectAtMostOne},
		{name: "star", input: "*", wantKind: ExpectAny},
		{name: "exact zero", input: "0", wantKind: ExpectExact, wantN: 0},
		{name: "exact three", input: "3", wantKind: ExpectExact, wantN: 3},
		{name: "surrounding whitespace", input: " 2 ", wantKind: ExpectExact, wantN: 2},
		{name: "negative integer rejected", input: "-1", wantErr: true},
		{name: "unknown operator rejected", input: "++", wantErr: true},
		{name: "empty rejected", input: "", wantErr: true},
		{name: "word rejected", input: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseExpect(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantN, got.N)
		})
	}
}

func TestExpect_Satisfied(t *testing.T) {
	t.Parallel()

	mustParse := func(s string) Expect {
		e, err := ParseExpect(s)
		require.NoError(t, err)
		return e
	}

	tests := []struct {
		expect string
		count  int
		want   bool
	}{
		{"+", 0, false},
		{"+", 1, true},
		{"+", 5, true},
		{"?", 0, true},
		{"?", 1, true},
		{"?", 2, false},
		{"*", 0, true},
		{"*", 7, true},
		{"2", 2, true},
		{"2", 1, false},
		{"2", 3, false},
		{"0", 0, true},
		{"0", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.expect, func(t *testing.T) {
			assert.Equal(t, tt.want, mustParse(tt.expect).Satisfied(tt.count),
				"evaluate(%q, %d)", tt.expect, tt.count)
		})
	}
}

func TestExpect_String(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"+", "?", "*", "4"} {
		e, err := ParseExpect(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, e.String())
	}

	// The zero value behaves as the manifest default.
	assert.Equal(t, "+", Expect{}.String())
	assert.False(t, Expect{}.Satisfied(0))
	assert.True(t, Expect{}.Satisfied(1))
}
