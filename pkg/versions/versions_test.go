package versions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1.2.3", "1.2.3", true},
		{"v1.2.3", "1.2.3", true},
		{"=1.2.3", "1.2.3", true},
		{"1.2.3-beta.1", "1.2.3-beta.1", true},
		{"1.2", "1.2.0", true},
		{"2", "2.0.0", true},
		{"release-3.1", "3.1.0", true},
		{" 4.0.0 ", "4.0.0", true},
		{"created", "", false},
		{"modified", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, ok := Coerce(tt.in)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, v.String())
			}
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("1.0.0", "v1.0.0"))
	assert.True(t, Equal("1.0", "1.0.0"))
	assert.False(t, Equal("1.0.0", "1.0.1"))
	assert.False(t, Equal("1.0.0-rc.1", "1.0.0"))
	assert.False(t, Equal("", "1.0.0"))
	assert.False(t, Equal("garbage", "garbage"))
}

func TestExact(t *testing.T) {
	for _, s := range []string{"1.2.3", "=1.2.3", "v1.2.3", "1.2.3-rc.1"} {
		_, ok := Exact(s)
		assert.True(t, ok, s)
	}
	for _, s := range []string{"^1.2.3", "~1.2.3", "1.2", ">=1.2.3", "1.x", "*", ""} {
		_, ok := Exact(s)
		assert.False(t, ok, s)
	}
}

func TestNormalizeRange(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "*", false},
		{"latest", "*", false},
		{"x", "*", false},
		{"^1.0.0", "^1.0.0", false},
		{"npm:other-pkg@^2.1.0", "^2.1.0", false},
		{"npm:@scope/other@~3.0.0", "~3.0.0", false},
		{"npm:other-pkg", "*", false},
		{"workspace:*", "*", false},
		{"workspace:^1.2.0", "^1.2.0", false},
		{"git+https://github.com/a/b.git", "", true},
		{"https://example.com/pkg.tgz", "", true},
		{"file:../local", "", true},
		{"link:../local", "", true},
		{"github:user/repo", "", true},
		{"user/repo#v1", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeRange(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnresolvable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRangeRejectsTags(t *testing.T) {
	_, err := ParseRange("next")
	assert.ErrorIs(t, err, ErrUnresolvable)
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		rng, v string
		want   bool
	}{
		{"^1.0.0", "1.4.2", true},
		{"^1.0.0", "2.0.0", false},
		{"~1.2.0", "1.2.9", true},
		{"~1.2.0", "1.3.0", false},
		{"1.2.3", "1.2.3", true},
		{"1.2.3", "1.2.4", false},
		{">=1.0.0 <2.0.0", "1.9.9", true},
		{"^1.0.0 || ^2.0.0", "2.5.0", true},
		{"1.0.0 - 1.5.0", "1.5.0", true},
		{"1.x", "1.7.0", true},
		{"*", "0.0.1", true},
		{"latest", "9.9.9", true},
		{"^1.0.0", "1.1.0-beta.1", true},
		{"npm:alias@^3.0.0", "3.1.0", true},
		{"git+https://github.com/a/b.git", "1.0.0", false},
		{"^1.0.0", "garbage", false},
	}
	for _, tt := range tests {
		t.Run(tt.rng+" "+tt.v, func(t *testing.T) {
			assert.Equal(t, tt.want, Satisfies(tt.rng, tt.v))
		})
	}
}
