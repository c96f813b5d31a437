package palette

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	c, err := Parse("#FC6255")
	require.NoError(t, err)
	assert.InDelta(t, 252.0/255, c.R, 1e-9)
	assert.InDelta(t, 98.0/255, c.G, 1e-9)
	assert.InDelta(t, 85.0/255, c.B, 1e-9)
	assert.Equal(t, "#fc6255", strings.ToLower(c.Hex()))
}

func mustParse(t *testing.T, hex string) Color {
	t.Helper()
	c, err := Parse(hex)
	require.NoError(t, err)
	return c
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("not-a-color")
	assert.Error(t, err)
}

func TestLerpEndpoints(t *testing.T) {
	red := mustParse(t, "#FC6255")
	green := mustParse(t, "#83C167")
	assert.Equal(t, red, Lerp(red, green, 0))
	end := Lerp(red, green, 1)
	assert.InDelta(t, green.R, end.R, 1e-12)
	assert.InDelta(t, green.G, end.G, 1e-12)
	assert.InDelta(t, green.B, end.B, 1e-12)

	mid := Lerp(Black, White, 0.5)
	assert.InDelta(t, 0.5, mid.G, 1e-12)
}

func TestGradientStops(t *testing.T) {
	base := mustParse(t, "#BBBBBB")
	top, bottom := Gradient(base)
	assert.Greater(t, top.R, base.R)
	assert.Less(t, bottom.R, base.R)
}
