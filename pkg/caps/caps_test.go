package caps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "(prot(monitor)type(lcd)model(U2720Q)cmds(01 02 03 07 0c e3 f3)" +
	"vcp(02 04 10 12 14(05 08 0b) 60(11 12 0f))mccs_ver(2.2))"

func TestParse(t *testing.T) {
	c, err := Parse(sample)
	require.NoError(t, err)

	assert.Equal(t, "monitor", c.Protocol)
	assert.Equal(t, "lcd", c.Type)
	assert.Equal(t, "U2720Q", c.Model)
	assert.Equal(t, "2.2", c.MCCSVersion)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x07, 0x0C, 0xE3, 0xF3}, c.Commands)

	require.Len(t, c.Features, 6)
	assert.Equal(t, byte(0x02), c.Features[0].Code)
	assert.Nil(t, c.Features[0].Values)

	assert.Equal(t, byte(0x14), c.Features[4].Code)
	assert.Equal(t, []byte{0x05, 0x08, 0x0B}, c.Features[4].Values)

	assert.Equal(t, byte(0x60), c.Features[5].Code)
	assert.Equal(t, []byte{0x11, 0x12, 0x0F}, c.Features[5].Values)
}

func TestSupports(t *testing.T) {
	c, err := Parse(sample)
	require.NoError(t, err)

	assert.True(t, c.Supports(0x10))
	assert.False(t, c.Supports(0xD6))
}

func TestParse_UnknownSegmentsPreserved(t *testing.T) {
	c, err := Parse("(prot(monitor)mswhql(1)asset_eep(40)vcp(10))")
	require.NoError(t, err)

	assert.Equal(t, "1", c.Unrecognized["mswhql"])
	assert.Equal(t, "40", c.Unrecognized["asset_eep"])
	assert.True(t, c.Supports(0x10))
}

func TestParse_LeadingWhitespace(t *testing.T) {
	c, err := Parse("  (vcp(10 12))  ")
	require.NoError(t, err)
	assert.True(t, c.Supports(0x12))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no root group", "vcp(10)"},
		{"unterminated", "(vcp(10)"},
		{"trailing garbage", "(vcp(10))x"},
		{"bad feature code", "(vcp(zz))"},
		{"bad command code", "(cmds(xx))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestParse_NestedModelParens(t *testing.T) {
	// some displays nest parentheses inside segment values
	c, err := Parse("(model(Foo(tm))vcp(10))")
	require.NoError(t, err)
	assert.Equal(t, "Foo(tm)", c.Model)
}
