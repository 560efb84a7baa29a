package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlstad/goddc/internal/config"
	"github.com/mkarlstad/goddc/pkg/retry"
	"github.com/mkarlstad/goddc/pkg/types"
)

func TestApplyMaxTriesSpec(t *testing.T) {
	var rc config.RetryConfig

	require.NoError(t, applyMaxTriesSpec(&rc, "3,12,,7"))

	assert.Equal(t, 3, rc.WriteOnlyTries)
	assert.Equal(t, 12, rc.WriteReadTries)
	assert.Zero(t, rc.MultiPartReadTries, "blank field keeps current value")
	assert.Equal(t, 7, rc.MultiPartWriteTries)
}

func TestApplyMaxTriesSpec_Partial(t *testing.T) {
	var rc config.RetryConfig

	require.NoError(t, applyMaxTriesSpec(&rc, "5"))

	assert.Equal(t, 5, rc.WriteOnlyTries)
	assert.Zero(t, rc.WriteReadTries)
}

func TestApplyMaxTriesSpec_Errors(t *testing.T) {
	tests := []string{"0", "16", "abc", "1,2,3,4,5"}
	for _, spec := range tests {
		t.Run(spec, func(t *testing.T) {
			var rc config.RetryConfig
			assert.Error(t, applyMaxTriesSpec(&rc, spec))
		})
	}
}

func TestParseFeatureCode(t *testing.T) {
	tests := []struct {
		in   string
		want byte
	}{
		{"10", 0x10},
		{"0x10", 0x10},
		{"x10", 0x10},
		{"E3", 0xE3},
		{" 12 ", 0x12},
	}
	for _, tt := range tests {
		got, err := parseFeatureCode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseFeatureCode("zz")
	assert.Error(t, err)
	_, err = parseFeatureCode("100")
	assert.Error(t, err)
}

func TestRenderError(t *testing.T) {
	assert.NoError(t, renderError(&retry.UnsupportedError{
		Class:  types.WriteRead,
		Reason: retry.NullResponse,
	}), "determined-unsupported is a result, not a failure")

	err := renderError(&retry.ExhaustedError{
		Class:   types.WriteRead,
		Tries:   10,
		History: []error{errors.New("noise")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "10 tries")

	passthrough := errors.New("open /dev/i2c-4: permission denied")
	assert.Equal(t, passthrough, renderError(passthrough))
}
