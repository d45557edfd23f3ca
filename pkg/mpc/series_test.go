package mpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/texrepo/mpc/internal/buildinfo"
)

func TestParseSeriesAcceptsBuildConstant(t *testing.T) {
	major, minor, err := ParseSeries(buildinfo.Series)
	require.NoError(t, err)
	assert.Equal(t, 6, major)
	assert.Equal(t, 0, minor)
}

func TestParseSeriesRejectsNewerThanBuild(t *testing.T) {
	_, _, err := ParseSeries("9.9")
	require.Error(t, err)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestSeriesBelow27(t *testing.T) {
	assert.True(t, seriesBelow27(2, 6))
	assert.True(t, seriesBelow27(1, 9))
	assert.False(t, seriesBelow27(2, 7))
	assert.False(t, seriesBelow27(3, 0))
}
