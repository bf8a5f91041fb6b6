package commands

import (
	"testing"

	"github.com/dannyboland/loql/internal/cli/config"
	"github.com/dannyboland/loql/internal/cli/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigCommand(t *testing.T) {
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	res := testutil.ExecuteCommand(t, NewConfigCommand())
	require.NoError(t, res.Err)

	var got config.Config
	require.NoError(t, yaml.Unmarshal([]byte(res.Out), &got))
	assert.Equal(t, *config.Default(), got)
	assert.Contains(t, res.Out, "max_rows: 1000")
	assert.Contains(t, res.Out, "results_file: results.csv")
}
