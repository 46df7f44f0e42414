package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Testdata(t *testing.T) {
	for _, name := range []string{"counter_basic", "counter_errors"} {
		t.Run(name, func(t *testing.T) {
			scenario := loadTestdata(t, name)
			require.True(t, scenario.Golden)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunWithGolden_Deterministic(t *testing.T) {
	scenario := loadTestdata(t, "counter_basic")

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, first.Snapshot(scenario.Name), second.Snapshot(scenario.Name))
}
