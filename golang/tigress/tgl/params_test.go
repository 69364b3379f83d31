package tgl

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseScoring(t *testing.T) {
	for name, want := range map[string]Scoring{
		"":          ScoringFrequency,
		"frequency": ScoringFrequency,
		"original":  ScoringFrequency,
		"area":      ScoringArea,
	} {
		got, err := ParseScoring(name)
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}
	_, err := ParseScoring("auc")
	require.Error(t, err)
	require.Equal(t, "area", ScoringArea.String())
}

func TestParamsDefaults(t *testing.T) {
	params := DefaultParams()
	require.NoError(t, params.Validate())
	require.Equal(t, 5, params.Steps)
	require.Equal(t, 0.2, params.Alpha)
	require.Equal(t, 100, params.NSplit)
	require.Equal(t, DefaultSeed, params.seed())
	require.Equal(t, runtime.NumCPU(), params.threads())
	require.NotNil(t, params.logger())

	params.Scoring = Scoring(7)
	require.Error(t, params.Validate())
}
