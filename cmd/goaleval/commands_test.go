package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/goaleval/internal/domain"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseGoalCommand(t *testing.T) {
	out, err := execute(t, "", "parse-goal",
		"--goal", "I have $5k and want to reach $40k over 6 years",
		"--monthly", "0")
	require.NoError(t, err)

	var params domain.GoalParameters
	require.NoError(t, json.Unmarshal([]byte(out), &params))
	assert.Equal(t, 5000.0, params.StartingWealth)
	assert.Equal(t, 40000.0, params.TargetWealth)
	assert.Equal(t, 6, params.TimelineYears)
	assert.Equal(t, 0.0, params.MonthlyContribution)
}

func TestParseGoalCommand_Overrides(t *testing.T) {
	out, err := execute(t, "", "parse-goal", "--goal", "reach $40k", "--years", "12", "--starting-wealth", "2500")
	require.NoError(t, err)

	var params domain.GoalParameters
	require.NoError(t, json.Unmarshal([]byte(out), &params))
	assert.Equal(t, 2500.0, params.StartingWealth)
	assert.Equal(t, 12, params.TimelineYears)
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, `{"tickers":[{"symbol":"VTI","allocation_percent":100}]}`, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, `"valid": true`)

	out, err = execute(t, "```json\n{\"tickers\":[{\"symbol\":\"VTI\",\"allocation_percent\":80}]}\n```", "validate")
	require.Error(t, err)
	assert.Contains(t, out, "Allocations sum to 80.0%, not 100%")
}

func TestValidateCommand_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tickers":[{"symbol":"VTI","allocation_percent":99.5}]}`), 0644))

	out, err := execute(t, "", "validate", "--portfolio", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"message": "Valid"`)
}

func TestEvaluateCommand_RequiresGoal(t *testing.T) {
	_, err := execute(t, "", "evaluate", "--portfolio", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--goal is required")
}

func TestReadPortfolio(t *testing.T) {
	p, err := readPortfolio("-", strings.NewReader(`Use this: {"tickers":[{"symbol":"BND","allocation_percent":100}]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"BND"}, p.Symbols())

	_, err = readPortfolio("-", strings.NewReader("nothing"))
	assert.ErrorIs(t, err, domain.ErrInvalidPortfolio)

	_, err = readPortfolio(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}
