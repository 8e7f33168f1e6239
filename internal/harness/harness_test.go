package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name, "scenario name should match its file")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario failed:\n%s", strings.Join(result.Errors, "\n"))
			assert.Len(t, result.Steps, len(scenario.Steps))
		})
	}
}

func TestRun_StepOutcomes(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "concurrent_writers.yaml"))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, strings.Join(result.Errors, "\n"))

	assert.Equal(t, []StepOutcome{
		{Index: 0, Op: OpAddComponent, Outcome: OutcomeApplied, Attempts: 1},
		{Index: 1, Op: OpAddVersion, Outcome: OutcomeApplied, Attempts: 2},
		{Index: 2, Op: OpAddComponent, Outcome: "VALIDATION"},
		{Index: 3, Op: OpAddComponent, Outcome: "VALIDATION"},
	}, result.Steps)
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "release_flow.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Document, second.Document)
}

func TestRun_ReportsUnexpectedError(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: bad
description: duplicate component without expect
steps:
  - op: add_component
    id: api
    name: API
  - op: add_component
    id: api
    name: API
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[1] (add_component): unexpected error")
}

func TestRun_ReportsWrongExpectation(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: bad
description: expectations that do not hold
steps:
  - op: add_version
    component_id: api
    tag: 1.0.0
    expect:
      warnings: [DUPLICATE_VERSION]
  - op: add_component
    id: web
    name: Web
    expect:
      error: VALIDATION
  - op: add_component
    id: web
    name: Web
    expect:
      error: NOT_FOUND
  - op: add_component
    id: db
    name: DB
    expect:
      attempts: 2
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "expected warnings [DUPLICATE_VERSION], got [AUTO_CREATED_COMPONENT]")
	assert.Contains(t, result.Errors[1], "expected error VALIDATION, step was applied")
	assert.Contains(t, result.Errors[2], "expected error NOT_FOUND, got VALIDATION")
	assert.Contains(t, result.Errors[3], "expected 2 attempts, got 1")
}

func TestRun_ReportsRivalFailure(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: bad
description: rival step that is rejected
steps:
  - op: add_component
    id: api
    name: API
    rival:
      - op: add_setup
        id: s
        name: S
        component_ids: [missing]
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[0].rival[0] (add_setup)")
}

func TestRun_ReportsFailedAssertions(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: bad
description: assertions that do not hold
steps:
  - op: add_version
    component_id: api
    tag: 1.0.0
    expect:
      warnings: [AUTO_CREATED_COMPONENT]
assertions:
  - type: latest_version
    component: api
    tag: 2.0.0
  - type: count
    collection: versions
    count: 1
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertion[0]")
	assert.Contains(t, result.Errors[0], "Expected: api latest 2.0.0")
}
