package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slideboard/internal/testutil"
)

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(doc))
	require.NoError(t, err)
	return s
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	s := mustParse(t, `
name: mismatch
description: "deleting the only slide is refused"
flow:
  - invoke: create_presentation
    args: { name: A }
  - invoke: delete_slide
    args: { deck: A, index: 0 }
    expect: { changed: true }
assertions:
  - type: trace_count
    action: delete_slide
    count: 1
`)
	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "flow[1] delete_slide: expected changed=true, got changed=false")
}

func TestRun_ClockAndIDsAreDeterministic(t *testing.T) {
	s := mustParse(t, `
name: clock
description: "timestamps follow start and tick"
start: 5000
tick: 10
flow:
  - invoke: create_presentation
    args: { name: A }
  - invoke: rename_presentation
    args: { deck: A, name: B }
assertions:
  - type: final_state
    table: presentations
    where: { name: B }
    expect: { id: id-1, createdAt: 5010, updatedAt: 5020 }
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, int64(2), result.Writes)

	again, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, Snapshot(s.Name, result), Snapshot(s.Name, again))
}

func TestRun_DefaultClockStart(t *testing.T) {
	s := mustParse(t, minimalScenario)
	result, err := Run(s)
	require.NoError(t, err)

	d := result.State.Presentations[0]
	assert.Equal(t, testutil.DefaultEpoch+1, d.CreatedAt)
}

func TestRun_UnknownTargetsAreRefused(t *testing.T) {
	s := mustParse(t, `
name: missing
description: "names that match nothing pass through as ids"
flow:
  - invoke: add_slide
    args: { deck: Nowhere }
    expect: { changed: false }
  - invoke: set_current_presentation
    args: { deck: null }
    expect: { changed: false }
assertions:
  - type: trace_count
    action: add_slide
    changed: true
    count: 0
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Zero(t, result.Writes)
}

func TestRun_BadArgsIsExecutionError(t *testing.T) {
	s := mustParse(t, `
name: bad
description: "index must be an integer"
flow:
  - invoke: create_presentation
    args: { name: A }
  - invoke: delete_slide
    args: { deck: A, index: first }
assertions:
  - type: trace_count
    action: delete_slide
    count: 1
`)
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flow step 1: delete_slide: index: expected integer")
}

func TestRun_UnknownTemplateIsExecutionError(t *testing.T) {
	s := mustParse(t, `
name: tmpl
description: "template ids are checked"
flow:
  - invoke: create_presentation
    args: { name: A, engine: excalidraw }
  - invoke: apply_template
    args: { deck: A, index: 0, template: nope }
assertions:
  - type: trace_count
    action: apply_template
    count: 1
`)
	_, err := Run(s)
	assert.ErrorContains(t, err, "unknown template")
}
