package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/slideboard/internal/model"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // assertion type
	Expected string       // human-readable expected outcome
	Actual   string       // human-readable actual outcome
	Trace    []TraceEvent // full trace, for trace assertions
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s changed=%t\n", event.Seq, event.Action, formatArgs(event.Args), event.Changed)
		}
	}
	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result. Returns
// one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			err = assertFinalState(result.State, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

// assertTraceContains checks for an action whose args contain the expected
// args.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Action == assertion.Action && matchArgs(event.Args, assertion.Args) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("action %s with args %s", assertion.Action, formatArgs(assertion.Args)),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first occurrences of the actions appear
// in order. Intervening actions are allowed.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if _, seen := positions[event.Action]; !seen {
			positions[event.Action] = i + 1
		}
	}

	for _, action := range assertion.Actions {
		if positions[action] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all actions present: %v", assertion.Actions),
				Actual:   fmt.Sprintf("missing action: %s", action),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Actions); i++ {
		prev, curr := assertion.Actions[i-1], assertion.Actions[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", assertion.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks the number of occurrences of an action,
// optionally only those with the given changed flag.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Action != assertion.Action {
			continue
		}
		if assertion.Changed != nil && event.Changed != *assertion.Changed {
			continue
		}
		count++
	}

	if count != assertion.Count {
		what := assertion.Action
		if assertion.Changed != nil {
			what = fmt.Sprintf("%s (changed=%t)", assertion.Action, *assertion.Changed)
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, what),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState finds the single row of the table matching Where and
// checks the Expect fields against it.
func assertFinalState(st model.State, assertion Assertion) error {
	rows := stateRows(st, assertion.Table)

	var matched []map[string]any
	for _, row := range rows {
		if matchArgs(row, assertion.Where) {
			matched = append(matched, row)
		}
	}

	switch len(matched) {
	case 0:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, formatArgs(assertion.Where)),
			Actual:   "row not found",
		}
	case 1:
	default:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, formatArgs(assertion.Where)),
			Actual:   fmt.Sprintf("%d rows matched (assertion is ambiguous)", len(matched)),
		}
	}

	row := matched[0]
	for _, key := range sortedKeys(assertion.Expect) {
		expected := assertion.Expect[key]
		actual, exists := row[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in %s rows: %v", key, assertion.Table, sortedKeys(row)),
			}
		}
		if !valuesEqual(actual, expected) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v", key, expected),
				Actual:   fmt.Sprintf("field %q = %v", key, actual),
			}
		}
	}
	return nil
}

// stateRows flattens one table of the state into comparable rows. Folder
// and deck references are reported both as id and as name.
func stateRows(st model.State, table string) []map[string]any {
	folderNames := make(map[string]string, len(st.Folders))
	for _, f := range st.Folders {
		folderNames[f.ID] = f.Name
	}
	folderRef := func(id *string) any {
		if id == nil {
			return nil
		}
		if name, ok := folderNames[*id]; ok {
			return name
		}
		return *id
	}
	current := ""
	if st.CurrentPresentationID != nil {
		current = *st.CurrentPresentationID
	}

	var rows []map[string]any
	switch table {
	case TablePresentations:
		for _, d := range st.Presentations {
			rows = append(rows, map[string]any{
				"id":                d.ID,
				"name":              d.Name,
				"canvasEngine":      string(d.CanvasEngine),
				"folder":            folderRef(d.FolderID),
				"slideCount":        int64(len(d.Slides)),
				"currentSlideIndex": int64(d.CurrentSlideIndex),
				"createdAt":         d.CreatedAt,
				"updatedAt":         d.UpdatedAt,
				"version":           int64(d.Version),
				"current":           d.ID == current,
			})
		}
	case TableFolders:
		for _, f := range st.Folders {
			decks := 0
			for _, d := range st.Presentations {
				if d.InFolder(f.ID) {
					decks++
				}
			}
			rows = append(rows, map[string]any{
				"id":        f.ID,
				"name":      f.Name,
				"parent":    folderRef(f.ParentID),
				"deckCount": int64(decks),
				"createdAt": f.CreatedAt,
				"updatedAt": f.UpdatedAt,
			})
		}
	case TableSlides:
		for _, d := range st.Presentations {
			for i, s := range d.Slides {
				row := map[string]any{
					"deck":         d.Name,
					"index":        int64(i),
					"id":           s.ID,
					"engine":       string(s.Engine()),
					"sceneVersion": s.SceneVersion,
					"hasBaseline":  s.HasBaseline(),
					"createdAt":    s.CreatedAt,
					"updatedAt":    s.UpdatedAt,
				}
				switch p := s.Payload.(type) {
				case model.ExcalidrawPayload:
					row["elementCount"] = int64(len(p.Elements))
				case model.TldrawPayload:
					row["hasSnapshot"] = p.Snapshot != nil
				}
				rows = append(rows, row)
			}
		}
	}
	return rows
}

// matchArgs checks that actual contains every expected key with an equal
// value. Extra keys in actual are ignored.
func matchArgs(actual, expected map[string]any) bool {
	for key, expectedVal := range expected {
		actualVal, exists := actual[key]
		if !exists || !valuesEqual(actualVal, expectedVal) {
			return false
		}
	}
	return true
}

// valuesEqual compares scenario values. Numbers compare by value regardless
// of their Go type, since YAML yields int and the state yields int64.
func valuesEqual(actual, expected any) bool {
	if a, ok := toFloat(actual); ok {
		if e, ok := toFloat(expected); ok {
			return a == e
		}
		return false
	}
	return reflect.DeepEqual(actual, expected)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatArgs renders args with sorted keys.
func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(args))
	for _, k := range sortedKeys(args) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}
