package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/slideboard/internal/model"
)

// GoldenDir is where RunWithGolden keeps fixtures, relative to the test's
// package directory.
const GoldenDir = "testdata/golden"

// Snapshot renders the trace and final state of a run as stable text for
// golden comparison. Ids come from the sequential generator and the layout
// never depends on map order.
func Snapshot(name string, result *Result) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "scenario: %s\n", name)
	b.WriteString("trace:\n")
	for _, ev := range result.Trace {
		outcome := "refused"
		if ev.Changed {
			outcome = "changed"
		}
		prefix := ""
		if ev.Setup {
			prefix = "setup "
		}
		fmt.Fprintf(&b, "  %d %s%s %s %s\n", ev.Seq, prefix, ev.Action, formatArgs(ev.Args), outcome)
	}

	st := result.State
	b.WriteString("state:\n")
	for _, f := range st.Folders {
		fmt.Fprintf(&b, "  folder %s %q parent=%s\n", f.ID, f.Name, orDash(f.ParentID))
	}
	for _, d := range st.Presentations {
		current := ""
		if st.CurrentPresentationID != nil && *st.CurrentPresentationID == d.ID {
			current = " current"
		}
		fmt.Fprintf(&b, "  deck %s %q %s folder=%s slides=%d cursor=%d%s\n",
			d.ID, d.Name, d.CanvasEngine, orDash(d.FolderID), len(d.Slides), d.CurrentSlideIndex, current)
		for i, s := range d.Slides {
			fmt.Fprintf(&b, "    slide %d %s %s\n", i, s.ID, describePayload(s))
		}
	}
	fmt.Fprintf(&b, "writes: %d\n", result.Writes)
	return []byte(b.String())
}

func describePayload(s model.Slide) string {
	var desc string
	switch p := s.Payload.(type) {
	case model.ExcalidrawPayload:
		desc = fmt.Sprintf("elements=%d", len(p.Elements))
	case model.TldrawPayload:
		desc = "snapshot=empty"
		if p.Snapshot != nil {
			desc = "snapshot=" + string(p.Snapshot)
		}
	}
	if s.SceneVersion > 0 {
		desc += fmt.Sprintf(" scene=%d", s.SceneVersion)
	}
	if s.HasBaseline() {
		desc += " baseline"
	}
	return desc
}

func orDash(p *string) string {
	if p == nil {
		return "-"
	}
	return *p
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(name, result))
}
