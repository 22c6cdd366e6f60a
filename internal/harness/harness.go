package harness

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/slideboard/internal/engine"
	"github.com/roach88/slideboard/internal/model"
	"github.com/roach88/slideboard/internal/persist"
	"github.com/roach88/slideboard/internal/store"
	"github.com/roach88/slideboard/internal/templates"
	"github.com/roach88/slideboard/internal/testutil"
)

// templateSeed fixes the stroke jitter of generated template elements.
const templateSeed = 1

// Harness holds one scenario execution.
type Harness struct {
	store     *engine.Store
	clock     *testutil.FixedClock
	tick      int64
	persister *persist.Persister
	elements  *testutil.SequenceIDs
	logger    *zap.Logger
}

// Run executes a scenario with logging discarded.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario, nil)
}

// RunContext executes a scenario.
//
// Each scenario runs against a fresh in-memory database and store:
//  1. Dispatch setup actions
//  2. Dispatch flow actions, checking expect clauses
//  3. Reload the persisted state and compare it to the live state
//  4. Evaluate assertions against the trace and final state
//
// Returned errors are execution failures (bad args, database errors).
// Failed checks are reported in the Result.
func RunContext(ctx context.Context, scenario *Scenario, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer db.Close()

	ids := testutil.NewSequenceIDs("id")
	clock := testutil.NewFixedClock(scenario.Start)
	tick := scenario.Tick
	if tick == 0 {
		tick = 1
	}

	h := &Harness{
		store:     engine.New(model.EmptyState(), engine.WithClock(clock), engine.WithIDs(ids), engine.WithLogger(log)),
		clock:     clock,
		tick:      tick,
		persister: persist.NewPersister(db, persist.WithLogger(log)),
		elements:  testutil.NewSequenceIDs("el"),
		logger:    log,
	}
	detach := h.persister.Attach(h.store)
	defer detach()

	result := NewResult()
	for i, step := range scenario.Setup {
		if _, err := h.dispatch(step.Action, step.Args, true, result); err != nil {
			return nil, fmt.Errorf("setup step %d: %w", i, err)
		}
	}

	for i, step := range scenario.Flow {
		out, err := h.dispatch(step.Invoke, step.Args, false, result)
		if err != nil {
			return nil, fmt.Errorf("flow step %d: %w", i, err)
		}
		if step.Expect != nil && step.Expect.Changed != out.Changed {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected changed=%t, got changed=%t",
				i, step.Invoke, step.Expect.Changed, out.Changed))
		}
	}

	result.State = h.store.State()
	result.Writes = h.persister.Writes()

	if err := h.checkReload(ctx, db, ids, result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) dispatch(kind string, args map[string]any, setup bool, result *Result) (engine.Outcome, error) {
	now := h.clock.Advance(h.tick)
	r := &resolver{
		state: h.store.State(),
		tmpl:  templates.Env{NewID: h.elements.Generate, Now: now, Seed: templateSeed},
	}
	action, err := r.build(kind, args)
	if err != nil {
		return engine.Outcome{}, fmt.Errorf("%s: %w", kind, err)
	}

	out := h.store.Dispatch(action)
	result.addTrace(TraceEvent{Action: kind, Args: args, Changed: out.Changed, Setup: setup})

	h.logger.Debug("step dispatched",
		zap.String("action", kind),
		zap.Bool("setup", setup),
		zap.Bool("changed", out.Changed),
		zap.String("id", out.ID))
	return out, nil
}

// checkReload loads the persisted document back and requires it to encode
// identically to the live state.
func (h *Harness) checkReload(ctx context.Context, db *store.Store, ids *testutil.SequenceIDs, result *Result) error {
	if failures := h.persister.Failures(); failures > 0 {
		result.AddError(fmt.Sprintf("persist: %d failed writes", failures))
	}
	if result.Writes == 0 {
		return nil
	}

	env := persist.Env{Now: h.clock.Now(), NewID: ids.Generate}
	loaded, rep, err := persist.Load(ctx, db, persist.StorageKey, env, h.logger)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	if rep.Corrupt {
		result.AddError(fmt.Sprintf("reload: stored state unreadable: %v", rep.Cause))
		return nil
	}

	live, err := persist.Encode(result.State)
	if err != nil {
		return fmt.Errorf("encode live state: %w", err)
	}
	reloaded, err := persist.Encode(loaded)
	if err != nil {
		return fmt.Errorf("encode reloaded state: %w", err)
	}
	if !bytes.Equal(live, reloaded) {
		result.AddError("reload: persisted state differs from live state")
	}
	return nil
}
