package harness

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/roach88/slideboard/internal/engine"
	"github.com/roach88/slideboard/internal/model"
	"github.com/roach88/slideboard/internal/templates"
)

// resolver turns scenario args into engine actions against the current
// state. Deck and folder names that match nothing pass through as ids, so a
// scenario can dispatch against a missing target.
type resolver struct {
	state model.State
	tmpl  templates.Env
}

type actionBuilder func(r *resolver, args map[string]any) (engine.Action, error)

var builders = map[string]actionBuilder{
	"create_presentation": func(r *resolver, a map[string]any) (engine.Action, error) {
		name, err := stringArg(a, "name")
		if err != nil {
			return nil, err
		}
		eng, err := stringArg(a, "engine")
		if err != nil {
			return nil, err
		}
		folder, err := r.folderRef(a, "folder")
		if err != nil {
			return nil, err
		}
		return engine.CreatePresentation{Name: name, FolderID: folder, Engine: model.Engine(eng)}, nil
	},
	"delete_presentation": func(r *resolver, a map[string]any) (engine.Action, error) {
		id, err := r.deckRef(a)
		return engine.DeletePresentation{ID: id}, err
	},
	"rename_presentation": func(r *resolver, a map[string]any) (engine.Action, error) {
		id, err := r.deckRef(a)
		if err != nil {
			return nil, err
		}
		name, err := stringArg(a, "name")
		return engine.RenamePresentation{ID: id, Name: name}, err
	},
	"move_presentation_to_folder": func(r *resolver, a map[string]any) (engine.Action, error) {
		id, err := r.deckRef(a)
		if err != nil {
			return nil, err
		}
		folder, err := r.folderRef(a, "folder")
		return engine.MovePresentationToFolder{ID: id, FolderID: folder}, err
	},
	"duplicate_presentation": func(r *resolver, a map[string]any) (engine.Action, error) {
		id, err := r.deckRef(a)
		return engine.DuplicatePresentation{ID: id}, err
	},
	"set_current_presentation": func(r *resolver, a map[string]any) (engine.Action, error) {
		if v, ok := a["deck"]; !ok || v == nil {
			return engine.SetCurrentPresentation{}, nil
		}
		id, err := r.deckRef(a)
		return engine.SetCurrentPresentation{ID: &id}, err
	},
	"add_slide": func(r *resolver, a map[string]any) (engine.Action, error) {
		id, err := r.deckRef(a)
		return engine.AddSlide{DeckID: id}, err
	},
	"delete_slide": indexed(func(id string, i int) engine.Action { return engine.DeleteSlide{DeckID: id, Index: i} }),
	"duplicate_slide": indexed(func(id string, i int) engine.Action {
		return engine.DuplicateSlide{DeckID: id, Index: i}
	}),
	"reorder_slides": func(r *resolver, a map[string]any) (engine.Action, error) {
		id, err := r.deckRef(a)
		if err != nil {
			return nil, err
		}
		from, err := intArg(a, "from")
		if err != nil {
			return nil, err
		}
		to, err := intArg(a, "to")
		return engine.ReorderSlides{DeckID: id, From: from, To: to}, err
	},
	"update_slide": func(r *resolver, a map[string]any) (engine.Action, error) {
		id, index, err := r.slideRef(a)
		if err != nil {
			return nil, err
		}
		patch, err := patchArg(a)
		return engine.UpdateSlide{DeckID: id, Index: index, Patch: patch}, err
	},
	"clear_slide": indexed(func(id string, i int) engine.Action { return engine.ClearSlide{DeckID: id, Index: i} }),
	"apply_template": func(r *resolver, a map[string]any) (engine.Action, error) {
		id, index, err := r.slideRef(a)
		if err != nil {
			return nil, err
		}
		tmpl, err := stringArg(a, "template")
		if err != nil {
			return nil, err
		}
		vals, err := stringMapArg(a, "values")
		if err != nil {
			return nil, err
		}
		elements, err := templates.Generate(tmpl, vals, r.tmpl)
		if err != nil {
			return nil, err
		}
		return engine.ApplyTemplate{DeckID: id, Index: index, Elements: elements}, nil
	},
	"save_problem_state": indexed(func(id string, i int) engine.Action {
		return engine.SaveProblemState{DeckID: id, Index: i}
	}),
	"reset_to_problem_state": indexed(func(id string, i int) engine.Action {
		return engine.ResetToProblemState{DeckID: id, Index: i}
	}),
	"clear_problem_state": indexed(func(id string, i int) engine.Action {
		return engine.ClearProblemState{DeckID: id, Index: i}
	}),
	"set_current_slide": indexed(func(id string, i int) engine.Action {
		return engine.SetCurrentSlide{DeckID: id, Index: i}
	}),
	"go_to_next_slide": func(r *resolver, a map[string]any) (engine.Action, error) {
		id, err := r.deckRef(a)
		return engine.GoToNextSlide{DeckID: id}, err
	},
	"go_to_previous_slide": func(r *resolver, a map[string]any) (engine.Action, error) {
		id, err := r.deckRef(a)
		return engine.GoToPreviousSlide{DeckID: id}, err
	},
	"create_folder": func(r *resolver, a map[string]any) (engine.Action, error) {
		name, err := stringArg(a, "name")
		if err != nil {
			return nil, err
		}
		parent, err := r.folderRef(a, "parent")
		return engine.CreateFolder{Name: name, ParentID: parent}, err
	},
	"rename_folder": func(r *resolver, a map[string]any) (engine.Action, error) {
		id, err := r.requiredFolder(a)
		if err != nil {
			return nil, err
		}
		name, err := stringArg(a, "name")
		return engine.RenameFolder{ID: id, Name: name}, err
	},
	"delete_folder": func(r *resolver, a map[string]any) (engine.Action, error) {
		id, err := r.requiredFolder(a)
		return engine.DeleteFolder{ID: id}, err
	},
}

// KnownAction reports whether scenarios can dispatch kind.
func KnownAction(kind string) bool {
	_, ok := builders[kind]
	return ok
}

// Actions lists the action kinds scenarios can dispatch, sorted.
func Actions() []string {
	out := make([]string, 0, len(builders))
	for k := range builders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *resolver) build(kind string, args map[string]any) (engine.Action, error) {
	b, ok := builders[kind]
	if !ok {
		return nil, fmt.Errorf("unknown action %q", kind)
	}
	if args == nil {
		args = map[string]any{}
	}
	return b(r, args)
}

func indexed(mk func(deckID string, index int) engine.Action) actionBuilder {
	return func(r *resolver, a map[string]any) (engine.Action, error) {
		id, index, err := r.slideRef(a)
		if err != nil {
			return nil, err
		}
		return mk(id, index), nil
	}
}

func (r *resolver) deckRef(a map[string]any) (string, error) {
	name, err := stringArg(a, "deck")
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", fmt.Errorf("deck is required")
	}
	for _, d := range r.state.Presentations {
		if d.Name == name {
			return d.ID, nil
		}
	}
	return name, nil
}

func (r *resolver) slideRef(a map[string]any) (string, int, error) {
	id, err := r.deckRef(a)
	if err != nil {
		return "", 0, err
	}
	index, err := intArg(a, "index")
	return id, index, err
}

// folderRef resolves an optional folder name. Absent or null yields nil.
func (r *resolver) folderRef(a map[string]any, key string) (*string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, nil
	}
	name, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%s: expected string, got %T", key, v)
	}
	return model.StringPtr(r.folderID(name)), nil
}

func (r *resolver) requiredFolder(a map[string]any) (string, error) {
	name, err := stringArg(a, "folder")
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", fmt.Errorf("folder is required")
	}
	return r.folderID(name), nil
}

func (r *resolver) folderID(name string) string {
	for _, f := range r.state.Folders {
		if f.Name == name {
			return f.ID
		}
	}
	return name
}

func stringArg(a map[string]any, key string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: expected string, got %T", key, v)
	}
	return s, nil
}

// intArg accepts YAML integers. Absent means 0.
func intArg(a map[string]any, key string) (int, error) {
	switch v := a[key].(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("%s: expected integer, got %v", key, v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("%s: expected integer, got %T", key, v)
	}
}

func stringMapArg(a map[string]any, key string) (map[string]string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected map, got %T", key, v)
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[k] = fmt.Sprint(val)
	}
	return out, nil
}

// patchArg builds a canvas patch from elements, appState, files and
// snapshot. An explicit null snapshot empties a tldraw slide.
func patchArg(a map[string]any) (model.SlidePatch, error) {
	var patch model.SlidePatch

	if v, ok := a["elements"]; ok {
		list, ok := v.([]any)
		if !ok {
			return patch, fmt.Errorf("elements: expected list, got %T", v)
		}
		patch.Elements = make([]json.RawMessage, 0, len(list))
		for _, el := range list {
			raw, err := json.Marshal(el)
			if err != nil {
				return patch, fmt.Errorf("elements: %w", err)
			}
			patch.Elements = append(patch.Elements, raw)
		}
	}

	for _, f := range []struct {
		key string
		dst *map[string]json.RawMessage
	}{{"appState", &patch.AppState}, {"files", &patch.Files}} {
		v, ok := a[f.key]
		if !ok {
			continue
		}
		m, ok := v.(map[string]any)
		if !ok {
			return patch, fmt.Errorf("%s: expected map, got %T", f.key, v)
		}
		out := make(map[string]json.RawMessage, len(m))
		for k, val := range m {
			raw, err := json.Marshal(val)
			if err != nil {
				return patch, fmt.Errorf("%s.%s: %w", f.key, k, err)
			}
			out[k] = raw
		}
		*f.dst = out
	}

	if v, ok := a["snapshot"]; ok {
		raw, err := json.Marshal(v)
		if err != nil {
			return patch, fmt.Errorf("snapshot: %w", err)
		}
		patch.Snapshot = raw
	}
	return patch, nil
}
