package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/slideboard/internal/engine"
	"github.com/roach88/slideboard/internal/model"
	"github.com/roach88/slideboard/internal/templates"
)

// NewSlideCommand creates the slide command group. Slides are numbered
// from 1 on the command line.
func NewSlideCommand(opts *RootOptions) *cobra.Command {
	var deckRef string

	cmd := &cobra.Command{
		Use:   "slide",
		Short: "Edit the slides of a presentation",
		Long: `Edit the slides of a presentation.

Slides are numbered from 1. --deck selects the presentation by id or name;
without it the current presentation is used.`,
	}
	cmd.PersistentFlags().StringVarP(&deckRef, "deck", "d", "", "presentation id or name (default: current)")

	s := &slideCmd{opts: opts, deckRef: &deckRef}
	cmd.AddCommand(
		s.simple("add", "Insert an empty slide after the current one and select it", cobra.NoArgs,
			func(d model.Deck, _ []int) engine.Action { return engine.AddSlide{DeckID: d.ID} }),
		s.simple("delete <n>", "Delete a slide; the last slide of a deck cannot be deleted", cobra.ExactArgs(1),
			func(d model.Deck, n []int) engine.Action { return engine.DeleteSlide{DeckID: d.ID, Index: n[0]} }),
		s.simple("duplicate <n>", "Insert a copy of a slide after it", cobra.ExactArgs(1),
			func(d model.Deck, n []int) engine.Action { return engine.DuplicateSlide{DeckID: d.ID, Index: n[0]} }),
		s.simple("reorder <from> <to>", "Move a slide to another position", cobra.ExactArgs(2),
			func(d model.Deck, n []int) engine.Action {
				return engine.ReorderSlides{DeckID: d.ID, From: n[0], To: n[1]}
			}),
		s.simple("clear <n>", "Remove everything drawn on a slide", cobra.ExactArgs(1),
			func(d model.Deck, n []int) engine.Action { return engine.ClearSlide{DeckID: d.ID, Index: n[0]} }),
		s.gotoCommand(),
		s.templateCommand(),
		s.baselineCommand(),
	)
	return cmd
}

type slideCmd struct {
	opts    *RootOptions
	deckRef *string
}

// SlideResult is the outcome of a slide command.
type SlideResult struct {
	Deck    string `json:"deck"`
	Action  string `json:"action"`
	Slides  int    `json:"slides"`
	Current int    `json:"current"`
	SlideID string `json:"slideId,omitempty"`
}

// run resolves the deck, parses slide numbers and dispatches the action
// built from them. Refused actions exit with ExitFailure.
func (s *slideCmd) run(cmd *cobra.Command, args []string, build func(model.Deck, []int) engine.Action) error {
	app, err := openApp(cmd.Context(), s.opts)
	if err != nil {
		return err
	}
	defer app.Close()

	d, err := resolveDeck(app.State(), *s.deckRef)
	if err != nil {
		return err
	}
	idx, err := slideIndexes(args)
	if err != nil {
		return err
	}

	a := build(d, idx)
	out := app.Store.Dispatch(a)
	if !out.Changed {
		return refused(a.Kind())
	}
	return s.report(cmd, app, d.ID, a.Kind(), out.ID)
}

func (s *slideCmd) report(cmd *cobra.Command, app *App, deckID, kind, slideID string) error {
	d, _ := app.State().Deck(deckID)
	res := SlideResult{
		Deck:    d.ID,
		Action:  kind,
		Slides:  len(d.Slides),
		Current: d.CurrentSlideIndex + 1,
		SlideID: slideID,
	}
	return newFormatter(cmd, s.opts).Result(res, func(w io.Writer) {
		fmt.Fprintf(w, "%s: %s (slide %d of %d)\n", d.Name, strings.ReplaceAll(kind, "_", " "), res.Current, res.Slides)
	})
}

func (s *slideCmd) simple(use, short string, args cobra.PositionalArgs, build func(model.Deck, []int) engine.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, a []string) error {
			return s.run(cmd, a, build)
		},
	}
}

func (s *slideCmd) gotoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "goto <n|next|prev|first|last>",
		Short: "Move the slide cursor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			n, err := strconv.Atoi(target)
			switch target {
			case "next", "prev", "previous", "first", "last":
			default:
				if err != nil || n < 1 {
					return NewExitError(ExitCommandError, fmt.Sprintf("slide %q: expected a number, next, prev, first or last", target))
				}
			}
			return s.run(cmd, nil, func(d model.Deck, _ []int) engine.Action {
				switch target {
				case "next":
					return engine.GoToNextSlide{DeckID: d.ID}
				case "prev", "previous":
					return engine.GoToPreviousSlide{DeckID: d.ID}
				case "first":
					return engine.SetCurrentSlide{DeckID: d.ID, Index: 0}
				case "last":
					return engine.SetCurrentSlide{DeckID: d.ID, Index: len(d.Slides) - 1}
				}
				return engine.SetCurrentSlide{DeckID: d.ID, Index: n - 1}
			})
		},
	}
}

func (s *slideCmd) templateCommand() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "template <n> <template> [key=value...]",
		Short: "Lay out an excalidraw slide from a template",
		Long: `Lay out an excalidraw slide from a template.

The slide's drawing is replaced with the template's elements. Prompt values
are given as key=value pairs; missing values use the template defaults.
Run with --list to see the templates and their prompts.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.MinimumNArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return listTemplates(cmd, s.opts)
			}

			vals := make(map[string]string, len(args)-2)
			for _, kv := range args[2:] {
				k, v, ok := strings.Cut(kv, "=")
				if !ok || k == "" {
					return NewExitError(ExitCommandError, fmt.Sprintf("prompt value %q: expected key=value", kv))
				}
				vals[k] = v
			}
			now := engine.SystemClock{}.Now()
			els, err := templates.Generate(args[1], vals, templates.Env{
				NewID: engine.UUIDv7Generator{}.Generate,
				Now:   now,
				Seed:  uint64(now),
			})
			if err != nil {
				return WrapExitError(ExitCommandError, "template", err)
			}
			return s.run(cmd, args[:1], func(d model.Deck, n []int) engine.Action {
				return engine.ApplyTemplate{DeckID: d.ID, Index: n[0], Elements: els}
			})
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list the templates")
	return cmd
}

func listTemplates(cmd *cobra.Command, opts *RootOptions) error {
	all := templates.All()
	return newFormatter(cmd, opts).Result(all, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tPROMPTS")
		for _, t := range all {
			keys := make([]string, len(t.Prompts))
			for i, p := range t.Prompts {
				keys[i] = p.ID
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Name, strings.Join(keys, ","))
		}
		tw.Flush()
	})
}

func (s *slideCmd) baselineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Save, restore or drop a slide's problem state",
		Long: `Save, restore or drop a slide's problem state.

The baseline is a snapshot of the slide taken before working a problem on
it. reset restores the drawing from the baseline and keeps the baseline.`,
	}
	cmd.AddCommand(
		s.simple("save <n>", "Snapshot the slide as its baseline", cobra.ExactArgs(1),
			func(d model.Deck, n []int) engine.Action { return engine.SaveProblemState{DeckID: d.ID, Index: n[0]} }),
		s.simple("reset <n>", "Restore the slide from its baseline", cobra.ExactArgs(1),
			func(d model.Deck, n []int) engine.Action {
				return engine.ResetToProblemState{DeckID: d.ID, Index: n[0]}
			}),
		s.simple("clear <n>", "Drop the slide's baseline", cobra.ExactArgs(1),
			func(d model.Deck, n []int) engine.Action { return engine.ClearProblemState{DeckID: d.ID, Index: n[0]} }),
	)
	return cmd
}

// slideIndexes turns 1-based slide numbers into indexes.
func slideIndexes(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("slide number %q: expected a positive integer", a))
		}
		out[i] = n - 1
	}
	return out, nil
}
