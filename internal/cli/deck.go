package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/slideboard/internal/model"
	"github.com/roach88/slideboard/internal/present"
)

// DeckSummary is the list view of a deck.
type DeckSummary struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Engine    model.Engine `json:"canvasEngine"`
	Folder    string       `json:"folder,omitempty"`
	Slides    int          `json:"slides"`
	UpdatedAt int64        `json:"updatedAt"`
	Current   bool         `json:"current"`
}

func summarize(st model.State, d model.Deck) DeckSummary {
	s := DeckSummary{
		ID:        d.ID,
		Name:      d.Name,
		Engine:    d.CanvasEngine,
		Slides:    len(d.Slides),
		UpdatedAt: d.UpdatedAt,
		Current:   st.CurrentPresentationID != nil && *st.CurrentPresentationID == d.ID,
	}
	if d.FolderID != nil {
		s.Folder = *d.FolderID
		if i := st.FolderIndex(*d.FolderID); i >= 0 {
			s.Folder = st.Folders[i].Name
		}
	}
	return s
}

// NewDeckCommand creates the deck command group.
func NewDeckCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deck",
		Aliases: []string{"presentation"},
		Short:   "Manage presentations",
		Long: `Manage presentations.

A deck is referenced by id or by exact name. Commands that take an optional
deck use the current presentation when none is given.`,
	}
	cmd.AddCommand(
		newDeckCreateCommand(opts),
		newDeckListCommand(opts),
		newDeckShowCommand(opts),
		newDeckRenameCommand(opts),
		newDeckDeleteCommand(opts),
		newDeckDuplicateCommand(opts),
		newDeckMoveCommand(opts),
		newDeckUseCommand(opts),
	)
	return cmd
}

func newDeckCreateCommand(opts *RootOptions) *cobra.Command {
	var engineName, folderRef string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a presentation with one empty slide and select it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var eng model.Engine
			if engineName != "" {
				e, err := model.ParseEngine(engineName)
				if err != nil {
					return WrapExitError(ExitCommandError, "engine", err)
				}
				eng = e
			}

			app, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			var folderID *string
			if folderRef != "" {
				f, err := resolveFolder(app.State(), folderRef)
				if err != nil {
					return err
				}
				folderID = model.StringPtr(f.ID)
			}

			id := app.Store.CreatePresentation(args[0], folderID, eng)
			d, _ := app.State().Deck(id)
			return newFormatter(cmd, opts).Result(summarize(app.State(), d), func(w io.Writer) {
				fmt.Fprintf(w, "Created %q (%s, %s)\n", d.Name, d.CanvasEngine, d.ID)
			})
		},
	}
	cmd.Flags().StringVarP(&engineName, "engine", "e", "", "canvas engine (excalidraw|tldraw)")
	cmd.Flags().StringVar(&folderRef, "folder", "", "file the deck in this folder")
	return cmd
}

func newDeckListCommand(opts *RootOptions) *cobra.Command {
	var folderRef string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List presentations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			st := app.State()
			var folderID string
			if folderRef != "" {
				f, err := resolveFolder(st, folderRef)
				if err != nil {
					return err
				}
				folderID = f.ID
			}

			out := make([]DeckSummary, 0, len(st.Presentations))
			for _, d := range st.Presentations {
				if folderID != "" && !d.InFolder(folderID) {
					continue
				}
				out = append(out, summarize(st, d))
			}

			return newFormatter(cmd, opts).Result(out, func(w io.Writer) {
				if len(out) == 0 {
					fmt.Fprintln(w, "No presentations.")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "\tNAME\tENGINE\tSLIDES\tFOLDER\tID")
				for _, s := range out {
					mark := ""
					if s.Current {
						mark = "*"
					}
					folder := s.Folder
					if folder == "" {
						folder = "-"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", mark, s.Name, s.Engine, s.Slides, folder, s.ID)
				}
				tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&folderRef, "folder", "", "only decks filed in this folder")
	return cmd
}

// SlideOutline is the show view of a slide.
type SlideOutline struct {
	Number      int      `json:"number"`
	ID          string   `json:"id"`
	Current     bool     `json:"current"`
	HasBaseline bool     `json:"hasBaseline"`
	Lines       []string `json:"lines"`
}

func newDeckShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [deck]",
		Short: "Print the outline of every slide",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			d, err := resolveDeck(app.State(), argOr(args, 0))
			if err != nil {
				return err
			}

			slides := make([]SlideOutline, len(d.Slides))
			for i, s := range d.Slides {
				slides[i] = SlideOutline{
					Number:      i + 1,
					ID:          s.ID,
					Current:     i == d.CurrentSlideIndex,
					HasBaseline: s.HasBaseline(),
					Lines:       present.Outline(s),
				}
			}
			data := map[string]any{"deck": summarize(app.State(), d), "slides": slides}

			return newFormatter(cmd, opts).Result(data, func(w io.Writer) {
				fmt.Fprintf(w, "%s (%s, %d slides)\n", d.Name, d.CanvasEngine, len(d.Slides))
				for _, s := range slides {
					marker := " "
					if s.Current {
						marker = ">"
					}
					suffix := ""
					if s.HasBaseline {
						suffix = " [baseline]"
					}
					fmt.Fprintf(w, "%s %d.%s\n", marker, s.Number, suffix)
					for _, line := range s.Lines {
						fmt.Fprintf(w, "     %s\n", strings.ReplaceAll(line, "\n", " "))
					}
				}
			})
		},
	}
}

func newDeckRenameCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <deck> <name>",
		Short: "Rename a presentation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeck(cmd, opts, args[0], func(app *App, d model.Deck) error {
				app.Store.RenamePresentation(d.ID, args[1])
				return newFormatter(cmd, opts).Result(map[string]string{"id": d.ID, "name": args[1]}, func(w io.Writer) {
					fmt.Fprintf(w, "Renamed %q to %q\n", d.Name, args[1])
				})
			})
		},
	}
}

func newDeckDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <deck>",
		Aliases: []string{"rm"},
		Short:   "Delete a presentation and its slide previews",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeck(cmd, opts, args[0], func(app *App, d model.Deck) error {
				app.Store.DeletePresentation(d.ID)
				pruned, err := app.Previews.Prune(cmd.Context(), app.State().SlideIDs())
				if err != nil {
					return fmt.Errorf("prune previews: %w", err)
				}
				return newFormatter(cmd, opts).Result(map[string]any{"id": d.ID, "previewsPruned": pruned}, func(w io.Writer) {
					fmt.Fprintf(w, "Deleted %q\n", d.Name)
				})
			})
		},
	}
}

func newDeckDuplicateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <deck>",
		Short: "Copy a presentation with new ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeck(cmd, opts, args[0], func(app *App, d model.Deck) error {
				id := app.Store.DuplicatePresentation(d.ID)
				cp, _ := app.State().Deck(id)
				return newFormatter(cmd, opts).Result(summarize(app.State(), cp), func(w io.Writer) {
					fmt.Fprintf(w, "Created %q (%s)\n", cp.Name, cp.ID)
				})
			})
		},
	}
}

func newDeckMoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <deck> [folder]",
		Short: "File a presentation in a folder; without a folder, unfile it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeck(cmd, opts, args[0], func(app *App, d model.Deck) error {
				var folderID *string
				target := "(unfiled)"
				if ref := argOr(args, 1); ref != "" {
					f, err := resolveFolder(app.State(), ref)
					if err != nil {
						return err
					}
					folderID = model.StringPtr(f.ID)
					target = f.Name
				}
				app.Store.MovePresentationToFolder(d.ID, folderID)
				return newFormatter(cmd, opts).Result(map[string]any{"id": d.ID, "folderId": folderID}, func(w io.Writer) {
					fmt.Fprintf(w, "Moved %q to %s\n", d.Name, target)
				})
			})
		},
	}
}

func newDeckUseCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "use <deck>",
		Short: "Select the current presentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeck(cmd, opts, args[0], func(app *App, d model.Deck) error {
				app.Store.SetCurrentPresentation(model.StringPtr(d.ID))
				return newFormatter(cmd, opts).Result(map[string]string{"current": d.ID}, func(w io.Writer) {
					fmt.Fprintf(w, "Current presentation: %q\n", d.Name)
				})
			})
		},
	}
}

// withDeck opens the app, resolves ref and runs fn.
func withDeck(cmd *cobra.Command, opts *RootOptions, ref string, fn func(app *App, d model.Deck) error) error {
	app, err := openApp(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer app.Close()

	d, err := resolveDeck(app.State(), ref)
	if err != nil {
		return err
	}
	return fn(app, d)
}

func argOr(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
