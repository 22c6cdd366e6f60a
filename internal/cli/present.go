package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/slideboard/internal/model"
	"github.com/roach88/slideboard/internal/present"
)

// NewPresentCommand creates the present command.
func NewPresentCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "present [deck]",
		Short: "Show a presentation full screen in the terminal",
		Long: `Show a presentation full screen in the terminal.

Arrow keys, space, PageUp/PageDown, Home and End move between slides.
Escape or q leaves. The slide cursor is saved as you move.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeck(cmd, opts, argOr(args, 0), func(app *App, d model.Deck) error {
				app.Store.SetCurrentPresentation(model.StringPtr(d.ID))
				return present.Run(cmd.Context(), app.Store, d.ID)
			})
		},
	}
}
