package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/slideboard/internal/model"
	"github.com/roach88/slideboard/internal/thumbnail"
)

// NewPreviewCommand creates the preview command group.
func NewPreviewCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Manage slide thumbnails",
	}
	cmd.AddCommand(newPreviewRenderCommand(opts), newPreviewPruneCommand(opts))
	return cmd
}

func newPreviewRenderCommand(opts *RootOptions) *cobra.Command {
	var width, height, slide int
	var pngPath string

	cmd := &cobra.Command{
		Use:   "render [deck]",
		Short: "Render and store thumbnails for a presentation",
		Long: `Render and store thumbnails for a presentation.

Every slide is drawn and its preview replaced. With --slide and --png a
single slide is also written as a PNG file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pngPath != "" && slide < 1 {
				return NewExitError(ExitCommandError, "--png needs --slide")
			}
			r, err := thumbnail.New(width, height)
			if err != nil {
				return err
			}

			return withDeck(cmd, opts, argOr(args, 0), func(app *App, d model.Deck) error {
				slides := d.Slides
				if slide > 0 {
					if slide > len(d.Slides) {
						return NewExitError(ExitCommandError, fmt.Sprintf("slide %d: deck has %d slides", slide, len(d.Slides)))
					}
					slides = d.Slides[slide-1 : slide]
				}

				rendered := 0
				for _, s := range slides {
					url, err := r.DataURL(s)
					if err != nil {
						app.Log.Warn("render failed", zap.String("slide", s.ID), zap.Error(err))
						continue
					}
					if err := app.Previews.Set(cmd.Context(), s.ID, url); err != nil {
						return fmt.Errorf("store preview %s: %w", s.ID, err)
					}
					rendered++
				}

				if pngPath != "" {
					png, err := r.PNG(slides[0])
					if err != nil {
						return err
					}
					if err := os.WriteFile(pngPath, png, 0o644); err != nil {
						return WrapExitError(ExitFailure, "write png", err)
					}
				}

				return newFormatter(cmd, opts).Result(map[string]any{"deck": d.ID, "rendered": rendered}, func(w io.Writer) {
					fmt.Fprintf(w, "Rendered %d of %d previews for %q\n", rendered, len(slides), d.Name)
				})
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&width, "width", thumbnail.DefaultWidth, "thumbnail width")
	f.IntVar(&height, "height", thumbnail.DefaultHeight, "thumbnail height")
	f.IntVar(&slide, "slide", 0, "render only this slide (1-based)")
	f.StringVar(&pngPath, "png", "", "also write the slide as a PNG file")
	return cmd
}

func newPreviewPruneCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete previews of slides that no longer exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			n, err := app.Previews.Prune(cmd.Context(), app.State().SlideIDs())
			if err != nil {
				return fmt.Errorf("prune previews: %w", err)
			}
			return newFormatter(cmd, opts).Result(map[string]int{"pruned": n}, func(w io.Writer) {
				fmt.Fprintf(w, "Pruned %d previews\n", n)
			})
		},
	}
}
