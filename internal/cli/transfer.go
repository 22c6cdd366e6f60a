package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/roach88/slideboard/internal/codec"
	"github.com/roach88/slideboard/internal/model"
)

// NewExportCommand creates the export command.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	var output string
	var toClipboard bool

	cmd := &cobra.Command{
		Use:   "export [deck]",
		Short: "Write a presentation document",
		Long: `Write a presentation document.

The document holds the deck name, its engine and every slide. By default it
is written to <name>.slideboard.json in the working directory. Use -o - for
stdout or --clipboard to copy it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeck(cmd, opts, argOr(args, 0), func(app *App, d model.Deck) error {
				doc, ok := app.Store.ExportPresentation(d.ID)
				if !ok {
					return NewExitError(ExitFailure, fmt.Sprintf("export %q failed", d.Name))
				}

				switch {
				case toClipboard:
					if err := clipboard.WriteAll(doc); err != nil {
						return WrapExitError(ExitFailure, "copy to clipboard", err)
					}
					output = "(clipboard)"
				case output == "-":
					_, err := io.WriteString(cmd.OutOrStdout(), doc)
					return err
				default:
					if output == "" {
						output = codec.FileName(d.Name)
					}
					if err := os.WriteFile(output, []byte(doc), 0o644); err != nil {
						return WrapExitError(ExitFailure, "write export", err)
					}
				}

				return newFormatter(cmd, opts).Result(map[string]any{"id": d.ID, "path": output, "bytes": len(doc)}, func(w io.Writer) {
					fmt.Fprintf(w, "Exported %q to %s\n", d.Name, output)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, or - for stdout")
	cmd.Flags().BoolVar(&toClipboard, "clipboard", false, "copy the document to the clipboard")
	cmd.MarkFlagsMutuallyExclusive("output", "clipboard")
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(opts *RootOptions) *cobra.Command {
	var fromClipboard bool

	cmd := &cobra.Command{
		Use:   "import [file|-]",
		Short: "Add a presentation from a document",
		Long: `Add a presentation from a document.

The imported deck gets new ids, " (Imported)" appended to its name, and is
left unfiled. An invalid document changes nothing.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if fromClipboard {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, argOr(args, 0), fromClipboard)
			if err != nil {
				return err
			}

			app, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			id, err := app.Store.Import(doc)
			if err != nil {
				var ie *codec.ImportError
				if errors.As(err, &ie) {
					f := newFormatter(cmd, opts)
					if f.JSON() {
						_ = f.Error("INVALID_DOCUMENT", ie.Error(), map[string]string{"field": ie.Field, "reason": ie.Reason})
					}
					return WrapExitError(ExitFailure, "import", ie)
				}
				return WrapExitError(ExitFailure, "import", err)
			}

			d, _ := app.State().Deck(id)
			return newFormatter(cmd, opts).Result(summarize(app.State(), d), func(w io.Writer) {
				fmt.Fprintf(w, "Imported %q (%d slides, %s)\n", d.Name, len(d.Slides), d.ID)
			})
		},
	}
	cmd.Flags().BoolVar(&fromClipboard, "clipboard", false, "read the document from the clipboard")
	return cmd
}

func readDocument(cmd *cobra.Command, path string, fromClipboard bool) ([]byte, error) {
	switch {
	case fromClipboard:
		s, err := clipboard.ReadAll()
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "read clipboard", err)
		}
		return []byte(s), nil
	case path == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "read stdin", err)
		}
		return b, nil
	default:
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "read document", err)
		}
		return b, nil
	}
}

// MigrateReport is the result of the migrate command.
type MigrateReport struct {
	DB          string `json:"db"`
	Found       bool   `json:"found"`
	Corrupt     bool   `json:"corrupt"`
	FromVersion int    `json:"fromVersion"`
	ToVersion   int    `json:"toVersion"`
	Migrated    bool   `json:"migrated"`
	Decks       int    `json:"decks"`
	Folders     int    `json:"folders"`
	Cause       string `json:"cause,omitempty"`
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade the stored state to the current format",
		Long: `Upgrade the stored state to the current format.

Every command migrates on open; this one reports what was found. A document
that cannot be read is reported as corrupt and left in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			rep := app.Report
			out := MigrateReport{
				DB:          app.Config.DBPath,
				Found:       rep.Found,
				Corrupt:     rep.Corrupt,
				FromVersion: rep.FromVersion,
				ToVersion:   model.SchemaVersion,
				Migrated:    rep.Migrated,
				Decks:       rep.Decks,
				Folders:     len(app.State().Folders),
			}
			if rep.Cause != nil {
				out.Cause = rep.Cause.Error()
			}

			err = newFormatter(cmd, opts).Result(out, func(w io.Writer) {
				switch {
				case !out.Found:
					fmt.Fprintf(w, "No stored state in %s\n", out.DB)
				case out.Corrupt:
					fmt.Fprintf(w, "Stored state in %s is unreadable: %s\n", out.DB, out.Cause)
				case out.Migrated:
					fmt.Fprintf(w, "Migrated v%d to v%d (%d decks, %d folders)\n", out.FromVersion, out.ToVersion, out.Decks, out.Folders)
				default:
					fmt.Fprintf(w, "Already at v%d (%d decks, %d folders)\n", out.ToVersion, out.Decks, out.Folders)
				}
			})
			if err != nil {
				return err
			}
			if out.Corrupt {
				return NewExitError(ExitFailure, "stored state is corrupt")
			}
			return nil
		},
	}
}
