// Package cli implements the slideboard command line.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/slideboard/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	LogFormat  string // "console" | "json"; empty keeps the config value
	ConfigPath string
	DBPath     string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the slideboard CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "slideboard",
		Short: "SlideBoard - whiteboard presentations",
		Long: `Manage whiteboard presentations: decks of freeform canvas slides
organised in folders, stored in a local SQLite database.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			switch opts.LogFormat {
			case "", logger.FormatConsole, logger.FormatJSON:
			default:
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid log format %q: must be console or json", opts.LogFormat))
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output and debug logging")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.LogFormat, "log-format", "", "log format (console|json)")
	pf.StringVar(&opts.ConfigPath, "config", "", "config file (default: user config dir)")
	pf.StringVar(&opts.DBPath, "db", "", "database path (overrides config)")

	cmd.AddCommand(
		NewDeckCommand(opts),
		NewSlideCommand(opts),
		NewFolderCommand(opts),
		NewExportCommand(opts),
		NewImportCommand(opts),
		NewMigrateCommand(opts),
		NewPresentCommand(opts),
		NewPreviewCommand(opts),
		NewChatCommand(opts),
		NewServeCommand(opts),
		NewTestCommand(opts),
	)
	return cmd
}
