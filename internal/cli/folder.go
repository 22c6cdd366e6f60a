package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/slideboard/internal/engine"
	"github.com/roach88/slideboard/internal/model"
)

// NewFolderCommand creates the folder command group.
func NewFolderCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Organize presentations into folders",
	}
	cmd.AddCommand(
		newFolderCreateCommand(opts),
		newFolderRenameCommand(opts),
		newFolderDeleteCommand(opts),
		newFolderTreeCommand(opts),
	)
	return cmd
}

func newFolderCreateCommand(opts *RootOptions) *cobra.Command {
	var parentRef string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			var parentID *string
			if parentRef != "" {
				p, err := resolveFolder(app.State(), parentRef)
				if err != nil {
					return err
				}
				parentID = model.StringPtr(p.ID)
			}

			id := app.Store.CreateFolder(args[0], parentID)
			return newFormatter(cmd, opts).Result(map[string]any{"id": id, "name": args[0], "parentId": parentID}, func(w io.Writer) {
				fmt.Fprintf(w, "Created folder %q (%s)\n", args[0], id)
			})
		},
	}
	cmd.Flags().StringVar(&parentRef, "parent", "", "nest under this folder")
	return cmd
}

func newFolderRenameCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <folder> <name>",
		Short: "Rename a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			f, err := resolveFolder(app.State(), args[0])
			if err != nil {
				return err
			}
			if !app.Store.Dispatch(engine.RenameFolder{ID: f.ID, Name: args[1]}).Changed {
				return refused("rename_folder")
			}
			return newFormatter(cmd, opts).Result(map[string]string{"id": f.ID, "name": args[1]}, func(w io.Writer) {
				fmt.Fprintf(w, "Renamed folder %q to %q\n", f.Name, args[1])
			})
		},
	}
}

func newFolderDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <folder>",
		Aliases: []string{"rm"},
		Short:   "Delete a folder and its subfolders; their decks become unfiled",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			st := app.State()
			f, err := resolveFolder(st, args[0])
			if err != nil {
				return err
			}
			before := len(st.Folders)
			if !app.Store.Dispatch(engine.DeleteFolder{ID: f.ID}).Changed {
				return refused("delete_folder")
			}
			removed := before - len(app.State().Folders)
			return newFormatter(cmd, opts).Result(map[string]any{"id": f.ID, "removed": removed}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted folder %q (%d removed)\n", f.Name, removed)
			})
		},
	}
}

func newFolderTreeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print folders with their presentations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			st := app.State()
			tree := model.BuildFolderTree(st.Folders, st.Presentations)
			names := make(map[string]string, len(st.Presentations))
			for _, d := range st.Presentations {
				names[d.ID] = d.Name
			}

			return newFormatter(cmd, opts).Result(tree, func(w io.Writer) {
				for _, n := range tree.Roots {
					writeFolderNode(w, n, names, 0)
				}
				if len(tree.Unfiled) > 0 {
					fmt.Fprintln(w, "(unfiled)")
					for _, id := range tree.Unfiled {
						fmt.Fprintf(w, "  - %s\n", names[id])
					}
				}
			})
		},
	}
}

func writeFolderNode(w io.Writer, n *model.FolderNode, names map[string]string, depth int) {
	pad := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s/\n", pad, n.Folder.Name)
	for _, c := range n.Children {
		writeFolderNode(w, c, names, depth+1)
	}
	for _, id := range n.DeckIDs {
		fmt.Fprintf(w, "%s  - %s\n", pad, names[id])
	}
}
