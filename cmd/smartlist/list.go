package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewListCommand groups the list management subcommands.
func NewListCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Create, show and delete shopping lists",
	}

	var icon string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, _, cleanup, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer cleanup()

			list, err := a.CreateList(cmd.Context(), args[0], icon, opts.User)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Created %s %s\n", color.GreenString("✓"), list.Name, color.HiBlackString(list.ID))
			return nil
		},
	}
	create.Flags().StringVar(&icon, "icon", "", "emoji for the list")

	ls := &cobra.Command{
		Use:   "ls",
		Short: "Show the lists of the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, _, cleanup, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer cleanup()

			lists, err := a.ListsForUser(cmd.Context(), opts.User)
			if err != nil {
				return err
			}
			if len(lists) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No lists yet. Create one with: smartlist list create <name>")
			}
			for _, l := range lists {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-24s %3d items  %s\n", l.Icon, l.Name, len(l.Items), color.HiBlackString(l.ID))
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <list-id>",
		Short: "Print a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, _, cleanup, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer cleanup()

			list, err := a.GetList(cmd.Context(), args[0], opts.User)
			if err != nil {
				return err
			}
			printList(cmd.OutOrStdout(), list)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <list-id>",
		Short: "Delete a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, _, cleanup, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.DeleteList(cmd.Context(), args[0], opts.User); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted %s\n", color.GreenString("✓"), args[0])
			return nil
		},
	}

	cmd.AddCommand(create, ls, show, del)
	return cmd
}
