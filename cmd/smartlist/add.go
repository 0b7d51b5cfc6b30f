package main

import (
	"fmt"
	"os"
	"strings"

	"smart-shopping-list/internal/shopping"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewAddCommand adds (or, with --replace, edits) one item and processes the
// queue in the foreground.
func NewAddCommand(opts *RootOptions) *cobra.Command {
	var (
		replace string
		raw     bool
	)
	cmd := &cobra.Command{
		Use:   "add <list-id> <item...>",
		Short: "Add an item, e.g. add <list> 2 kg tomatoes @SuperMart #ripe !",
		Long: `Add an item written the chat way:

  2 kg tomatoes @SuperMart #very ripe !

yields qty 2, unit kg, store SuperMart, notes "very ripe" and urgent.
"+gf" marks the item gluten free. The item is normalized by the language
model unless --raw is given. When it looks like an existing item with a
different store you are asked whether to merge.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, _, _, cleanup, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			listID := args[0]
			if _, err := a.GetList(ctx, listID, opts.User); err != nil {
				return err
			}
			draft, err := shopping.ParseDraft(strings.Join(args[1:], " "))
			if err != nil {
				return err
			}

			switch {
			case replace != "":
				_, err = a.UpdateItem(ctx, listID, opts.User, replace, draft)
			case raw:
				_, err = a.Engine().EnqueueAdd(ctx, listID, draft, true)
			default:
				_, err = a.AddItem(ctx, listID, opts.User, draft)
			}
			if err != nil {
				return err
			}

			if err := drainInteractive(ctx, a, os.Stdin, cmd.OutOrStdout()); err != nil {
				return err
			}
			list, err := a.GetList(ctx, listID, opts.User)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ done"))
			printList(cmd.OutOrStdout(), list)
			return nil
		},
	}
	cmd.Flags().StringVar(&replace, "replace", "", "id of the item this one replaces")
	cmd.Flags().BoolVar(&raw, "raw", false, "skip normalization and store the item as typed")
	return cmd
}

// NewSmartAddCommand lets the language model split free-form text into items.
func NewSmartAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "smart-add <list-id> <text...>",
		Short: `Add items from free-form text, e.g. smart-add <list> "milk, a dozen eggs and bread asap"`,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, _, _, cleanup, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			drafts, err := a.SmartAdd(ctx, args[0], opts.User, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			for _, d := range drafts {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s × %g\n", color.CyanString("+"), d.Name, d.Qty)
			}
			return drainInteractive(ctx, a, os.Stdin, cmd.OutOrStdout())
		},
	}
}

// NewRecipeCommand adds the ingredients of a dish or of a recipe page.
func NewRecipeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recipe <list-id> <dish name | url>",
		Short: "Add the ingredients of a dish or a recipe web page",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, _, _, cleanup, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			target := strings.Join(args[1:], " ")
			if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
				res, err := a.AddRecipeFromURL(ctx, args[0], opts.User, target)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d ingredients)\n", res.Recipe.Icon, res.Recipe.Title, len(res.Recipe.Ingredients))
			} else {
				rec, err := a.AddRecipe(ctx, args[0], opts.User, target)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d ingredients)\n", rec.Icon, rec.Title, len(rec.Ingredients))
			}
			return drainInteractive(ctx, a, os.Stdin, cmd.OutOrStdout())
		},
	}
}
