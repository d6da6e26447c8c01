package root

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"habitquest/internal/model"
	"habitquest/internal/ui"
)

func newCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Manage task categories",
	}
	cmd.AddCommand(newCategoryAddCmd(), newCategoryListCmd(), newCategoryDeleteCmd())
	return cmd
}

func paletteNames() string {
	names := make([]string, len(model.Palette))
	for i, c := range model.Palette {
		names[i] = string(c)
	}
	return strings.Join(names, "|")
}

func newCategoryAddCmd() *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			c, err := a.rec.AddCategory(ctx, args[0], model.Color(strings.ToLower(color)))
			if c == nil {
				return settle(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Good.Render(ui.IconPlus+" Added"), ui.CategoryTag(*c))
			return settle(cmd, err)
		}),
	}
	cmd.Flags().StringVar(&color, "color", "blue", "Color ("+paletteNames()+")")
	return cmd
}

func newCategoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List categories",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			cats, err := a.rec.ListCategories(ctx)
			if err != nil {
				return settle(cmd, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconBox, "Categories"))
			if len(cats) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(empty)"))
			}
			for _, c := range cats {
				fmt.Fprintf(out, "- %s %s\n", ui.Muted.Render(shortID(c.ID)), ui.CategoryTag(c))
			}
			return nil
		}),
	}
}

func newCategoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <category>",
		Aliases: []string{"rm"},
		Short:   "Delete an unused category",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			cats, err := a.rec.ListCategories(ctx)
			if err != nil {
				return settle(cmd, err)
			}
			id, err := resolve("category", args[0], categoryRefs(cats))
			if err != nil {
				return err
			}
			if err := settle(cmd, a.rec.DeleteCategory(ctx, id)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Warn.Render("Deleted category "+shortID(id)))
			return nil
		}),
	}
}
