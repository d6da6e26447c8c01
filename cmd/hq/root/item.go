package root

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"habitquest/internal/engine"
	"habitquest/internal/model"
	"habitquest/internal/reconcile"
	"habitquest/internal/ui"
)

func newItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "item",
		Aliases: []string{"items"},
		Short:   "Manage equipment",
	}
	cmd.AddCommand(
		newItemAddCmd(),
		newItemListCmd(),
		newItemUseCmd("use <item>", "Drink a potion or equip/unequip gear"),
		newItemUseCmd("toggle <item>", "Equip or unequip clothing and weapons"),
	)
	return cmd
}

func newItemAddCmd() *cobra.Command {
	var (
		itemType string
		quantity int
		bonus    int
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an item to the inventory",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			t := model.ItemType(strings.ToLower(itemType))
			if !t.IsValid() {
				return errors.New("type must be potion, clothing, weapon or other")
			}
			e, err := a.rec.AddItem(ctx, reconcile.ItemInput{Name: args[0], Type: t, Quantity: quantity, Bonus: bonus})
			if e == nil {
				return settle(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s x%d %s\n", ui.Good.Render(ui.IconPlus+" Added"), ui.ItemIcon(e.Type), e.Name, e.Quantity, ui.Muted.Render(fmt.Sprintf("(+%d)", e.Bonus)))
			return settle(cmd, err)
		}),
	}

	cmd.Flags().StringVarP(&itemType, "type", "t", "other", "Item type (potion|clothing|weapon|other)")
	cmd.Flags().IntVarP(&quantity, "quantity", "n", 1, "Quantity")
	cmd.Flags().IntVarP(&bonus, "bonus", "b", 0, "Bonus (PP for potions, damage for gear)")
	return cmd
}

func newItemListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the inventory",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			items, err := a.rec.ListItems(ctx)
			if err != nil {
				return settle(cmd, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconBox, "Inventory"))
			if len(items) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(empty)"))
				return nil
			}
			for _, e := range items {
				line := fmt.Sprintf("- %s %s %s x%d %s", ui.Muted.Render(shortID(e.ID)), ui.ItemIcon(e.Type), e.Name, e.Quantity, ui.Muted.Render(fmt.Sprintf("(+%d)", e.Bonus)))
				if e.Active {
					line += " " + ui.Good.Render("equipped")
					if e.Type == model.ItemClothing {
						line += ui.Muted.Render(fmt.Sprintf(" · %d battles left", e.BattlesRemaining))
					}
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, ui.LabelValue("Active bonus", engine.ActiveBonus(items)))
			return nil
		}),
	}
}

func newItemUseCmd(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			items, err := a.rec.ListItems(ctx)
			if err != nil {
				return settle(cmd, err)
			}
			id, err := resolve("item", args[0], itemRefs(items))
			if err != nil {
				return err
			}
			out, err := a.rec.UseItemAsync(ctx, id).Wait(ctx)
			if out == nil {
				return settle(cmd, err)
			}
			w := cmd.OutOrStdout()
			res := out.Result
			switch {
			case out.Duplicate:
			case len(res.RemovedItems) > 0:
				fmt.Fprintln(w, ui.Good.Render(ui.IconPotion+" Potion used up"))
			case len(res.Items) > 0 && res.Items[0].Type == model.ItemPotion:
				fmt.Fprintf(w, "%s %s\n", ui.Good.Render(ui.IconPotion+" Potion used"), ui.Muted.Render(fmt.Sprintf("(%d left)", res.Items[0].Quantity)))
			case len(res.Items) > 0 && res.Items[0].Active:
				fmt.Fprintf(w, "%s %s\n", ui.Good.Render("Equipped"), res.Items[0].Name)
			case len(res.Items) > 0:
				fmt.Fprintf(w, "%s %s\n", ui.Muted.Render("Unequipped"), res.Items[0].Name)
			}
			printRewards(w, out)
			return settle(cmd, err)
		}),
	}
}
