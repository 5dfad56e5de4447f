package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/mesctl/pkg/core/model"
	"github.com/jakechorley/mesctl/pkg/core/reconciler"
	"github.com/jakechorley/mesctl/pkg/core/services"
	"github.com/jakechorley/mesctl/pkg/session"
)

// SlotCmd creates the slot command group
func SlotCmd(app *AppContext) *cobra.Command {
	var site, building string

	cmd := &cobra.Command{
		Use:   "slot",
		Short: "Inspect and edit individual slots",
	}
	cmd.PersistentFlags().StringVar(&site, "site", "", "Site (defaults to the session site)")
	cmd.PersistentFlags().StringVarP(&building, "building", "b", "", "Building (defaults to the session building)")

	query := func() (services.BoardQuery, error) {
		return app.boardQuery(site, building, "")
	}

	cmd.AddCommand(slotShowCmd(app, query))
	cmd.AddCommand(slotSelectCmd(app, query))
	cmd.AddCommand(slotSaveCmd(app, query))
	cmd.AddCommand(slotMoveCmd(app, query))
	cmd.AddCommand(slotPlaceCmd(app, query))
	return cmd
}

type queryFunc func() (services.BoardQuery, error)

// slotArg returns the slot code argument, falling back to the selected slot
func (a *AppContext) slotArg(args []string) (string, error) {
	if len(args) > 0 {
		return model.NormalizeSlotCode(args[0]), nil
	}
	s, err := a.Store.Get(a.Ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if s.SelectedSlot == "" {
		return "", fmt.Errorf("no slot given and none selected (use 'slot select <code>')")
	}
	return s.SelectedSlot, nil
}

func slotShowCmd(app *AppContext, query queryFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show [code]",
		Short: "Show a slot's machine and the actions available for it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := query()
			if err != nil {
				return err
			}
			code, err := app.slotArg(args)
			if err != nil {
				return err
			}

			res, err := services.LoadBoard(app.Ctx, app.Client, app.Logger, q)
			if err != nil {
				return err
			}
			tile, ok := res.Board.Tile(code)
			if !ok {
				return fmt.Errorf("slot %s is not part of %s", code, res.Board.Layout.Name)
			}
			renderTile(app.out(), res.Board.Layout, tile)
			return nil
		},
	}
}

func slotSelectCmd(app *AppContext, query queryFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "select <code>",
		Short: "Remember a slot for later slot commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := query()
			if err != nil {
				return err
			}
			code, err := checkedCode(q, args[0])
			if err != nil {
				return err
			}
			if _, err := session.Update(app.Ctx, app.Store, func(s *model.Session) {
				s.Site, s.Building, s.SelectedSlot = q.Site, q.Building, code
			}); err != nil {
				return err
			}
			fmt.Fprintf(app.out(), "Selected %s in %s/%s\n", code, q.Site, q.Building)
			return nil
		},
	}
}

func slotSaveCmd(app *AppContext, query queryFunc) *cobra.Command {
	var row model.SlotRow

	cmd := &cobra.Command{
		Use:   "save [code]",
		Short: "Create or edit the machine in a slot",
		Long: `Create or edit the machine in a slot. Only the flags given are changed;
everything else keeps its current value.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := query()
			if err != nil {
				return err
			}
			code, err := app.slotArg(args)
			if err != nil {
				return err
			}

			current, err := services.LoadBoard(app.Ctx, app.Client, app.Logger, q)
			if err != nil {
				return err
			}
			tile, ok := current.Board.Tile(code)
			if !ok {
				return fmt.Errorf("slot %s is not part of %s", code, current.Board.Layout.Name)
			}

			next := mergeSlotRow(tile.Row, row, cmd.Flags().Changed)
			next.SlotCode = code
			if strings.TrimSpace(next.MachineID) == "" {
				return fmt.Errorf("machine ID is required (--machine)")
			}

			res, err := services.SaveSlot(app.Ctx, app.Client, app.Logger, q, next)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out(), "\n%s✓ Saved %s%s\n", colorGreen, code, colorReset)
			if saved, ok := res.Board.Tile(code); ok {
				renderTile(app.out(), res.Board.Layout, saved)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&row.MachineID, "machine", "m", "", "Machine ID")
	cmd.Flags().IntVarP(&row.Progress, "progress", "p", 0, "Progress percentage (0-100)")
	cmd.Flags().StringVar(&row.ShippingDate, "shipping", "", "Shipping date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&row.Manager, "manager", "", "Responsible manager")
	cmd.Flags().StringVar(&row.Customer, "customer", "", "Customer")
	cmd.Flags().StringVar(&row.Note, "note", "", "Free-text note")
	return cmd
}

// mergeSlotRow overlays the fields whose flags were set onto the current row
func mergeSlotRow(current, flags model.SlotRow, changed func(name string) bool) model.SlotRow {
	next := current
	if changed("machine") {
		next.MachineID = strings.TrimSpace(flags.MachineID)
	}
	if changed("progress") {
		next.Progress = flags.Progress
	}
	if changed("shipping") {
		next.ShippingDate = strings.TrimSpace(flags.ShippingDate)
	}
	if changed("manager") {
		next.Manager = flags.Manager
	}
	if changed("customer") {
		next.Customer = flags.Customer
	}
	if changed("note") {
		next.Note = flags.Note
	}
	return next
}

func slotMoveCmd(app *AppContext, query queryFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "move <from> [to]",
		Short: "Move a machine to another slot",
		Long: `Move a machine to another slot. With only <from>, the move is remembered
and completed later by 'slot place <to>'.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := query()
			if err != nil {
				return err
			}
			from, err := checkedCode(q, args[0])
			if err != nil {
				return err
			}

			if len(args) == 1 {
				if _, err := session.Update(app.Ctx, app.Store, func(s *model.Session) {
					s.Site, s.Building = q.Site, q.Building
					s.Intent = session.FormatIntent(session.IntentMove, from)
				}); err != nil {
					return err
				}
				fmt.Fprintf(app.out(), "Moving %s: run 'slot place <to>' to choose the destination\n", from)
				return nil
			}

			return runMove(app, q, from, args[1])
		},
	}
}

func slotPlaceCmd(app *AppContext, query queryFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "place <to>",
		Short: "Complete a pending move into the given slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := query()
			if err != nil {
				return err
			}
			from, ok, err := session.TakeIntent(app.Ctx, app.Store, session.IntentMove)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no move pending (use 'slot move <from>')")
			}
			return runMove(app, q, from, args[0])
		},
	}
}

func runMove(app *AppContext, q services.BoardQuery, from, to string) error {
	res, err := services.MoveSlot(app.Ctx, app.Client, app.Logger, q, from, to)
	if err != nil {
		return err
	}
	to = model.NormalizeSlotCode(to)
	fmt.Fprintf(app.out(), "\n%s✓ Moved %s → %s%s\n", colorGreen, from, to, colorReset)
	if tile, ok := res.Board.Tile(to); ok {
		renderTile(app.out(), res.Board.Layout, tile)
	}
	return nil
}

// checkedCode normalizes a code and checks it against the queried layout without a fetch
func checkedCode(q services.BoardQuery, raw string) (string, error) {
	l, err := layoutFor(q)
	if err != nil {
		return "", err
	}
	code := model.NormalizeSlotCode(raw)
	if !l.Contains(code) {
		return "", fmt.Errorf("slot %s is not part of %s", code, l.Name)
	}
	return code, nil
}

// renderTile prints one slot's details and its action menu
func renderTile(w io.Writer, l model.SlotLayout, tile reconciler.Tile) {
	fmt.Fprintf(w, "\n%s%s%s  %s  [%s]\n", colorBold, tile.Code, colorReset, l.Name, tile.Tone())
	if !tile.Occupied {
		fmt.Fprintln(w, "  (empty)")
	} else {
		r := tile.Row
		fmt.Fprintf(w, "  Machine:  %s\n", r.MachineID)
		fmt.Fprintf(w, "  Progress: %d%%\n", r.Progress)
		printField(w, "Shipping", r.ShippingDate)
		printField(w, "Manager", r.Manager)
		printField(w, "Customer", r.Customer)
		printField(w, "Note", r.Note)
	}
	fmt.Fprintf(w, "  Actions:  %s\n\n", strings.Join(tile.Actions(), ", "))
}

func printField(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "  %-9s %s\n", label+":", value)
}
