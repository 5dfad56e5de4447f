package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/mesctl/pkg/core/services"
)

// ShipCmd creates the ship command
func ShipCmd(app *AppContext) *cobra.Command {
	var site, building string

	cmd := &cobra.Command{
		Use:   "ship [code]",
		Short: "Mark the machine in a slot as shipped",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := app.boardQuery(site, building, "")
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
			if !tile.Shippable() {
				return fmt.Errorf("slot %s is empty, nothing to ship", code)
			}

			res, err := services.ShipSlot(app.Ctx, app.Client, app.Logger, q, code)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.out(), "\n%s✓ Shipped %s from %s%s\n", colorGreen, tile.Row.MachineID, code, colorReset)
			fmt.Fprintf(app.out(), "%s now has %d occupied slots\n\n", res.Board.Layout.Name, res.Board.Occupied())
			return nil
		},
	}

	cmd.Flags().StringVar(&site, "site", "", "Site (defaults to the session site)")
	cmd.Flags().StringVarP(&building, "building", "b", "", "Building (defaults to the session building)")
	return cmd
}
