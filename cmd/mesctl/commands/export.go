package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/mesctl/pkg/core/services"
	"github.com/jakechorley/mesctl/pkg/export"
)

// ExportCmd creates the export command
func ExportCmd(app *AppContext) *cobra.Command {
	var (
		site, building string
		month          string
		tags           []string
		withMonth      bool
	)

	cmd := &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Export the board, and optionally a month of events, to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			q, err := app.boardQuery(site, building, "")
			if err != nil {
				return err
			}
			board, err := services.LoadBoard(app.Ctx, app.Client, app.Logger, q)
			if err != nil {
				return err
			}

			wb, err := export.NewWorkbook()
			if err != nil {
				return err
			}
			defer wb.Close()

			if err := wb.AddBoard(board.Board); err != nil {
				return err
			}

			if withMonth || month != "" {
				mq, err := app.monthQuery(month, tags)
				if err != nil {
					return err
				}
				res, err := services.LoadMonth(app.Ctx, app.Client, app.Logger, mq)
				if err != nil {
					return err
				}
				title := time.Date(mq.Year, mq.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
				if err := wb.AddMonth(title, res.Window, res.Buckets); err != nil {
					return err
				}
			}

			if err := wb.SaveAs(path); err != nil {
				return err
			}
			app.Logger.Info("Exported workbook", zap.String("path", path), zap.String("layout", board.Board.Layout.Key()))
			fmt.Fprintf(app.out(), "%s✓ Wrote %s%s\n", colorGreen, path, colorReset)
			return nil
		},
	}

	cmd.Flags().StringVar(&site, "site", "", "Site (defaults to the session site)")
	cmd.Flags().StringVarP(&building, "building", "b", "", "Building (defaults to the session building)")
	cmd.Flags().BoolVar(&withMonth, "calendar", false, "Also export the current month's events")
	cmd.Flags().StringVar(&month, "month", "", "Also export this month's events (YYYY-MM)")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Tag filter for the exported month")
	return cmd
}
