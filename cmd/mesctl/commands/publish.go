package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/mesctl/internal/config"
	"github.com/jakechorley/mesctl/pkg/clients/sheetsclient"
	"github.com/jakechorley/mesctl/pkg/core/services"
	"github.com/jakechorley/mesctl/pkg/utils"
)

// PublishCmd creates the publish command
func PublishCmd(app *AppContext) *cobra.Command {
	var (
		site, building string
		tab            string
		reauth         bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish the board to the configured Google Sheet",
		Long: `Write the board to a tab of the configured spreadsheet (publish.spreadsheetID).
Comments typed into the sheet's Comment column are kept across publishes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spreadsheetID := app.Cfg.Publish.SpreadsheetID
			if spreadsheetID == "" {
				return fmt.Errorf("publish.spreadsheetID is not configured")
			}

			q, err := app.boardQuery(site, building, "")
			if err != nil {
				return err
			}
			res, err := services.LoadBoard(app.Ctx, app.Client, app.Logger, q)
			if err != nil {
				return err
			}
			if tab == "" {
				tab = app.Cfg.Publish.Tab
			}
			if tab == "" {
				tab = res.Board.Layout.Name
			}

			if reauth {
				tokens, err := utils.NewTokenFile("", app.Env)
				if err != nil {
					return err
				}
				if err := tokens.Delete(); err != nil {
					return err
				}
				utils.ClearToken()
			}

			oauthCfg, err := config.LoadPublishOAuthClient(app.Cfg, app.Env)
			if err != nil {
				return fmt.Errorf("failed to load oauth client: %w", err)
			}
			client, err := sheetsclient.NewClient(app.Ctx, oauthCfg, app.Env, app.Logger)
			if err != nil {
				return err
			}

			pb := sheetsclient.BuildPublishedBoard(res.Board, res.FetchedAt)
			if err := client.PublishBoard(spreadsheetID, tab, pb); err != nil {
				return err
			}

			app.Logger.Info("Published board",
				zap.String("spreadsheet", spreadsheetID),
				zap.String("tab", tab),
				zap.Int("rows", len(pb.Rows)))
			fmt.Fprintf(app.out(), "%s✓ Published %s to tab %q%s\n", colorGreen, pb.Title, tab, colorReset)
			return nil
		},
	}

	cmd.Flags().StringVar(&site, "site", "", "Site (defaults to the session site)")
	cmd.Flags().StringVarP(&building, "building", "b", "", "Building (defaults to the session building)")
	cmd.Flags().StringVar(&tab, "tab", "", "Sheet tab (defaults to publish.tab, then the building name)")
	cmd.Flags().BoolVar(&reauth, "reauth", false, "Discard the saved Google token and sign in again")
	return cmd
}
