package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/mesctl/pkg/clients/mesclient"
	"github.com/jakechorley/mesctl/pkg/core/layout"
	"github.com/jakechorley/mesctl/pkg/core/model"
	"github.com/jakechorley/mesctl/pkg/core/reconciler"
	"github.com/jakechorley/mesctl/pkg/core/services"
	"github.com/jakechorley/mesctl/pkg/session"
)

const tileWidth = 21

// DashboardCmd creates the dashboard command
func DashboardCmd(app *AppContext) *cobra.Command {
	var (
		site, building, search string
		watch, noColor         bool
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the equipment slot board for a building",
		Long: `Show every slot of a building's layout, colored by progress.
With --watch the board refreshes on the configured interval; type a machine ID
fragment and press enter to highlight it, or "q" to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := app.boardQuery(site, building, search)
			if err != nil {
				return err
			}

			if _, err := session.Update(app.Ctx, app.Store, func(s *model.Session) {
				s.Site, s.Building = q.Site, q.Building
			}); err != nil {
				app.Logger.Warn("Failed to remember building", zap.Error(err))
			}

			if watch {
				return watchDashboard(app, q, !noColor)
			}

			res, err := services.LoadBoard(app.Ctx, app.Client, app.Logger, q)
			if err != nil {
				return err
			}
			renderBoard(app.out(), res, !noColor)
			return nil
		},
	}

	cmd.Flags().StringVar(&site, "site", "", "Site (main, jinwoori)")
	cmd.Flags().StringVarP(&building, "building", "b", "", "Building (A, I, JIN)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Highlight the first machine whose ID contains this text")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep refreshing the board")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable ANSI colors")

	cmd.AddCommand(layoutsCmd(app))
	return cmd
}

func layoutsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List the known site and building layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := app.out()
			fmt.Fprintf(w, "%-10s %-9s %-8s %s\n", "SITE", "BUILDING", "NAME", "SLOTS")
			for _, l := range layout.All() {
				fmt.Fprintf(w, "%-10s %-9s %-8s %d\n", l.Site, l.Building, l.Name, len(l.Codes))
			}
			return nil
		},
	}
}

// watchDashboard redraws the board on every refresh and feeds stdin lines in as search terms
func watchDashboard(app *AppContext, q services.BoardQuery, color bool) error {
	ctx, cancel := context.WithCancel(app.Ctx)
	defer cancel()

	searches := make(chan string)
	go func() {
		defer close(searches)
		in := app.input()
		for {
			line, err := in.ReadString('\n')
			if err != nil {
				cancel()
				return
			}
			line = strings.TrimSpace(line)
			if line == "q" || line == ":q" {
				cancel()
				return
			}
			select {
			case searches <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	w := app.out()
	return services.WatchBoard(ctx, app.Client, app.Logger, services.WatchOptions{
		Query:    q,
		Interval: app.Cfg.RefreshInterval,
		Debounce: app.Cfg.SearchDebounce,
		Searches: searches,
		OnBoard: func(res *services.BoardResult) {
			fmt.Fprint(w, "\033[H\033[2J")
			renderBoard(w, res, color)
			fmt.Fprintf(w, "\n%ssearch> (enter text, q to quit)%s\n", dim(color), reset(color))
		},
		OnError: func(err error) {
			fmt.Fprintf(w, "%s%s%s\n", paint(color, colorRed), mesclient.UserMessage(err), reset(color))
		},
	})
}

// renderBoard prints the layout grid with one cell per slot, followed by a legend
func renderBoard(w io.Writer, res *services.BoardResult, color bool) {
	board := res.Board
	fmt.Fprintf(w, "\n%s%s%s  %s  occupied %d/%d  updated %s\n\n",
		paint(color, colorBold), board.Layout.Name, reset(color),
		board.Layout.Key(), board.Occupied(), len(board.Tiles),
		res.FetchedAt.Format("15:04:05"))

	for _, line := range layout.Rows(board.Layout) {
		for _, code := range line {
			tile, ok := board.Tile(code)
			if !ok {
				continue
			}
			fmt.Fprint(w, tileCell(tile, color))
		}
		fmt.Fprintln(w)
	}

	if line := highlightLine(res); line != "" {
		fmt.Fprintf(w, "\n%s\n", line)
	}

	fmt.Fprintf(w, "\n%sempty%s  %s<50%%%s  %s<100%%%s  %sready to ship%s\n",
		toneColor(reconciler.ToneEmpty, color), reset(color),
		toneColor(reconciler.ToneInProgress, color), reset(color),
		toneColor(reconciler.ToneNearComplete, color), reset(color),
		toneColor(reconciler.ToneReadyToShip, color), reset(color))
}

// highlightLine describes the search match, which may be a row outside the layout
func highlightLine(res *services.BoardResult) string {
	code := res.Board.Highlighted
	if code == "" {
		return ""
	}
	machine := ""
	for _, row := range res.Rows {
		if model.NormalizeSlotCode(row.SlotCode) == code && row.Occupied() {
			machine = row.MachineID
			break
		}
	}
	if _, ok := res.Board.Tile(code); !ok {
		return fmt.Sprintf("found %s in %s, outside %s", machine, code, res.Board.Layout.Name)
	}
	return fmt.Sprintf("found %s in %s", machine, code)
}

// tileCell renders one fixed-width cell: code, machine ID and progress.
// Without color the highlighted tile is marked with a leading "*".
func tileCell(tile reconciler.Tile, color bool) string {
	var text string
	if tile.Occupied {
		text = fmt.Sprintf("%-5s %-8s %3d%%", tile.Code, truncate(tile.Row.MachineID, 8), tile.Row.Progress)
	} else {
		text = fmt.Sprintf("%-5s %-8s", tile.Code, "-")
	}

	mark := " "
	prefix := toneColor(tile.Tone(), color)
	if tile.Highlighted {
		if color {
			prefix += colorInvert
		} else {
			mark = "*"
		}
	}
	return prefix + mark + fmt.Sprintf("%-*s", tileWidth-2, text) + reset(color) + " "
}

func toneColor(tone reconciler.Tone, color bool) string {
	if !color {
		return ""
	}
	switch tone {
	case reconciler.ToneInProgress:
		return colorYellow
	case reconciler.ToneNearComplete:
		return colorBlue
	case reconciler.ToneReadyToShip:
		return colorGreen
	default:
		return colorDim
	}
}

func paint(color bool, code string) string {
	if !color {
		return ""
	}
	return code
}

func reset(color bool) string {
	return paint(color, colorReset)
}

func dim(color bool) string {
	return paint(color, colorDim)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
