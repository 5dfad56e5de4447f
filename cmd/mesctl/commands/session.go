package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakechorley/mesctl/pkg/core/model"
	"github.com/jakechorley/mesctl/pkg/session"
)

// SessionCmd creates the session command group
func SessionCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show or change the context remembered between commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Store.Get(app.Ctx)
			if err != nil {
				return fmt.Errorf("failed to load session: %w", err)
			}
			renderSession(app.out(), s, time.Now())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "token <bearer-token>",
		Short: "Store the bearer token sent to the MES backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(strings.TrimPrefix(args[0], "Bearer "))
			info, err := session.InspectToken(token)
			if err != nil {
				return err
			}
			if info.Expired(time.Now()) {
				return fmt.Errorf("token expired at %s", info.ExpiresAt.Local().Format(time.DateTime))
			}
			if _, err := session.Update(app.Ctx, app.Store, func(s *model.Session) {
				s.Token = token
			}); err != nil {
				return err
			}
			fmt.Fprintf(app.out(), "%s✓ Signed in as %s%s\n", colorGreen, tokenUser(info), colorReset)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "use <site> [building]",
		Short: "Set the default site and building",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			building := ""
			if len(args) == 2 {
				building = args[1]
			}
			q, err := app.boardQuery(args[0], building, "")
			if err != nil {
				return err
			}
			l, err := layoutFor(q)
			if err != nil {
				return err
			}
			if _, err := session.Update(app.Ctx, app.Store, func(s *model.Session) {
				if s.Site != q.Site || s.Building != q.Building {
					s.SelectedSlot = ""
				}
				s.Site, s.Building = q.Site, q.Building
			}); err != nil {
				return err
			}
			fmt.Fprintf(app.out(), "Using %s (%s)\n", l.Name, l.Key())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the token, building, selection and any pending move",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Store.Clear(app.Ctx); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			fmt.Fprintln(app.out(), "Session cleared")
			return nil
		},
	})

	return cmd
}

func tokenUser(info *session.TokenInfo) string {
	if info.Name != "" {
		return info.Name
	}
	if info.Subject != "" {
		return info.Subject
	}
	return "unknown user"
}

// renderSession prints the stored context; the token itself is never shown
func renderSession(w io.Writer, s *model.Session, now time.Time) {
	fmt.Fprintln(w)
	printField(w, "Session", s.ID)
	printField(w, "Site", s.Site)
	printField(w, "Building", s.Building)
	printField(w, "Selected", s.SelectedSlot)
	if kind, arg, ok := session.ParseIntent(s.Intent); ok {
		printField(w, "Pending", kind+" "+arg)
	}

	switch {
	case s.Token == "":
		printField(w, "Token", "none (use 'session token <t>')")
	default:
		info, err := session.InspectToken(s.Token)
		if err != nil {
			printField(w, "Token", "unreadable")
			break
		}
		status := "valid"
		if !info.ExpiresAt.IsZero() {
			status += ", expires " + info.ExpiresAt.Local().Format(time.DateTime)
		}
		if info.Expired(now) {
			status = "expired " + info.ExpiresAt.Local().Format(time.DateTime)
		}
		printField(w, "User", tokenUser(info))
		printField(w, "Token", status)
	}
	printField(w, "Updated", s.UpdatedAt)
	fmt.Fprintln(w)
}

