package commands

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakechorley/mesctl/pkg/core/calendar"
	"github.com/jakechorley/mesctl/pkg/core/model"
	"github.com/jakechorley/mesctl/pkg/core/services"
)

// CalendarCmd creates the calendar command group
func CalendarCmd(app *AppContext) *cobra.Command {
	var (
		tags    []string
		day     string
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "calendar [YYYY-MM]",
		Short: "Show the production calendar for a month",
		Long: `Show the 6-week grid for a month with the number of events on each day.
Use --tag to filter (repeatable; "none" and "other" select untagged and
non-preset notes) and --day to list the events of one day.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month := ""
			if len(args) == 1 {
				month = args[0]
			} else if day != "" {
				month = day[:min(len(day), 7)]
			}
			q, err := app.monthQuery(month, tags)
			if err != nil {
				return err
			}

			res, err := services.LoadMonth(app.Ctx, app.Client, app.Logger, q)
			if err != nil {
				return err
			}

			if day != "" {
				if _, err := calendar.ParseDate(day); err != nil {
					return fmt.Errorf("invalid --day %q: %w", day, err)
				}
				renderDay(app.out(), day, res.Buckets.On(day))
				return nil
			}
			renderMonth(app.out(), q, res, !noColor)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Only show events with this tag (repeatable)")
	cmd.Flags().StringVarP(&day, "day", "d", "", "List the events of one day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable ANSI colors")

	cmd.AddCommand(calendarAddCmd(app))
	cmd.AddCommand(calendarEditCmd(app))
	cmd.AddCommand(calendarDeleteCmd(app))
	return cmd
}

func calendarAddCmd(app *AppContext) *cobra.Command {
	var (
		ev               model.CalEvent
		tag, detail      string
		rule, templateID string
		limit            int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an event, optionally repeated by an RRULE or a configured template",
		Example: `  mesctl calendar add --machine M-1042 --start 2025-03-03 --tag QC --detail "final check"
  mesctl calendar add --machine M-1042 --start 2025-03-03 --rrule "FREQ=WEEKLY;COUNT=4"
  mesctl calendar add --machine M-1042 --start 2025-03-03 --template weekly-qc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			event := ev
			if tag != "" || detail != "" {
				event.Note = calendar.NewNote(tag, detail).String()
			}
			if limit <= 0 {
				limit = app.Cfg.RecurrenceLimit
			}

			req := services.NewEventRequest{Event: event, RRule: rule, Limit: limit}
			if templateID != "" {
				if rule != "" {
					return fmt.Errorf("--rrule and --template cannot be combined")
				}
				tmpl, ok := app.Cfg.Template(templateID)
				if !ok {
					return fmt.Errorf("unknown template %q", templateID)
				}
				var err error
				req, err = services.FromTemplate(tmpl, event, limit)
				if err != nil {
					return err
				}
			}

			q, err := app.monthQuery(monthOf(event.StartDate), nil)
			if err != nil {
				return err
			}

			res, err := services.CreateEvents(app.Ctx, app.Client, app.Logger, req, q)
			if err != nil {
				return err
			}

			w := app.out()
			fmt.Fprintf(w, "\n%s✓ Created %d event(s)%s\n", colorGreen, len(res.Created), colorReset)
			for _, created := range res.Created {
				fmt.Fprintf(w, "  %s\n", eventLine(created))
			}
			fmt.Fprintln(w)
			return nil
		},
	}

	cmd.Flags().StringVarP(&ev.MachineNo, "machine", "m", "", "Machine number")
	cmd.Flags().StringVar(&ev.StartDate, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&ev.EndDate, "end", "", "End date (YYYY-MM-DD, defaults to the start date)")
	cmd.Flags().StringVar(&ev.Owner, "owner", "", "Owner")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Tag, e.g. QC or SETTING")
	cmd.Flags().StringVar(&detail, "detail", "", "Note text after the tag")
	cmd.Flags().StringVar(&rule, "rrule", "", "Recurrence rule bounded by COUNT or UNTIL")
	cmd.Flags().StringVar(&templateID, "template", "", "Configured recurring template name")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum occurrences (defaults to the configured limit)")
	cmd.MarkFlagRequired("start")
	return cmd
}

func calendarEditCmd(app *AppContext) *cobra.Command {
	var (
		machine, start, end, owner string
		tag, detail, month         string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an event; only the flags given are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEventID(args[0])
			if err != nil {
				return err
			}

			changed := cmd.Flags().Changed
			var patch model.EventPatch
			if changed("machine") {
				patch.MachineNo = &machine
			}
			if changed("start") {
				patch.StartDate = &start
			}
			if changed("end") {
				patch.EndDate = &end
			}
			if changed("owner") {
				patch.Owner = &owner
			}
			if changed("tag") || changed("detail") {
				note := calendar.NewNote(tag, detail).String()
				patch.Note = &note
			}
			if patch == (model.EventPatch{}) {
				return fmt.Errorf("nothing to change")
			}

			if month == "" && patch.StartDate != nil {
				month = monthOf(start)
			}
			q, err := app.monthQuery(month, nil)
			if err != nil {
				return err
			}

			if _, err := services.UpdateEvent(app.Ctx, app.Client, app.Logger, id, patch, q); err != nil {
				return err
			}
			fmt.Fprintf(app.out(), "\n%s✓ Updated event %d%s\n\n", colorGreen, id, colorReset)
			return nil
		},
	}

	cmd.Flags().StringVarP(&machine, "machine", "m", "", "Machine number")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD, empty for a single day)")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Tag; rewrites the note together with --detail")
	cmd.Flags().StringVar(&detail, "detail", "", "Note text after the tag")
	cmd.Flags().StringVar(&month, "month", "", "Month to reload afterwards (YYYY-MM)")
	return cmd
}

func calendarDeleteCmd(app *AppContext) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEventID(args[0])
			if err != nil {
				return err
			}
			q, err := app.monthQuery(month, nil)
			if err != nil {
				return err
			}

			res, err := services.DeleteEvent(app.Ctx, app.Client, app.Logger, id, q)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out(), "\n%s✓ Deleted event %d%s (%d events left in view)\n\n",
				colorGreen, id, colorReset, len(res.Events))
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month to reload afterwards (YYYY-MM)")
	return cmd
}

func parseEventID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("event id must be a positive number, got %q", s)
	}
	return id, nil
}

// monthOf returns the "YYYY-MM" prefix of a date, or "" if it is not a date
func monthOf(date string) string {
	if _, err := calendar.ParseDate(strings.TrimSpace(date)); err != nil {
		return ""
	}
	return strings.TrimSpace(date)[:7]
}

// renderMonth prints the 6x7 grid with each day's event count
func renderMonth(w io.Writer, q services.MonthQuery, res *services.MonthResult, color bool) {
	title := time.Date(q.Year, q.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
	fmt.Fprintf(w, "\n%s%s%s", paint(color, colorBold), title, reset(color))
	if len(q.Tags) > 0 {
		names := make([]string, len(q.Tags))
		for i, s := range q.Tags {
			names[i] = s.String()
		}
		fmt.Fprintf(w, "  tags: %s", strings.Join(names, ", "))
	}
	fmt.Fprintf(w, "  %d events\n\n", len(res.Events))

	for i := 0; i < 7; i++ {
		fmt.Fprintf(w, "%-8s", time.Weekday((int(q.WeekStart)+i)%7).String()[:3])
	}
	fmt.Fprintln(w)

	for _, week := range res.Window.Weeks() {
		for _, d := range week {
			fmt.Fprint(w, dayCell(d, q.Month, len(res.Buckets.On(calendar.FormatDate(d))), color))
		}
		fmt.Fprintln(w)
	}

	if skipped := res.Report.Skipped(); skipped > 0 {
		fmt.Fprintf(w, "\n%d event(s) skipped for missing or invalid dates\n", skipped)
	}
	if n := len(res.Report.Truncated); n > 0 {
		fmt.Fprintf(w, "%d event(s) cut at %d days\n", n, q.MaxSpanDays)
	}
	fmt.Fprintln(w)
}

func dayCell(d time.Time, month time.Month, count int, color bool) string {
	text := fmt.Sprintf("%2d", d.Day())
	if count > 0 {
		text += fmt.Sprintf("(%d)", count)
	}
	text = fmt.Sprintf("%-7s", text)
	switch {
	case d.Month() != month:
		return dim(color) + text + reset(color) + " "
	case count > 0:
		return paint(color, colorBlue) + text + reset(color) + " "
	default:
		return text + " "
	}
}

// renderDay lists the events bucketed on one day
func renderDay(w io.Writer, day string, events []model.CalEvent) {
	fmt.Fprintf(w, "\n%s: %d event(s)\n\n", day, len(events))
	for _, ev := range events {
		fmt.Fprintf(w, "  %s\n", eventLine(ev))
	}
	fmt.Fprintln(w)
}

func eventLine(ev model.CalEvent) string {
	dates := ev.StartDate
	if ev.EndDate != "" && ev.EndDate != ev.StartDate {
		dates += " ~ " + ev.EndDate
	}
	note := calendar.ParseNote(ev.Note)
	tag := "-"
	if note.Tag.Kind != model.TagNone {
		tag = "[" + note.Tag.Raw + "]"
	}
	line := fmt.Sprintf("#%-5d %-10s %-10s %s", ev.ID, ev.MachineNo, tag, dates)
	if note.Detail != "" {
		line += "  " + note.Detail
	}
	if ev.Owner != "" {
		line += "  (" + ev.Owner + ")"
	}
	return line
}

// TagsCmd creates the tags command
func TagsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tags [YYYY-MM]",
		Short: "List the preset tags with how many events use each in a month",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month := ""
			if len(args) == 1 {
				month = args[0]
			}
			q, err := app.monthQuery(month, nil)
			if err != nil {
				return err
			}
			res, err := services.LoadMonth(app.Ctx, app.Client, app.Logger, q)
			if err != nil {
				return err
			}
			renderTagCounts(app.out(), res.TagCounts)
			return nil
		},
	}
}

// renderTagCounts prints presets in display order, then any other non-zero buckets
func renderTagCounts(w io.Writer, counts map[string]int) {
	fmt.Fprintf(w, "\n%-12s %s\n", "TAG", "EVENTS")
	seen := make(map[string]bool)
	for _, t := range calendar.PresetTags() {
		fmt.Fprintf(w, "%-12s %d\n", t, counts[t])
		seen[t] = true
	}

	var rest []string
	for name := range counts {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		fmt.Fprintf(w, "%-12s %d\n", name, counts[name])
	}
	fmt.Fprintln(w)
}
