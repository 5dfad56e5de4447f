package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/mesctl/internal/config"
	"github.com/jakechorley/mesctl/pkg/clients/mesclient"
	"github.com/jakechorley/mesctl/pkg/core/calendar"
	"github.com/jakechorley/mesctl/pkg/core/layout"
	"github.com/jakechorley/mesctl/pkg/core/model"
	"github.com/jakechorley/mesctl/pkg/core/services"
	"github.com/jakechorley/mesctl/pkg/session"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg    *config.Config
	Client *mesclient.Client
	Store  session.Store
	Logger *zap.Logger
	Ctx    context.Context
	Env    string
	Out    io.Writer
	In     *bufio.Reader // Shared by the interactive prompt and watch mode
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorDim    = "\033[2m"
	colorInvert = "\033[7m"
)

func (a *AppContext) out() io.Writer {
	if a.Out == nil {
		return os.Stdout
	}
	return a.Out
}

func (a *AppContext) input() *bufio.Reader {
	if a.In == nil {
		a.In = bufio.NewReader(os.Stdin)
	}
	return a.In
}

// boardQuery resolves site and building from flags, then the session, then config defaults
func (a *AppContext) boardQuery(site, building, search string) (services.BoardQuery, error) {
	s, err := a.Store.Get(a.Ctx)
	if err != nil {
		return services.BoardQuery{}, fmt.Errorf("failed to load session: %w", err)
	}
	if site == "" {
		site = s.Site
	}
	if building == "" && site == s.Site {
		building = s.Building
	}
	if site == "" {
		site = a.Cfg.DefaultSite
	}
	if building == "" && site == a.Cfg.DefaultSite {
		building = a.Cfg.DefaultBuilding
	}
	if building == "" {
		return services.BoardQuery{}, fmt.Errorf("building is required for site %s", site)
	}
	return services.BoardQuery{Site: site, Building: strings.ToUpper(building), Search: search}, nil
}

func layoutFor(q services.BoardQuery) (model.SlotLayout, error) {
	return layout.Get(q.Site, q.Building)
}

// monthQuery builds a month query from a "YYYY-MM" argument (empty means the current month)
func (a *AppContext) monthQuery(month string, tags []string) (services.MonthQuery, error) {
	var (
		year int
		mon  time.Month
		err  error
	)
	if month == "" {
		now := time.Now()
		year, mon = now.Year(), now.Month()
	} else {
		year, mon, err = calendar.ParseMonth(month)
		if err != nil {
			return services.MonthQuery{}, err
		}
	}

	weekStart, err := calendar.ParseWeekStart(a.Cfg.WeekStart)
	if err != nil {
		return services.MonthQuery{}, err
	}

	q := services.MonthQuery{
		Year:        year,
		Month:       mon,
		WeekStart:   weekStart,
		MaxSpanDays: a.Cfg.MaxEventSpanDays,
	}
	for _, raw := range tags {
		sel, err := calendar.ParseSelector(raw)
		if err != nil {
			return services.MonthQuery{}, err
		}
		q.Tags = append(q.Tags, sel)
	}
	return q, nil
}
