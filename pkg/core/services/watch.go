package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/mesctl/pkg/utils"
)

const (
	DefaultRefreshInterval = 5 * time.Minute
	DefaultSearchDebounce  = 200 * time.Millisecond
)

// WatchOptions configures WatchBoard
type WatchOptions struct {
	Query    BoardQuery
	Interval time.Duration // Full refetch period
	Debounce time.Duration // Quiet period before a search term is applied

	// Searches delivers raw search input; closing it stops search updates only
	Searches <-chan string

	OnBoard func(*BoardResult)
	OnError func(error)
}

// WatchBoard renders the board once, then refetches it on every tick until ctx is done.
// Search terms are debounced and re-highlight the last fetched rows without a refetch.
// Each fetch runs under a context derived from ctx, so cancelling ctx aborts it.
func WatchBoard(ctx context.Context, client BoardClient, logger *zap.Logger, opts WatchOptions) error {
	if opts.Interval <= 0 {
		opts.Interval = DefaultRefreshInterval
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultSearchDebounce
	}
	if opts.OnBoard == nil {
		opts.OnBoard = func(*BoardResult) {}
	}
	if opts.OnError == nil {
		opts.OnError = func(error) {}
	}

	query := opts.Query
	var last *BoardResult

	refresh := func() {
		fetchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		res, err := LoadBoard(fetchCtx, client, logger, query)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("Board refresh failed", zap.Error(err))
			opts.OnError(err)
			return
		}
		last = res
		opts.OnBoard(res)
	}

	settled := make(chan string)
	debouncer := utils.NewDebouncer(opts.Debounce, func(term string) {
		select {
		case settled <- term:
		case <-ctx.Done():
		}
	})
	defer debouncer.Stop()

	refresh()

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	searches := opts.Searches
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Stopping board watch")
			return nil

		case <-ticker.C:
			logger.Debug("Auto-refreshing board")
			refresh()

		case term, ok := <-searches:
			if !ok {
				searches = nil
				continue
			}
			debouncer.Submit(term)

		case term := <-settled:
			query.Search = term
			if last == nil {
				refresh()
				continue
			}
			last = last.Rehighlight(term)
			opts.OnBoard(last)
		}
	}
}
