package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/mesctl/pkg/core/model"
)

type boardSink struct {
	mu     sync.Mutex
	boards []*BoardResult
	errs   []error
}

func (s *boardSink) onBoard(b *BoardResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards = append(s.boards, b)
}

func (s *boardSink) onError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *boardSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.boards)
}

func (s *boardSink) last() *BoardResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.boards) == 0 {
		return nil
	}
	return s.boards[len(s.boards)-1]
}

func TestWatchBoard_RefreshesOnTick(t *testing.T) {
	client := &mockBoardClient{rows: []model.SlotRow{{SlotCode: "A1", MachineID: "M-1"}}}
	sink := &boardSink{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- WatchBoard(ctx, client, zap.NewNop(), WatchOptions{
			Query:    buildingA,
			Interval: 10 * time.Millisecond,
			OnBoard:  sink.onBoard,
			OnError:  sink.onError,
		})
	}()

	assert.Eventually(t, func() bool { return client.fetches() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WatchBoard did not stop after cancel")
	}
	assert.GreaterOrEqual(t, sink.count(), 3)
}

func TestWatchBoard_DebouncedSearchRehighlights(t *testing.T) {
	client := &mockBoardClient{rows: []model.SlotRow{
		{SlotCode: "A1", MachineID: "ALPHA-1"},
		{SlotCode: "A2", MachineID: "BRAVO-2"},
	}}
	sink := &boardSink{}
	searches := make(chan string)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go WatchBoard(ctx, client, zap.NewNop(), WatchOptions{
		Query:    buildingA,
		Interval: time.Hour,
		Debounce: 20 * time.Millisecond,
		Searches: searches,
		OnBoard:  sink.onBoard,
	})

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)

	searches <- "b"
	searches <- "br"
	searches <- "bravo"

	require.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, 2, sink.count())
	assert.Equal(t, "A2", sink.last().Board.Highlighted)
	assert.Equal(t, 1, client.fetches())
}

func TestWatchBoard_ReportsErrorsAndKeepsRunning(t *testing.T) {
	client := &mockBoardClient{listErr: errors.New("unreachable")}
	sink := &boardSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go WatchBoard(ctx, client, zap.NewNop(), WatchOptions{
		Query:    buildingA,
		Interval: 10 * time.Millisecond,
		OnBoard:  sink.onBoard,
		OnError:  sink.onError,
	})

	assert.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.errs) >= 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, sink.count())
}

func TestWatchBoard_ClosedSearchChannel(t *testing.T) {
	client := &mockBoardClient{}
	searches := make(chan string)
	close(searches)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := WatchBoard(ctx, client, zap.NewNop(), WatchOptions{
		Query:    buildingA,
		Interval: time.Hour,
		Searches: searches,
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, client.fetches())
}
