package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/mesctl/pkg/core/model"
)

func TestRepeat_WeeklyCount(t *testing.T) {
	ev := model.CalEvent{ID: 9, MachineNo: "M-1", StartDate: "2025-01-06", Note: "[QC] weekly"}

	events, err := Repeat(ev, "FREQ=WEEKLY;COUNT=3", 0)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "2025-01-06", events[0].StartDate)
	assert.Equal(t, "2025-01-13", events[1].StartDate)
	assert.Equal(t, "2025-01-20", events[2].StartDate)
	for _, e := range events {
		assert.Equal(t, int64(0), e.ID)
		assert.Empty(t, e.EndDate)
		assert.Equal(t, "[QC] weekly", e.Note)
		assert.Equal(t, "M-1", e.MachineNo)
	}
}

func TestRepeat_KeepsSpan(t *testing.T) {
	ev := model.CalEvent{StartDate: "2025-01-30", EndDate: "2025-02-01"}

	events, err := Repeat(ev, "FREQ=DAILY;INTERVAL=7;COUNT=2", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "2025-01-30", events[0].StartDate)
	assert.Equal(t, "2025-02-01", events[0].EndDate)
	assert.Equal(t, "2025-02-06", events[1].StartDate)
	assert.Equal(t, "2025-02-08", events[1].EndDate)
}

func TestRepeat_Errors(t *testing.T) {
	tests := []struct {
		name  string
		ev    model.CalEvent
		rule  string
		limit int
		want  string
	}{
		{"missing start", model.CalEvent{}, "FREQ=DAILY;COUNT=2", 0, "no start date"},
		{"bad start", model.CalEvent{StartDate: "x"}, "FREQ=DAILY;COUNT=2", 0, "invalid start date"},
		{"inverted", model.CalEvent{StartDate: "2025-01-05", EndDate: "2025-01-01"}, "FREQ=DAILY;COUNT=2", 0, "before start date"},
		{"bad rule", model.CalEvent{StartDate: "2025-01-05"}, "NOT_A_RULE", 0, "invalid rrule"},
		{"unbounded", model.CalEvent{StartDate: "2025-01-05"}, "FREQ=DAILY", 0, "COUNT or UNTIL"},
		{"over limit", model.CalEvent{StartDate: "2025-01-05"}, "FREQ=DAILY;COUNT=20", 5, "limit is 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Repeat(tt.ev, tt.rule, tt.limit)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRepeat_StopsAtLimit(t *testing.T) {
	ev := model.CalEvent{StartDate: "2025-01-05"}

	began := time.Now()
	_, err := Repeat(ev, "FREQ=MINUTELY;UNTIL=20350101T000000Z", 10)
	elapsed := time.Since(began)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit is 10")
	assert.Less(t, elapsed, 100*time.Millisecond)
}

func TestRepeat_ExactlyAtLimit(t *testing.T) {
	events, err := Repeat(model.CalEvent{StartDate: "2025-01-05"}, "FREQ=DAILY;COUNT=5", 5)
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestValidateRule(t *testing.T) {
	assert.NoError(t, ValidateRule("FREQ=MONTHLY;BYDAY=1MO"))
	assert.Error(t, ValidateRule("INVALID"))
}
