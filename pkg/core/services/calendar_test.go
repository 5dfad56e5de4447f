package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/mesctl/internal/config"
	"github.com/jakechorley/mesctl/pkg/core/calendar"
	"github.com/jakechorley/mesctl/pkg/core/model"
)

// mockEventsClient implements EventWriter for testing
type mockEventsClient struct {
	events   []model.CalEvent
	listErr  error
	writeErr error

	listCalls [][2]string
	created   []model.CalEvent
	batches   [][]model.CalEvent
	updates   map[int64]model.EventPatch
	deleted   []int64
}

func (m *mockEventsClient) ListEvents(ctx context.Context, from, to string) ([]model.CalEvent, error) {
	m.listCalls = append(m.listCalls, [2]string{from, to})
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.events, nil
}

func (m *mockEventsClient) CreateEvent(ctx context.Context, ev model.CalEvent) (*model.CalEvent, error) {
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	ev.ID = int64(100 + len(m.created))
	m.created = append(m.created, ev)
	return &ev, nil
}

func (m *mockEventsClient) CreateEvents(ctx context.Context, events []model.CalEvent) ([]model.CalEvent, error) {
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	m.batches = append(m.batches, events)
	return events, nil
}

func (m *mockEventsClient) UpdateEvent(ctx context.Context, id int64, patch model.EventPatch) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	if m.updates == nil {
		m.updates = make(map[int64]model.EventPatch)
	}
	m.updates[id] = patch
	return nil
}

func (m *mockEventsClient) DeleteEvent(ctx context.Context, id int64) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

var march2025 = MonthQuery{Year: 2025, Month: time.March, WeekStart: time.Sunday, MaxSpanDays: 366}

func strPtr(s string) *string { return &s }

func TestLoadMonth(t *testing.T) {
	client := &mockEventsClient{events: []model.CalEvent{
		{ID: 1, MachineNo: "M-2", StartDate: "2025-03-03", EndDate: "2025-03-05", Note: "[QC] 출하 전 검사"},
		{ID: 2, MachineNo: "M-1", StartDate: "2025-03-04", Note: "[설치] 현장"},
		{ID: 3, MachineNo: "M-3", StartDate: "", Note: "no date"},
		{ID: 4, MachineNo: "M-4", StartDate: "2025-03-04", Note: "메모"},
	}}

	res, err := LoadMonth(context.Background(), client, zap.NewNop(), march2025)
	require.NoError(t, err)

	assert.Equal(t, [][2]string{{"2025-02-23", "2025-04-05"}}, client.listCalls)
	assert.Len(t, res.Window.Days(), calendar.GridDays)

	day := res.Buckets.On("2025-03-04")
	require.Len(t, day, 3)
	assert.Equal(t, int64(1), day[0].ID)
	assert.Equal(t, int64(2), day[1].ID)
	assert.Equal(t, int64(4), day[2].ID)

	assert.Len(t, res.Report.MissingStart, 1)
	assert.Equal(t, 1, res.TagCounts["QC"])
	assert.Equal(t, 1, res.TagCounts[calendar.SelectorOther])
	assert.Equal(t, 2, res.TagCounts[calendar.SelectorNone])
}

func TestLoadMonth_TagFilter(t *testing.T) {
	client := &mockEventsClient{events: []model.CalEvent{
		{ID: 1, StartDate: "2025-03-03", Note: "[QC] a"},
		{ID: 2, StartDate: "2025-03-03", Note: "[custom] b"},
		{ID: 3, StartDate: "2025-03-03", Note: "c"},
	}}

	other, err := calendar.ParseSelector("other")
	require.NoError(t, err)

	q := march2025
	q.Tags = []calendar.Selector{other}
	res, err := LoadMonth(context.Background(), client, zap.NewNop(), q)
	require.NoError(t, err)

	require.Len(t, res.Events, 1)
	assert.Equal(t, int64(2), res.Events[0].ID)
	assert.Len(t, res.TagCounts, 3)
}

func TestLoadMonth_InvalidMonth(t *testing.T) {
	client := &mockEventsClient{}
	_, err := LoadMonth(context.Background(), client, zap.NewNop(), MonthQuery{Year: 2025, Month: 13})
	assert.Error(t, err)
	assert.Empty(t, client.listCalls)
}

func TestLoadMonth_FetchError(t *testing.T) {
	client := &mockEventsClient{listErr: errors.New("down")}
	_, err := LoadMonth(context.Background(), client, zap.NewNop(), march2025)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch events")
}

func TestCreateEvents_Single(t *testing.T) {
	client := &mockEventsClient{}

	res, err := CreateEvents(context.Background(), client, zap.NewNop(), NewEventRequest{
		Event: model.CalEvent{MachineNo: "M-1", StartDate: "2025-03-10", Note: "[SETTING] 초기 세팅"},
	}, march2025)
	require.NoError(t, err)

	require.Len(t, res.Created, 1)
	assert.Equal(t, int64(100), res.Created[0].ID)
	assert.Empty(t, client.batches)
	assert.Len(t, client.listCalls, 1)
	assert.NotNil(t, res.Month)
}

func TestCreateEvents_Recurring(t *testing.T) {
	client := &mockEventsClient{}

	res, err := CreateEvents(context.Background(), client, zap.NewNop(), NewEventRequest{
		Event: model.CalEvent{MachineNo: "M-1", StartDate: "2025-03-03", EndDate: "2025-03-04"},
		RRule: "FREQ=WEEKLY;COUNT=3",
		Limit: 10,
	}, march2025)
	require.NoError(t, err)

	require.Len(t, client.batches, 1)
	batch := client.batches[0]
	require.Len(t, batch, 3)
	assert.Equal(t, "2025-03-17", batch[2].StartDate)
	assert.Equal(t, "2025-03-18", batch[2].EndDate)
	assert.Len(t, res.Created, 3)
	assert.Len(t, client.listCalls, 1)
}

func TestCreateEvents_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  NewEventRequest
	}{
		{"missing start", NewEventRequest{Event: model.CalEvent{MachineNo: "M-1"}}},
		{"bad start", NewEventRequest{Event: model.CalEvent{StartDate: "03/10/2025"}}},
		{"end before start", NewEventRequest{Event: model.CalEvent{StartDate: "2025-03-10", EndDate: "2025-03-09"}}},
		{"unbounded rrule", NewEventRequest{Event: model.CalEvent{StartDate: "2025-03-10"}, RRule: "FREQ=DAILY"}},
		{"over limit", NewEventRequest{Event: model.CalEvent{StartDate: "2025-03-10"}, RRule: "FREQ=DAILY;COUNT=50", Limit: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockEventsClient{}
			_, err := CreateEvents(context.Background(), client, zap.NewNop(), tt.req, march2025)
			assert.Error(t, err)
			assert.Empty(t, client.created)
			assert.Empty(t, client.batches)
			assert.Empty(t, client.listCalls)
		})
	}
}

func TestCreateEvents_WriteErrorSkipsRefetch(t *testing.T) {
	client := &mockEventsClient{writeErr: errors.New("500")}

	_, err := CreateEvents(context.Background(), client, zap.NewNop(), NewEventRequest{
		Event: model.CalEvent{StartDate: "2025-03-10"},
	}, march2025)
	assert.Error(t, err)
	assert.Empty(t, client.listCalls)
}

func TestUpdateEvent(t *testing.T) {
	client := &mockEventsClient{}
	patch := model.EventPatch{EndDate: strPtr("2025-03-12"), Note: strPtr("[칠러] 교체")}

	_, err := UpdateEvent(context.Background(), client, zap.NewNop(), 7, patch, march2025)
	require.NoError(t, err)

	assert.Equal(t, patch, client.updates[7])
	assert.Len(t, client.listCalls, 1)
}

func TestUpdateEvent_Validation(t *testing.T) {
	client := &mockEventsClient{}

	_, err := UpdateEvent(context.Background(), client, zap.NewNop(), 0, model.EventPatch{}, march2025)
	assert.Error(t, err)

	_, err = UpdateEvent(context.Background(), client, zap.NewNop(), 7, model.EventPatch{StartDate: strPtr("tomorrow")}, march2025)
	assert.Error(t, err)

	_, err = UpdateEvent(context.Background(), client, zap.NewNop(), 7,
		model.EventPatch{StartDate: strPtr("2025-03-10"), EndDate: strPtr("2025-03-01")}, march2025)
	assert.Error(t, err)

	assert.Empty(t, client.updates)
}

func TestDeleteEvent(t *testing.T) {
	client := &mockEventsClient{}

	_, err := DeleteEvent(context.Background(), client, zap.NewNop(), 9, march2025)
	require.NoError(t, err)

	assert.Equal(t, []int64{9}, client.deleted)
	assert.Len(t, client.listCalls, 1)
}

func TestFromTemplate(t *testing.T) {
	tmpl := config.RecurringTemplate{
		Name:     "chiller",
		RRule:    "FREQ=MONTHLY;COUNT=3",
		Tag:      "칠러",
		Detail:   "정기 점검",
		Owner:    "설비팀",
		SpanDays: 2,
	}

	req, err := FromTemplate(tmpl, model.CalEvent{MachineNo: "M-5", StartDate: "2025-03-01"}, 20)
	require.NoError(t, err)

	assert.Equal(t, "[칠러] 정기 점검", req.Event.Note)
	assert.Equal(t, "설비팀", req.Event.Owner)
	assert.Equal(t, "2025-03-02", req.Event.EndDate)
	assert.Equal(t, tmpl.RRule, req.RRule)
	assert.Equal(t, 20, req.Limit)
}

func TestFromTemplate_ExplicitFieldsWin(t *testing.T) {
	tmpl := config.RecurringTemplate{Name: "qc", RRule: "FREQ=WEEKLY;COUNT=2", Tag: "QC", Owner: "품질"}

	req, err := FromTemplate(tmpl, model.CalEvent{StartDate: "2025-03-01", Note: "직접 입력", Owner: "김"}, 0)
	require.NoError(t, err)

	assert.Equal(t, "직접 입력", req.Event.Note)
	assert.Equal(t, "김", req.Event.Owner)
	assert.Empty(t, req.Event.EndDate)
}
