package model_test

import (
	"campusbook/internal/domains/booking/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     model.Status
		to       model.Status
		expected bool
	}{
		{model.StatusPending, model.StatusApproved, true},
		{model.StatusPending, model.StatusRejected, true},
		{model.StatusPending, model.StatusCancelled, true},
		{model.StatusApproved, model.StatusCancelled, true},
		{model.StatusApproved, model.StatusRejected, false},
		{model.StatusApproved, model.StatusApproved, false},
		{model.StatusRejected, model.StatusApproved, false},
		{model.StatusRejected, model.StatusCancelled, false},
		{model.StatusCancelled, model.StatusCancelled, false},
		{model.StatusCancelled, model.StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, model.StatusPending.IsTerminal())
	assert.False(t, model.StatusApproved.IsTerminal())
	assert.True(t, model.StatusRejected.IsTerminal())
	assert.True(t, model.StatusCancelled.IsTerminal())

	assert.True(t, model.StatusPending.Reserves())
	assert.True(t, model.StatusApproved.Reserves())
	assert.False(t, model.StatusCancelled.Reserves())
}

func TestSources(t *testing.T) {
	assert.Equal(t, []model.Status{model.StatusPending}, model.Sources(model.StatusApproved))
	assert.Equal(t, []model.Status{model.StatusPending, model.StatusApproved}, model.Sources(model.StatusCancelled))
	assert.Empty(t, model.Sources(model.StatusPending))
}

func TestParseStatus(t *testing.T) {
	status, err := model.ParseStatus("approved")
	assert.NoError(t, err)
	assert.Equal(t, model.StatusApproved, status)

	_, err = model.ParseStatus("confirmed")
	assert.Error(t, err)
}

func TestClock(t *testing.T) {
	clock, err := model.ParseClock("09:30")
	assert.NoError(t, err)
	assert.Equal(t, model.NewClock(9, 30), clock)
	assert.Equal(t, "09:30", clock.String())

	clock, err = model.ParseClock("23:05:59")
	assert.NoError(t, err)
	assert.Equal(t, "23:05", clock.String())

	_, err = model.ParseClock("25:00")
	assert.Error(t, err)

	value, err := model.NewClock(10, 0).Value()
	assert.NoError(t, err)
	assert.Equal(t, "10:00:00", value)

	var scanned model.Clock
	assert.NoError(t, scanned.Scan([]byte("11:15:00")))
	assert.Equal(t, model.NewClock(11, 15), scanned)
	assert.NoError(t, scanned.Scan(time.Date(0, 1, 1, 8, 45, 0, 0, time.UTC)))
	assert.Equal(t, model.NewClock(8, 45), scanned)
	assert.Error(t, scanned.Scan(42))
}

func TestWindow_Overlaps(t *testing.T) {
	day := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	existing := model.Window{Date: day, Start: model.NewClock(9, 0), End: model.NewClock(11, 0)}

	tests := []struct {
		name     string
		window   model.Window
		expected bool
	}{
		{"partial overlap", model.Window{Date: day, Start: model.NewClock(10, 0), End: model.NewClock(12, 0)}, true},
		{"adjacent after", model.Window{Date: day, Start: model.NewClock(11, 0), End: model.NewClock(12, 0)}, false},
		{"adjacent before", model.Window{Date: day, Start: model.NewClock(8, 0), End: model.NewClock(9, 0)}, false},
		{"contained", model.Window{Date: day, Start: model.NewClock(9, 30), End: model.NewClock(10, 0)}, true},
		{"other day", model.Window{Date: day.AddDate(0, 0, 1), Start: model.NewClock(9, 0), End: model.NewClock(11, 0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, existing.Overlaps(tt.window))
			assert.Equal(t, tt.expected, tt.window.Overlaps(existing))
		})
	}

	assert.False(t, model.Window{Date: day, Start: model.NewClock(12, 0), End: model.NewClock(12, 0)}.WellOrdered())
}
