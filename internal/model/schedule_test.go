package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowOverlapsHalfOpen(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2030, 1, 1, h, 0, 0, 0, time.UTC) }
	existing := NewWindow(at(10), 120)

	assert.True(t, existing.Overlaps(NewWindow(at(11), 120)))
	assert.False(t, existing.Overlaps(NewWindow(at(12), 60)))
	assert.False(t, existing.Overlaps(NewWindow(at(8), 120)))
	assert.True(t, existing.Overlaps(NewWindow(at(9), 240)))
	assert.True(t, NewWindow(at(11), 120).Overlaps(existing))
}

func TestScheduleFilter(t *testing.T) {
	bid := uint64(4)
	s := Schedule{StaffID: 2, BookingID: &bid, StartAt: time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC), DurationMinutes: 60}
	assert.True(t, ScheduleFilter{StaffID: 2, BookingID: 4}.Matches(s))
	assert.False(t, ScheduleFilter{BookingID: 5}.Matches(s))

	end := s.StartAt.Add(time.Hour)
	assert.False(t, ScheduleFilter{From: &end}.Matches(s))
	assert.True(t, ScheduleFilter{To: &end}.Matches(s))
	assert.True(t, ScheduleStatus("Busy").Blocking())
	assert.False(t, ScheduleAvailable.Blocking())
}
