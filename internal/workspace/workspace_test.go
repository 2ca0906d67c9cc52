package workspace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
)

func TestMailString(t *testing.T) {
	m := fromHeaders("1", &gmail.MessagePart{Headers: []*gmail.MessagePartHeader{
		{Name: "From", Value: `"Jane Doe" <jane@example.com>`},
		{Name: "Subject", Value: "Lunch?"},
	}})
	assert.Equal(t, "From Jane Doe, subject: Lunch?", m.String())

	assert.Equal(t, "From bob@example.com, subject: hi", Mail{From: "bob@example.com", Subject: "hi"}.String())
}

func TestToEvent(t *testing.T) {
	ev, err := toEvent(&calendar.Event{
		Summary: "Standup",
		Start:   &calendar.EventDateTime{DateTime: "2026-10-19T09:30:00Z"},
	})
	require.NoError(t, err)
	assert.False(t, ev.AllDay)
	assert.Equal(t, "Standup on Monday at 09:30 AM", ev.String())

	ev, err = toEvent(&calendar.Event{
		Summary: "Holiday",
		Start:   &calendar.EventDateTime{Date: "2026-10-20"},
	})
	require.NoError(t, err)
	assert.True(t, ev.AllDay)
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), ev.Start)
	assert.Equal(t, "Holiday on Tuesday, October 20 (all day)", ev.String())

	_, err = toEvent(&calendar.Event{Summary: "broken"})
	assert.Error(t, err)
}
