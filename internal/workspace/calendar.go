package workspace

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type Event struct {
	Summary string
	Start   time.Time
	AllDay  bool
}

func (e Event) String() string {
	if e.AllDay {
		return fmt.Sprintf("%s on %s (all day)", e.Summary, e.Start.Format("Monday, January 2"))
	}
	return fmt.Sprintf("%s on %s", e.Summary, e.Start.Format("Monday at 03:04 PM"))
}

type Calendar struct {
	svc *calendar.Service
	now func() time.Time
}

func NewCalendar(ctx context.Context, ts oauth2.TokenSource) (*Calendar, error) {
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	return &Calendar{svc: svc, now: time.Now}, nil
}

// Upcoming lists the next max events on the primary calendar.
func (c *Calendar) Upcoming(ctx context.Context, max int) ([]Event, error) {
	res, err := c.svc.Events.List("primary").
		TimeMin(c.now().UTC().Format(time.RFC3339)).
		MaxResults(int64(max)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]Event, 0, len(res.Items))
	for _, item := range res.Items {
		ev, err := toEvent(item)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func toEvent(item *calendar.Event) (Event, error) {
	ev := Event{Summary: item.Summary}
	if item.Start == nil {
		return ev, fmt.Errorf("event %q has no start", item.Summary)
	}

	var err error
	if item.Start.DateTime != "" {
		ev.Start, err = time.Parse(time.RFC3339, item.Start.DateTime)
	} else {
		ev.AllDay = true
		ev.Start, err = time.Parse(time.DateOnly, item.Start.Date)
	}
	if err != nil {
		return ev, fmt.Errorf("parse start of %q: %w", item.Summary, err)
	}
	return ev, nil
}
