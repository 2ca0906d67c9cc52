package workspace

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

type Mail struct {
	ID      string
	From    string
	Subject string
}

// String renders the mail the way it is read out: sender name without
// the address.
func (m Mail) String() string {
	from := m.From
	if i := strings.Index(from, "<"); i > 0 {
		from = from[:i]
	}
	return fmt.Sprintf("From %s, subject: %s", strings.Trim(strings.TrimSpace(from), `"`), m.Subject)
}

type Gmail struct {
	svc *gmail.Service
}

func NewGmail(ctx context.Context, ts oauth2.TokenSource) (*Gmail, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}
	return &Gmail{svc: svc}, nil
}

// Unread lists up to max unread inbox messages, newest first.
func (g *Gmail) Unread(ctx context.Context, max int) ([]Mail, error) {
	list, err := g.svc.Users.Messages.List("me").
		LabelIds("INBOX", "UNREAD").
		MaxResults(int64(max)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	mails := make([]Mail, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := g.svc.Users.Messages.Get("me", ref.Id).
			Format("metadata").
			MetadataHeaders("Subject", "From").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("get message %s: %w", ref.Id, err)
		}
		mails = append(mails, fromHeaders(msg.Id, msg.Payload))
	}
	return mails, nil
}

func fromHeaders(id string, part *gmail.MessagePart) Mail {
	m := Mail{ID: id}
	if part == nil {
		return m
	}
	for _, h := range part.Headers {
		switch h.Name {
		case "From":
			m.From = h.Value
		case "Subject":
			m.Subject = h.Value
		}
	}
	return m
}
