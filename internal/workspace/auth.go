// Package workspace reads unread mail and upcoming events from Google
// Workspace for the signed-in user.
package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
)

var Scopes = []string{gmail.GmailReadonlyScope, calendar.CalendarReadonlyScope}

// TokenSource builds a refreshing token source from an OAuth client file
// and a previously authorized token file. Obtaining the first token is
// left to the user.
func TokenSource(ctx context.Context, credentialsPath, tokenPath string, httpClient *http.Client) (oauth2.TokenSource, error) {
	creds, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(creds, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	raw, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}
	return cfg.TokenSource(ctx, &tok), nil
}
