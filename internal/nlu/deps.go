package nlu

import (
	"context"

	"zendaya/internal/knowledge"
	"zendaya/internal/llm"
	"zendaya/internal/search"
	"zendaya/internal/workspace"
)

// The dispatcher's collaborators. Any of them may be nil; the matching
// intents then answer that the feature is unavailable.

type Monitor interface {
	Performance(ctx context.Context) (string, error)
}

type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

type Files interface {
	Find(ctx context.Context, name string) (string, error)
	Read(path string) (string, error)
	Copy(src, dst string) error
	Move(src, dst string) error
	Delete(path string) error
	Exists(path string) bool
}

// Apps opens and closes applications and returns the message to show.
type Apps interface {
	Open(ctx context.Context, target string) (string, error)
	Close(ctx context.Context, target string) (string, error)
}

type Power interface {
	Power(ctx context.Context, action string) error
}

type Notifier interface {
	Notify(title, message string) error
}

type Mail interface {
	Unread(ctx context.Context, max int) ([]workspace.Mail, error)
}

type Calendar interface {
	Upcoming(ctx context.Context, max int) ([]workspace.Event, error)
}

// Devices forwards a smart-home command and returns the device's answer.
type Devices interface {
	Control(ctx context.Context, device, action, value string) (string, error)
}

type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

type Offline interface {
	Respond(ctx context.Context, user, query string) (knowledge.Answer, error)
	Learn(ctx context.Context, user, query, answer string) error
	LogConversation(ctx context.Context, user, message, response string) error
}

type Retriever interface {
	Context(ctx context.Context, query string) (string, error)
}

type Deps struct {
	Monitor   Monitor
	Clipboard Clipboard
	Files     Files
	Apps      Apps
	Power     Power
	Notifier  Notifier
	Mail      Mail
	Calendar  Calendar
	Devices   Devices
	Search    Searcher
	Brain     llm.Generator
	Offline   Offline
	Knowledge Retriever

	// Voices maps preset names to voice ids.
	Voices map[string]string
	// Routines configured outside the session (config file).
	Routines map[string][]string

	Name string
	User string
	// Intn picks a random index in [0,n); defaults to math/rand.
	Intn func(n int) int
}
