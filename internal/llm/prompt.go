// Package llm builds prompts from the session memory and sends them to a
// generative model.
package llm

import (
	"context"
	"fmt"
	"strings"

	"zendaya/internal/session"
)

const (
	jokesInPrompt     = 3
	recentInPrompt    = 6
	summariesInPrompt = 3
)

// Generator completes a prompt.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// Prompt is a system instruction plus the ordered blocks of the user turn.
type Prompt struct {
	System string
	Blocks []string
	User   string
	// Persona, when set, ends the body with "<Persona>:" so the model
	// answers in character.
	Persona string
}

// Body renders everything except the system instruction.
func (p Prompt) Body() string {
	var sb strings.Builder
	for _, b := range p.Blocks {
		if b == "" {
			continue
		}
		sb.WriteString(b)
		sb.WriteString("\n\n")
	}
	if p.Persona == "" {
		sb.WriteString(p.User)
		return sb.String()
	}
	fmt.Fprintf(&sb, "User: %s\n%s:", p.User, p.Persona)
	return sb.String()
}

func SystemPrompt(persona string) string {
	return fmt.Sprintf("You are %s, a brilliant, witty, confident, and slightly teasing AI assistant, inspired by characters like Shuri from Black Panther. "+
		"Speak like a friendly genius, keeping answers concise (<6 sentences) when possible. "+
		"Use provided search snippets to directly answer questions and provide up-to-date information. "+
		"Do not hallucinate or make up facts. Add occasional playful quips. "+
		"When a user asks you to perform a task like opening an app, respond with a short confirmation message, not a long conversational response. "+
		"If 'professional_mode' is active, your tone must be strictly formal, direct, and professional. Omit all quips, teasing, and persona-driven language.", persona)
}

// ChatPrompt assembles a conversational prompt from the session memory.
// search and knowledge are optional context blocks.
func ChatPrompt(s *session.Session, persona, user, search, knowledge string) Prompt {
	p := Prompt{
		System:  SystemPrompt(persona),
		User:    user,
		Persona: persona,
	}

	if s != nil {
		p.Blocks = append(p.Blocks, memory(s))
	}
	if knowledge != "" {
		p.Blocks = append(p.Blocks, "Relevant knowledge:\n"+knowledge)
	}
	if search != "" {
		p.Blocks = append(p.Blocks, "Search snippets:\n"+search)
	}
	return p
}

func memory(s *session.Session) string {
	var bits []string

	if s.ProfessionalMode {
		bits = append(bits, "IMPORTANT: Professional mode is active. Your response must be formal.")
	}
	if s.UserName != "" {
		bits = append(bits, fmt.Sprintf("The user's name is %s.", s.UserName))
	}
	if n := len(s.InsideJokes); n > 0 {
		bits = append(bits, "Inside jokes: "+strings.Join(s.InsideJokes[max(0, n-jokesInPrompt):], ", "))
	}
	if recent := s.Recent(recentInPrompt); len(recent) > 0 {
		lines := make([]string, len(recent))
		for i, m := range recent {
			lines[i] = fmt.Sprintf("%s: %s", m.Role, m.Text)
		}
		bits = append(bits, "Recent context:\n"+strings.Join(lines, "\n"))
	}
	if n := len(s.Summaries); n > 0 {
		bits = append(bits, "Summarized context:\n"+strings.Join(s.Summaries[max(0, n-summariesInPrompt):], "\n"))
	}

	return strings.Join(bits, "\n")
}

// SummarizeText asks for a summary of a document.
func SummarizeText(content string) Prompt {
	return Prompt{
		System: "You summarize documents for a busy reader.",
		User:   "Summarize this:\n\n" + content,
	}
}

// SummarizeConversation asks for bullet points capturing preferences and
// context from msgs.
func SummarizeConversation(msgs []session.Message) Prompt {
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = fmt.Sprintf("%s: %s", m.Role, m.Text)
	}
	return Prompt{
		System: "Summarize this conversation in short bullets, keeping key preferences and context. Omit small talk.",
		User:   strings.Join(lines, "\n"),
	}
}
