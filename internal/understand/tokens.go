package understand

import (
	"strings"
	"time"
)

// Token is one recognizer token with its probability.
type Token struct {
	Text  string
	P     float64
	Start time.Duration
	End   time.Duration
}

// FromTokens groups sub-word tokens into words. A token that starts with a
// space begins a new word; a word's confidence is the minimum of its
// tokens. The overall confidence is the mean word confidence.
func FromTokens(tokens []Token) *Transcription {
	var (
		words []Word
		cur   *Word
	)
	for _, tok := range tokens {
		if strings.TrimSpace(tok.Text) == "" {
			continue
		}
		if cur == nil || strings.HasPrefix(tok.Text, " ") {
			words = append(words, Word{Confidence: 1, Start: tok.Start})
			cur = &words[len(words)-1]
		}
		cur.Text += strings.TrimSpace(tok.Text)
		cur.Confidence = min(cur.Confidence, tok.P)
		cur.End = tok.End
	}

	tr := &Transcription{Words: words}
	if len(words) == 0 {
		return tr
	}
	var sum float64
	for _, w := range words {
		sum += w.Confidence
	}
	tr.Confidence = sum / float64(len(words))
	return tr
}
