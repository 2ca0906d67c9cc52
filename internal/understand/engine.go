// Package understand scores how reliably an utterance was heard and
// understood, and proposes corrections or a clarifying question.
package understand

import (
	"math"
	"regexp"
	"slices"
	"strings"
	"time"
)

const (
	// LowWordConfidence marks a transcribed word as unreliable.
	LowWordConfidence = 0.6
	// ClarifyBelow is the confidence under which the assistant asks instead
	// of acting.
	ClarifyBelow = 0.6
	// ClarifyAbove is the confidence over which no clarification is ever
	// produced.
	ClarifyAbove = 0.8

	errorPenalty = 0.1
	clueBonus    = 0.1
	minScore     = 0.1
	maxScore     = 1.0
	maxSuggested = 3
)

type ErrorKind string

const (
	KindHomophone     ErrorKind = "homophone"
	KindTechnicalTerm ErrorKind = "technical_term"
	KindLowConfidence ErrorKind = "low_confidence"
)

type ErrorType string

const (
	ErrNone                 ErrorType = "none"
	ErrTranscriptionQuality ErrorType = "transcription_quality"
	ErrSpeechRecognition    ErrorType = "speech_recognition"
	ErrDomainSpecific       ErrorType = "domain_specific"
	ErrGeneral              ErrorType = "general"
)

// Word is one recognized word with the recognizer's confidence.
type Word struct {
	Text       string        `json:"word"`
	Confidence float64       `json:"confidence"`
	Start      time.Duration `json:"start_time"`
	End        time.Duration `json:"end_time"`
}

// Transcription is the optional metadata that accompanies spoken input.
// Confidence <= 0 means the recognizer reported no overall score.
type Transcription struct {
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"word_details"`
}

// Lexical is one suspected recognition error.
type Lexical struct {
	Kind       ErrorKind
	Position   int
	Detected   string
	Suggested  string
	Confidence float64
	Start, End time.Duration
}

type Analysis struct {
	Text        string
	ErrorType   ErrorType
	Confidence  float64
	Errors      []Lexical
	Corrections []string
	Clues       []Clue
	Intent      Intent
}

type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Analyze cleans text, looks for likely recognition errors and scores the
// overall confidence. tr may be nil for typed input.
func (e *Engine) Analyze(text string, tr *Transcription) Analysis {
	cleaned := Clean(text)
	lower := strings.ToLower(cleaned)

	errs := detectErrors(lower, tr)
	clues := extractClues(lower)

	return Analysis{
		Text:        cleaned,
		ErrorType:   classifyErrors(errs),
		Confidence:  Score(tr, len(errs), len(clues)),
		Errors:      errs,
		Corrections: corrections(cleaned, errs, clues),
		Clues:       clues,
		Intent:      classifyIntent(lower, clues),
	}
}

var (
	spacesRe      = regexp.MustCompile(`\s+`)
	spaceBeforeRe = regexp.MustCompile(`\s+([.!?])`)
	afterPunctRe  = regexp.MustCompile(`([.!?])\s*([a-zA-Z])`)
)

func Clean(text string) string {
	text = spacesRe.ReplaceAllString(strings.TrimSpace(text), " ")
	text = spaceBeforeRe.ReplaceAllString(text, "$1")
	text = afterPunctRe.ReplaceAllString(text, "$1 $2")
	return text
}

// Score is the overall confidence for a given number of detected errors
// and context clues. It never increases with errors and stays in [0.1, 1].
func Score(tr *Transcription, errors, clues int) float64 {
	base := 1.0
	if tr != nil && tr.Confidence > 0 {
		base *= tr.Confidence
	}
	base -= float64(errors) * errorPenalty
	if clues >= 2 {
		base += clueBonus
	}
	return math.Max(minScore, math.Min(maxScore, base))
}

func detectErrors(lower string, tr *Transcription) []Lexical {
	var errs []Lexical

	for i, w := range strings.Fields(lower) {
		w = strings.Trim(w, ",;:.!?\"")
		for _, h := range homophones {
			if slices.Contains(h.variants, w) {
				errs = append(errs, Lexical{
					Kind:       KindHomophone,
					Position:   i,
					Detected:   w,
					Suggested:  h.canonical,
					Confidence: 0.7,
				})
			}
		}
	}

	// Multi-word variants can't be seen one field at a time.
	for _, h := range homophones {
		for _, v := range h.variants {
			if strings.Contains(v, " ") && containsPhrase(lower, v) {
				errs = append(errs, Lexical{
					Kind:       KindHomophone,
					Position:   -1,
					Detected:   v,
					Suggested:  h.canonical,
					Confidence: 0.7,
				})
			}
		}
	}

	for _, term := range technicalTerms {
		for _, v := range term.variants {
			if containsPhrase(lower, v) {
				errs = append(errs, Lexical{
					Kind:       KindTechnicalTerm,
					Position:   -1,
					Detected:   v,
					Suggested:  term.canonical,
					Confidence: 0.8,
				})
			}
		}
	}

	if tr != nil {
		for _, w := range tr.Words {
			if w.Confidence < LowWordConfidence {
				errs = append(errs, Lexical{
					Kind:       KindLowConfidence,
					Position:   -1,
					Detected:   w.Text,
					Confidence: w.Confidence,
					Start:      w.Start,
					End:        w.End,
				})
			}
		}
	}

	return errs
}

func extractClues(lower string) []Clue {
	var clues []Clue
	for _, cp := range contextPatterns {
		for _, re := range cp.patterns {
			if re.MatchString(lower) {
				clues = append(clues, cp.clue)
				break
			}
		}
	}
	return clues
}

func classifyIntent(lower string, clues []Clue) Intent {
	scores := make(map[Intent]float64, len(intentClasses))
	for _, ic := range intentClasses {
		for _, re := range ic.patterns {
			if re.MatchString(lower) {
				scores[ic.intent] += ic.boost
			}
		}
	}

	if slices.Contains(clues, ClueDeviceControl) {
		scores[IntentCommand] += 0.3
	}
	if slices.Contains(clues, ClueSystemInfo) {
		scores[IntentQuestion] += 0.2
	}

	best, bestScore := IntentGeneral, 0.0
	for _, ic := range intentClasses {
		if s := scores[ic.intent]; s > bestScore {
			best, bestScore = ic.intent, s
		}
	}
	return best
}

func corrections(text string, errs []Lexical, clues []Clue) []string {
	if len(errs) == 0 {
		return nil
	}

	var out []string
	add := func(s string) {
		if s != text && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}

	for _, e := range errs {
		if e.Kind == KindHomophone || e.Kind == KindTechnicalTerm {
			add(replacePhrase(text, e.Detected, e.Suggested))
		}
	}

	if slices.Contains(clues, ClueDeviceControl) {
		lower := strings.ToLower(text)
		for _, cv := range commandVariations {
			for _, v := range cv.variants {
				if strings.Contains(lower, v) && !strings.Contains(lower, cv.canonical) {
					add(replacePhrase(text, v, cv.canonical))
				}
			}
		}
	}

	if len(out) > maxSuggested {
		out = out[:maxSuggested]
	}
	return out
}

func classifyErrors(errs []Lexical) ErrorType {
	if len(errs) == 0 {
		return ErrNone
	}

	has := func(k ErrorKind) bool {
		return slices.ContainsFunc(errs, func(e Lexical) bool { return e.Kind == k })
	}

	switch {
	case has(KindLowConfidence):
		return ErrTranscriptionQuality
	case has(KindHomophone):
		return ErrSpeechRecognition
	case has(KindTechnicalTerm):
		return ErrDomainSpecific
	default:
		return ErrGeneral
	}
}

func phraseRe(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
}

func containsPhrase(lower, phrase string) bool {
	return phraseRe(phrase).MatchString(lower)
}

func replacePhrase(text, phrase, with string) string {
	return phraseRe(phrase).ReplaceAllLiteralString(text, with)
}
