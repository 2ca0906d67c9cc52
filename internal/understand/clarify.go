package understand

import "fmt"

var intentPrompts = map[Intent]string{
	IntentCommand:  "I understand you want me to do something. Could you tell me specifically what action you'd like me to take?",
	IntentQuestion: "I see you're asking about something. Could you clarify what information you're looking for?",
	IntentRequest:  "I'd be happy to help with that. Could you provide a bit more detail about what you need?",
}

const fallbackPrompt = "I want to make sure I understand correctly. Could you tell me more about what you need?"

// Clarification returns the question to ask back, or "" when the analysis
// is confident enough to act on.
func Clarification(a Analysis) string {
	if a.Confidence > ClarifyAbove {
		return ""
	}

	switch {
	case a.ErrorType == ErrTranscriptionQuality:
		return "I'm having trouble hearing you clearly. Could you please speak a bit louder or slower?"
	case a.ErrorType == ErrSpeechRecognition && len(a.Corrections) > 0:
		return fmt.Sprintf("I think I heard you correctly, but just to be sure - did you mean: '%s'?", a.Corrections[0])
	case a.ErrorType == ErrDomainSpecific:
		return "I caught most of that, but I want to make sure I understand the technical details correctly. Could you repeat the specific terms?"
	case a.Confidence < 0.5:
		return "I want to make sure I help you with exactly what you need. Could you rephrase that for me?"
	}

	if p, ok := intentPrompts[a.Intent]; ok {
		return p
	}
	return fallbackPrompt
}

// NeedsClarification reports whether the assistant should ask instead of
// acting on the utterance.
func NeedsClarification(a Analysis) bool {
	return a.Confidence < ClarifyBelow && Clarification(a) != ""
}
