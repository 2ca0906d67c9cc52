package understand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  open   chrome  ", "open chrome"},
		{"hello . how are you ?", "hello. how are you?"},
		{"done.next", "done. next"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Clean(tc.in), tc.in)
	}
}

func TestAnalyzeCleanCommand(t *testing.T) {
	a := NewEngine().Analyze("open chrome please", nil)

	assert.Equal(t, ErrNone, a.ErrorType)
	assert.Equal(t, 1.0, a.Confidence)
	assert.Empty(t, a.Corrections)
	assert.Equal(t, IntentCommand, a.Intent)
	assert.Empty(t, Clarification(a))
	assert.False(t, NeedsClarification(a))
}

func TestAnalyzeHomophone(t *testing.T) {
	a := NewEngine().Analyze("open their file", nil)

	require.Len(t, a.Errors, 1)
	assert.Equal(t, KindHomophone, a.Errors[0].Kind)
	assert.Equal(t, "their", a.Errors[0].Detected)
	assert.Equal(t, ErrSpeechRecognition, a.ErrorType)
	assert.InDelta(t, 0.9, a.Confidence, 1e-9)
	assert.Equal(t, []string{"open there file"}, a.Corrections)
	assert.Equal(t, []Clue{ClueFileManagement}, a.Clues)
}

func TestAnalyzeTechnicalTerm(t *testing.T) {
	a := NewEngine().Analyze("check my wireless connection", nil)

	assert.Equal(t, ErrDomainSpecific, a.ErrorType)
	assert.Equal(t, []string{"check my wifi connection"}, a.Corrections)
}

func TestTechnicalTermNeedsWholeWord(t *testing.T) {
	a := NewEngine().Analyze("open the application", nil)
	for _, e := range a.Errors {
		assert.NotEqual(t, "app", e.Detected)
	}
}

func TestMultiWordHomophone(t *testing.T) {
	a := NewEngine().Analyze("restart the vice now", nil)

	require.NotEmpty(t, a.Errors)
	assert.Equal(t, KindHomophone, a.Errors[0].Kind)
	assert.Equal(t, "the vice", a.Errors[0].Detected)
	assert.Equal(t, "device", a.Errors[0].Suggested)
	assert.Equal(t, ErrSpeechRecognition, a.ErrorType)
	assert.Contains(t, a.Corrections, "restart device now")
}

func TestAnalyzeLowConfidenceTranscription(t *testing.T) {
	tr := &Transcription{
		Confidence: 0.8,
		Words: []Word{
			{Text: "turn", Confidence: 0.95},
			{Text: "on", Confidence: 0.4},
			{Text: "the", Confidence: 0.3},
			{Text: "lights", Confidence: 0.5},
		},
	}

	a := NewEngine().Analyze("turn on the lights", tr)

	assert.Equal(t, ErrTranscriptionQuality, a.ErrorType)
	assert.InDelta(t, 0.5, a.Confidence, 1e-9)
	assert.Contains(t, a.Clues, ClueDeviceControl)
	assert.Equal(t, IntentCommand, a.Intent)
	assert.True(t, NeedsClarification(a))
	assert.Contains(t, Clarification(a), "trouble hearing you")
}

func TestCorrectionsCappedAndOrdered(t *testing.T) {
	a := NewEngine().Analyze("start their music and stop and raise volume", nil)

	require.Len(t, a.Corrections, 3)
	assert.Equal(t, "start there music and stop and raise volume", a.Corrections[0])
	assert.Equal(t, "open their music and stop and raise volume", a.Corrections[1])
	assert.Equal(t, "start their music and close and raise volume", a.Corrections[2])
}

func TestScoreMonotonicAndClamped(t *testing.T) {
	inputs := []*Transcription{nil, {Confidence: 0.95}, {Confidence: 0.4}}

	for _, tr := range inputs {
		for clues := 0; clues <= 3; clues++ {
			prev := Score(tr, 0, clues)
			for n := 0; n <= 15; n++ {
				s := Score(tr, n, clues)
				assert.LessOrEqual(t, s, prev)
				assert.GreaterOrEqual(t, s, 0.1)
				assert.LessOrEqual(t, s, 1.0)
				prev = s
			}
		}
	}
}

func TestScoreClueBonus(t *testing.T) {
	assert.Equal(t, 1.0, Score(nil, 0, 3))
	assert.InDelta(t, 0.9, Score(nil, 1, 2), 1e-9)
	assert.InDelta(t, 0.8, Score(nil, 2, 1), 1e-9)
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		in   string
		want Intent
	}{
		{"why?", IntentQuestion},
		{"please?", IntentRequest},
		{"hello", IntentGeneral},
		{"make coffee", IntentCommand},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NewEngine().Analyze(tc.in, nil).Intent, tc.in)
	}
}

func TestClarificationBranches(t *testing.T) {
	tests := []struct {
		name string
		a    Analysis
		want string
	}{
		{"confident", Analysis{Confidence: 0.9, ErrorType: ErrTranscriptionQuality}, ""},
		{"homophone", Analysis{Confidence: 0.7, ErrorType: ErrSpeechRecognition, Corrections: []string{"open there file"}}, "did you mean: 'open there file'?"},
		{"technical", Analysis{Confidence: 0.7, ErrorType: ErrDomainSpecific}, "technical details"},
		{"very low", Analysis{Confidence: 0.3, ErrorType: ErrGeneral}, "rephrase"},
		{"question", Analysis{Confidence: 0.7, ErrorType: ErrGeneral, Intent: IntentQuestion}, "what information"},
		{"general", Analysis{Confidence: 0.7, ErrorType: ErrNone, Intent: IntentGeneral}, "tell me more"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Clarification(tc.a)
			if tc.want == "" {
				assert.Empty(t, got)
				return
			}
			assert.Contains(t, got, tc.want)
		})
	}
}
