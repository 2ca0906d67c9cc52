package tts

// Emotion shapes the cloud voice delivery.
type Emotion string

const (
	Confident Emotion = "confident"
	Helpful   Emotion = "helpful"
	Concerned Emotion = "concerned"
	Excited   Emotion = "excited"
	Calm      Emotion = "calm"
)

type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	SpeakerBoost    bool    `json:"use_speaker_boost"`
}

var emotions = map[Emotion]VoiceSettings{
	Confident: {Stability: 0.7, SimilarityBoost: 0.8, Style: 0.3},
	Helpful:   {Stability: 0.6, SimilarityBoost: 0.75, Style: 0.2},
	Concerned: {Stability: 0.5, SimilarityBoost: 0.7, Style: 0.4},
	Excited:   {Stability: 0.4, SimilarityBoost: 0.8, Style: 0.6},
	Calm:      {Stability: 0.8, SimilarityBoost: 0.7, Style: 0.1},
}

// Settings returns the voice settings for e; unknown emotions sound confident.
func Settings(e Emotion) VoiceSettings {
	s, ok := emotions[e]
	if !ok {
		s = emotions[Confident]
	}
	s.SpeakerBoost = true
	return s
}
