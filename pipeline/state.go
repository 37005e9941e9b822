// Package pipeline drives one push-to-talk session: capture, then
// transcribe, translate and synthesize in strict order, then playback.
package pipeline

import (
	"time"

	"node.town/vaani/lang"
)

type State string

const (
	Idle       State = "idle"
	Recording  State = "recording"
	Processing State = "processing"
	Ready      State = "ready"
	Error      State = "error"
)

// Busy reports whether a pipeline is in flight.
func (s State) Busy() bool {
	return s == Recording || s == Processing
}

type EventType string

const (
	EventState       EventType = "state"
	EventTranscript  EventType = "transcript"
	EventTranslation EventType = "translation"
	EventPlayback    EventType = "playback"
	EventError       EventType = "error"
	EventLanguages   EventType = "languages"
	EventHistory     EventType = "history"
)

// Event is what observers see. Only the fields relevant to Type are set.
type Event struct {
	Seq         uint64    `json:"seq"`
	Time        time.Time `json:"time"`
	Type        EventType `json:"type"`
	Utterance   string    `json:"utterance,omitempty"`
	State       State     `json:"state,omitempty"`
	Text        string    `json:"text,omitempty"`
	Lang        string    `json:"lang,omitempty"`
	Fallback    bool      `json:"fallback,omitempty"`
	AudioBase64 string    `json:"audio_base64,omitempty"`
	MIMEType    string    `json:"mime_type,omitempty"`
	Message     string    `json:"message,omitempty"`
	Source      string    `json:"source,omitempty"`
	Target      string    `json:"target,omitempty"`
}

// Observer is called for every event, in order, never concurrently.
type Observer func(Event)

// Snapshot is the session as a presentation layer needs it on attach.
type Snapshot struct {
	State       State     `json:"state"`
	Languages   lang.Pair `json:"languages"`
	Utterance   string    `json:"utterance,omitempty"`
	Transcript  string    `json:"transcript,omitempty"`
	Translation string    `json:"translation,omitempty"`
	Message     string    `json:"message,omitempty"`
	CanReplay   bool      `json:"can_replay"`
}
