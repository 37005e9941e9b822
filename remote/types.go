// Package remote is the client side of the speech backend: transcription,
// translation and synthesis over JSON HTTP.
package remote

import (
	"fmt"
)

type TranscribeRequest struct {
	AudioBase64 string `json:"audio_base64"`
	SourceLang  string `json:"source_lang"`
}

type TranscribeResponse struct {
	Text         string `json:"text"`
	DetectedLang string `json:"detected_lang"`
}

type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type TranslateResponse struct {
	TranslatedText     string `json:"translated_text"`
	OriginalText       string `json:"original_text"`
	DetectedSourceLang string `json:"detected_source_lang,omitempty"`
	TargetLang         string `json:"target_lang"`
}

type SynthesizeRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
	Voice      string `json:"voice,omitempty"`
}

type SynthesizeResponse struct {
	AudioBase64 string `json:"audio_base64"`
	DurationMS  int    `json:"duration_ms"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Transcription is the recognized text of one utterance.
type Transcription struct {
	Text string
	Lang string
}

// Translation is the translated text. Unavailable marks the identity
// fallback taken when the backend has no translation endpoint; Text then
// equals the input.
type Translation struct {
	Text        string
	TargetLang  string
	Unavailable bool
}

// Synthesis is spoken audio for a translation.
type Synthesis struct {
	AudioBase64 string
	MIMEType    string
	DurationMS  int
}

// ServiceError is a failure the backend described itself.
type ServiceError struct {
	Op     string
	Status int
	Detail string
}

// Error is the backend's detail verbatim, so it can be shown to the user.
func (e *ServiceError) Error() string {
	return e.Detail
}

// NetworkError is any failure without a usable backend explanation:
// unreachable host, non-success status without detail, malformed body.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: backend returned %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
