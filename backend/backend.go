// Package backend serves the speech API the client talks to: recognition,
// translation and synthesis behind /api/v1.
package backend

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

type Recognizer interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Synthesizer returns MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language, voice string) ([]byte, error)
}

// DurationMS estimates playback length from the encoded size, assuming
// 128 kbit/s MP3.
func DurationMS(audio []byte) int {
	return len(audio) / 16
}

// DecodeAudio accepts plain base64 or a data URL, with or without padding.
func DecodeAudio(s string) ([]byte, error) {
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	if pad := len(s) % 4; pad != 0 {
		s += strings.Repeat("=", 4-pad)
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("audio_base64: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("audio_base64: empty audio")
	}
	return data, nil
}
