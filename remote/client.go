package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// MIMEMPEG tags synthesized audio.
const MIMEMPEG = "audio/mpeg"

const maxErrorBody = 64 << 10

// Client talks to a backend rooted at BaseURL, e.g.
// http://127.0.0.1:8000/api/v1. It never retries.
type Client struct {
	baseURL string
	http    *http.Client
	voice   string
	logger  *log.Logger
}

type Option func(*Client)

// WithTimeout bounds each request. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithVoice asks the backend for a specific synthesis voice.
func WithVoice(voice string) Option {
	return func(c *Client) {
		c.voice = voice
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Transcribe(ctx context.Context, audioBase64, sourceLang string) (Transcription, error) {
	var resp TranscribeResponse
	_, err := c.post(ctx, "transcribe", "/stt", TranscribeRequest{
		AudioBase64: audioBase64,
		SourceLang:  sourceLang,
	}, &resp)
	if err != nil {
		return Transcription{}, err
	}

	lang := resp.DetectedLang
	if lang == "" {
		lang = sourceLang
	}
	return Transcription{Text: resp.Text, Lang: lang}, nil
}

// Translate returns the identity translation, flagged Unavailable, when the
// backend answers 404.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (Translation, error) {
	var resp TranslateResponse
	status, err := c.post(ctx, "translate", "/translate", TranslateRequest{
		Text:       text,
		SourceLang: sourceLang,
		TargetLang: targetLang,
	}, &resp)
	if status == http.StatusNotFound {
		c.logger.Warn("translation endpoint not found, passing text through", "target", targetLang)
		return Translation{Text: text, TargetLang: targetLang, Unavailable: true}, nil
	}
	if err != nil {
		return Translation{}, err
	}

	return Translation{Text: resp.TranslatedText, TargetLang: targetLang}, nil
}

func (c *Client) Synthesize(ctx context.Context, text, targetLang string) (Synthesis, error) {
	var resp SynthesizeResponse
	_, err := c.post(ctx, "synthesize", "/tts", SynthesizeRequest{
		Text:       text,
		TargetLang: targetLang,
		Voice:      c.voice,
	}, &resp)
	if err != nil {
		return Synthesis{}, err
	}
	if resp.AudioBase64 == "" {
		return Synthesis{}, &NetworkError{Op: "synthesize", Err: errors.New("empty audio in response")}
	}

	return Synthesis{
		AudioBase64: resp.AudioBase64,
		MIMEType:    MIMEMPEG,
		DurationMS:  resp.DurationMS,
	}, nil
}

// post sends body as JSON and decodes a success response into out. The
// status is returned even on failure so callers can special-case it.
func (c *Client) post(ctx context.Context, op, path string, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("%s: encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug(op, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if detail := errorDetail(raw); detail != "" {
			return resp.StatusCode, &ServiceError{Op: op, Status: resp.StatusCode, Detail: detail}
		}
		return resp.StatusCode, &NetworkError{
			Op:     op,
			Status: resp.StatusCode,
			Err:    errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, &NetworkError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	return resp.StatusCode, nil
}

// errorDetail extracts "detail" from an error body. Validation errors carry
// a structured detail; that is passed on as raw JSON.
func errorDetail(raw []byte) string {
	var e struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &e); err != nil || len(e.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(e.Detail, &s); err == nil {
		return s
	}
	if string(e.Detail) == "null" {
		return ""
	}
	return string(e.Detail)
}
