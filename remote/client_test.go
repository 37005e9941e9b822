package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type MockBackend struct {
	Calls   []string
	Handler map[string]http.HandlerFunc
}

func (m *MockBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.Calls = append(m.Calls, r.URL.Path)
	if h, ok := m.Handler[r.URL.Path]; ok {
		h(w, r)
		return
	}
	http.NotFound(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, backend *MockBackend) *Client {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/api/v1/")
}

func TestTranscribe(t *testing.T) {
	backend := &MockBackend{Handler: map[string]http.HandlerFunc{
		"/api/v1/stt": func(w http.ResponseWriter, r *http.Request) {
			var req TranscribeRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode request: %v", err)
			}
			if req.AudioBase64 != "UklGRg==" || req.SourceLang != "en" {
				t.Errorf("unexpected request %+v", req)
			}
			writeJSON(w, 200, TranscribeResponse{Text: "hello", DetectedLang: "en"})
		},
	}}
	c := newTestClient(t, backend)

	got, err := c.Transcribe(context.Background(), "UklGRg==", "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got.Text != "hello" || got.Lang != "en" {
		t.Errorf("got %+v", got)
	}
}

func TestTranslate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		backend := &MockBackend{Handler: map[string]http.HandlerFunc{
			"/api/v1/translate": func(w http.ResponseWriter, r *http.Request) {
				var req TranslateRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				writeJSON(w, 200, TranslateResponse{
					TranslatedText: "bonjour",
					OriginalText:   req.Text,
					TargetLang:     req.TargetLang,
				})
			},
		}}
		c := newTestClient(t, backend)

		got, err := c.Translate(context.Background(), "hello", "en", "fr")
		if err != nil {
			t.Fatalf("Translate: %v", err)
		}
		if got.Text != "bonjour" || got.Unavailable {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("endpoint missing", func(t *testing.T) {
		c := newTestClient(t, &MockBackend{})

		got, err := c.Translate(context.Background(), "hello", "en", "fr")
		if err != nil {
			t.Fatalf("Translate: %v", err)
		}
		if got.Text != "hello" || !got.Unavailable || got.TargetLang != "fr" {
			t.Errorf("got %+v, want identity fallback", got)
		}
	})

	t.Run("404 with detail is still fallback", func(t *testing.T) {
		backend := &MockBackend{Handler: map[string]http.HandlerFunc{
			"/api/v1/translate": func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 404, ErrorResponse{Detail: "Not Found"})
			},
		}}
		c := newTestClient(t, backend)

		got, err := c.Translate(context.Background(), "hello", "en", "fr")
		if err != nil || !got.Unavailable {
			t.Errorf("got %+v, %v", got, err)
		}
	})
}

func TestSynthesize(t *testing.T) {
	backend := &MockBackend{Handler: map[string]http.HandlerFunc{
		"/api/v1/tts": func(w http.ResponseWriter, r *http.Request) {
			var req SynthesizeRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Voice != "nova" {
				t.Errorf("voice = %q", req.Voice)
			}
			writeJSON(w, 200, SynthesizeResponse{AudioBase64: "QUJD", DurationMS: 0})
		},
	}}
	srv := httptest.NewServer(backend)
	defer srv.Close()
	c := NewClient(srv.URL+"/api/v1", WithVoice("nova"))

	got, err := c.Synthesize(context.Background(), "bonjour", "fr")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got.AudioBase64 != "QUJD" || got.MIMEType != MIMEMPEG {
		t.Errorf("got %+v", got)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantService string
	}{
		{
			name: "detail",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 400, ErrorResponse{Detail: "bad audio"})
			},
			wantService: "bad audio",
		},
		{
			name: "structured detail",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 422, map[string]any{"detail": []map[string]string{{"msg": "field required"}}})
			},
			wantService: `[{"msg":"field required"}]`,
		},
		{
			name: "no detail",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "malformed success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(200)
				_, _ = w.Write([]byte("{not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &MockBackend{Handler: map[string]http.HandlerFunc{"/api/v1/stt": tt.handler}}
			c := newTestClient(t, backend)

			_, err := c.Transcribe(context.Background(), "QUJD", "en")
			if err == nil {
				t.Fatal("expected error")
			}

			var se *ServiceError
			var ne *NetworkError
			switch {
			case tt.wantService != "":
				if !errors.As(err, &se) {
					t.Fatalf("error %T %v, want ServiceError", err, err)
				}
				if se.Error() != tt.wantService {
					t.Errorf("message = %q, want %q", se.Error(), tt.wantService)
				}
			default:
				if !errors.As(err, &ne) {
					t.Fatalf("error %T %v, want NetworkError", err, err)
				}
			}
		})
	}
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url)
	_, err := c.Synthesize(context.Background(), "hi", "en")

	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("error %T %v, want NetworkError", err, err)
	}
}
