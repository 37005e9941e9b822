package backend

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"node.town/vaani/etc"
	"node.town/vaani/lang"
	"node.town/vaani/remote"
)

const maxBody = 32 << 20

type Options struct {
	Recognizer  Recognizer
	Translator  Translator // nil leaves /translate unmounted
	Synthesizer Synthesizer
	Version     string
	Logger      *log.Logger
}

type Server struct {
	recognizer  Recognizer
	translator  Translator
	synthesizer Synthesizer
	version     string
	logger      *log.Logger
	router      chi.Router
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		recognizer:  opts.Recognizer,
		translator:  opts.Translator,
		synthesizer: opts.Synthesizer,
		version:     opts.Version,
		logger:      opts.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(allowCORS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/stt", s.handleSTT)
		if s.translator != nil {
			r.Post("/translate", s.handleTranslate)
		}
		r.Post("/tts", s.handleTTS)
	})

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		component := RoutesList(r.Routes())
		if err := component.Render(req.Context(), w); err != nil {
			http.Error(w, "Failed to render routes list", http.StatusInternalServerError)
		}
	})

	return r
}

// ListenAndServe runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	s.logger.Info("http", "addr", addr, "translate", s.translator != nil)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Service: "vaani-backend",
		Version: s.version,
	})
}

func (s *Server) handleSTT(w http.ResponseWriter, r *http.Request) {
	var req remote.TranscribeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := lang.Validate(req.SourceLang); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "source_lang: "+err.Error())
		return
	}
	audio, err := DecodeAudio(req.AudioBase64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if s.recognizer == nil {
		writeDetail(w, http.StatusServiceUnavailable, "Speech recognition is not configured")
		return
	}

	s.logger.Info("stt", "lang", req.SourceLang, "bytes", len(audio))
	text, err := s.recognizer.Transcribe(r.Context(), audio, req.SourceLang)
	if err != nil {
		s.logger.Error("stt", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error during transcription")
		return
	}

	writeJSON(w, http.StatusOK, remote.TranscribeResponse{
		Text:         text,
		DetectedLang: req.SourceLang,
	})
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req remote.TranslateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "text: must not be empty")
		return
	}
	if err := (lang.Pair{Source: req.SourceLang, Target: req.TargetLang}).Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.logger.Info("translate", "text", etc.Truncate(req.Text, 15), "from", req.SourceLang, "to", req.TargetLang)
	translated, err := s.translator.Translate(r.Context(), req.Text, req.SourceLang, req.TargetLang)
	if err != nil {
		s.logger.Error("translate", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Translation failed")
		return
	}

	writeJSON(w, http.StatusOK, remote.TranslateResponse{
		TranslatedText:     translated,
		OriginalText:       req.Text,
		DetectedSourceLang: req.SourceLang,
		TargetLang:         req.TargetLang,
	})
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req remote.SynthesizeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "text: must not be empty")
		return
	}
	if err := lang.Validate(req.TargetLang); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "target_lang: "+err.Error())
		return
	}
	if s.synthesizer == nil {
		writeDetail(w, http.StatusServiceUnavailable, "Speech synthesis is not configured")
		return
	}

	s.logger.Info("tts", "lang", req.TargetLang, "text", etc.Truncate(req.Text, 15))
	audio, err := s.synthesizer.Synthesize(r.Context(), req.Text, req.TargetLang, req.Voice)
	if err != nil {
		s.logger.Error("tts", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error during synthesis")
		return
	}

	writeJSON(w, http.StatusOK, remote.SynthesizeResponse{
		AudioBase64: base64.StdEncoding.EncodeToString(audio),
		DurationMS:  DurationMS(audio),
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, remote.ErrorResponse{Detail: detail})
}

func allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
