// Package console is a browser front end for a running pipeline: a page
// with live events over a websocket and JSON command endpoints.
package console

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"node.town/vaani/history"
	"node.town/vaani/lang"
	"node.town/vaani/pipeline"
)

//go:embed static/*
var staticFiles embed.FS

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Controller is the part of the orchestrator the console drives.
type Controller interface {
	Dispatch(ctx context.Context, cmd pipeline.Command) error
	Snapshot() pipeline.Snapshot
	History() []history.Entry
	Subscribe(obs pipeline.Observer) func()
}

type Server struct {
	ctrl        Controller
	bus         *EventBus
	logger      *log.Logger
	router      chi.Router
	unsubscribe func()
	upgrader    websocket.Upgrader
}

func New(ctrl Controller, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Server{
		ctrl:   ctrl,
		bus:    NewEventBus(200),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
		},
	}
	s.unsubscribe = ctrl.Subscribe(s.bus.Publish)
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Close detaches the server from the pipeline.
func (s *Server) Close() {
	s.unsubscribe()
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to create static filesystem: %v", err))
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Get("/", s.handlePage)
	r.Get("/ws", s.handleWS)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/history", s.handleHistory)
		r.Post("/commands", s.handleCommand)
	})

	return r
}

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

	s.logger.Info("console", "url", "http://"+addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if err := Page(s.ctrl.Snapshot(), lang.All()).Render(r.Context(), w); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

type stateResponse struct {
	pipeline.Snapshot
	Seq     uint64          `json:"seq"`
	History []history.Entry `json:"history"`
	Catalog []lang.Language `json:"catalog"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	events, _ := s.bus.Since(0)
	var seq uint64
	if len(events) > 0 {
		seq = events[len(events)-1].Seq
	}

	writeJSON(w, http.StatusOK, stateResponse{
		Snapshot: s.ctrl.Snapshot(),
		Seq:      seq,
		History:  s.ctrl.History(),
		Catalog:  lang.All(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.History())
}

type commandRequest struct {
	Command string `json:"command"`
	Side    string `json:"side,omitempty"`
	Code    string `json:"code,omitempty"`
}

// handleCommand runs capture commands in the background, since stopping
// waits for all three remote stages; their outcome arrives as events.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}

	cmd, err := pipeline.ParseCommand(req.Command, req.Side, req.Code)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx := context.WithoutCancel(r.Context())

	switch cmd.(type) {
	case pipeline.StartCapture, pipeline.StopCapture, pipeline.ToggleCapture:
		go func() {
			if err := s.ctrl.Dispatch(ctx, cmd); err != nil {
				s.logger.Debug("command", "name", cmd.Name(), "error", err)
			}
		}()
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if err := s.ctrl.Dispatch(ctx, cmd); err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, pipeline.ErrNothingToReplay) {
			status = http.StatusConflict
		}
		writeDetail(w, status, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleWS streams events after ?since=N, then every new one.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	since, _ := strconv.ParseUint(r.URL.Query().Get("since"), 10, 64)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debug("websocket closed", "error", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		events, changed := s.bus.Since(since)
		for _, ev := range events {
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
			since = ev.Seq
		}

		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-changed:
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
