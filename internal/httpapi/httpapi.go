// Package httpapi is the thin shell around the engine: a health/status
// surface, a websocket stream of engine events, and a small JSON command
// forwarder. It is not a UI — it exists so the binary can embed the
// engine and forward commands to it.
package httpapi

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/lumenstage/lumen/internal/command"
	"github.com/lumenstage/lumen/internal/dmx"
	"github.com/lumenstage/lumen/internal/engine"
	"github.com/lumenstage/lumen/internal/patch"
	"github.com/lumenstage/lumen/internal/show"
)

// Server serves the engine's HTTP surface.
type Server struct {
	engine  *engine.Engine
	version string

	upgrader websocket.Upgrader
}

// New returns a Server over eng.
func New(eng *engine.Engine, version string) *Server {
	return &Server{
		engine:  eng,
		version: version,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Router builds the chi router with CORS configured for origin.
func (s *Server) Router(origin string) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{origin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	})
	router.Use(corsMiddleware.Handler)

	router.Get("/health", s.handleHealth)
	router.Get("/events", s.handleEvents)
	router.Post("/commands", s.handleCommand)
	return router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	response := fmt.Sprintf(`{
  "status": "ok",
  "timestamp": "%s",
  "version": "%s"
}`, time.Now().UTC().Format(time.RFC3339), s.version)
	_, _ = w.Write([]byte(response))
}

// handleEvents upgrades to a websocket and streams engine events until
// the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("httpapi: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	sub := s.engine.Events().Subscribe(64)
	defer s.engine.Events().Unsubscribe(sub)

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Channel:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// commandRequest is the JSON envelope of a forwarded command.
type commandRequest struct {
	Type      string  `json:"type"`
	Executor  string  `json:"executor,omitempty"`
	Level     float64 `json:"level,omitempty"`
	FID       uint32  `json:"fid,omitempty"`
	Attribute string  `json:"attribute,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Universe  int     `json:"universe,omitempty"`
	Channel   int     `json:"channel,omitempty"`
	Byte      int     `json:"byte,omitempty"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd, err := req.toCommand()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.engine.Execute(r.Context(), cmd); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (req commandRequest) toCommand() (command.Command, error) {
	switch req.Type {
	case "go":
		id, err := parseExecutorID(req.Executor)
		if err != nil {
			return nil, err
		}
		return command.Go{ID: id}, nil
	case "fader_level":
		id, err := parseExecutorID(req.Executor)
		if err != nil {
			return nil, err
		}
		return command.ExecutorFaderSetLevel{ID: id, Level: req.Level}, nil
	case "select":
		return command.Select{FID: patch.FixtureID(req.FID)}, nil
	case "clear_selection":
		return command.ClearSelection{}, nil
	case "programmer_set_attribute":
		return command.ProgrammerSetAttribute{
			FID:       patch.FixtureID(req.FID),
			Attribute: patch.Attribute(req.Attribute),
			Value:     req.Value,
		}, nil
	case "programmer_set_address":
		universe, err := dmx.NewUniverseID(req.Universe)
		if err != nil {
			return nil, err
		}
		channel, err := dmx.NewChannel(req.Channel)
		if err != nil {
			return nil, err
		}
		if req.Byte < 0 || req.Byte > 255 {
			return nil, fmt.Errorf("byte %d out of range", req.Byte)
		}
		return command.ProgrammerSetAddress{
			Address: dmx.Address{Universe: universe, Channel: channel},
			Value:   byte(req.Byte),
		}, nil
	case "programmer_clear":
		return command.ProgrammerClear{}, nil
	default:
		return nil, fmt.Errorf("unknown command type %q", req.Type)
	}
}

func parseExecutorID(raw string) (show.ObjectID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return show.ObjectID{}, fmt.Errorf("executor id %q: %w", raw, err)
	}
	return show.ObjectID{Kind: show.KindExecutor, UUID: id}, nil
}
