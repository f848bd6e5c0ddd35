// Package server exposes the duel coordinator over websockets.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/stonify5/duelserver/arena"
)

// Options configures the websocket endpoint.
type Options struct {
	// AllowedOrigins lists accepted Origin headers; "*" accepts any.
	AllowedOrigins []string
	// SendBuffer is the outbound queue length per connection.
	SendBuffer int
}

// Server upgrades HTTP requests and feeds their frames into an arena.Loop.
type Server struct {
	ctx      context.Context
	loop     *arena.Loop
	log      zerolog.Logger
	upgrader websocket.Upgrader
	opts     Options
}

// New makes a Server. ctx bounds every connection it serves.
func New(ctx context.Context, loop *arena.Loop, opts Options, log zerolog.Logger) *Server {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	return &Server{
		ctx:  ctx,
		loop: loop,
		log:  log,
		opts: opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(opts.AllowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 || lo.Contains(allowed, "*") {
			return true
		}
		return lo.ContainsBy(allowed, func(a string) bool { return strings.EqualFold(a, origin) })
	}
}

// Handler returns the HTTP routes: the websocket at wsPath, /health, and
// api (if any) under /api/.
func (s *Server) Handler(wsPath string, api http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler)
	mux.HandleFunc(wsPath, s.HandleSocket)
	if api != nil {
		mux.Handle("/api/", api)
	}
	return mux
}

// HandleSocket serves one player for the lifetime of its websocket.
func (s *Server) HandleSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	conn := newWSConn(ws, s.opts.SendBuffer)
	id, err := s.loop.Connect(s.ctx, conn)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("coordinator unavailable")
		ws.Close()
		return
	}
	s.log.Debug().Uint64("conn", uint64(id)).Str("remote", ws.RemoteAddr().String()).Msg("websocket established")

	go conn.writePump()
	s.readPump(id, ws)

	// Disconnect goes through the loop after every frame this reader posted.
	if err := s.loop.Disconnect(s.ctx, id); err != nil {
		s.log.Debug().Err(err).Uint64("conn", uint64(id)).Msg("disconnect not delivered")
	}
	conn.Close()
}

func (s *Server) readPump(id arena.ConnID, ws *websocket.Conn) {
	ws.SetReadLimit(hardReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		frame, err := readFrame(ws)
		if errors.Is(err, errFrameTooLarge) {
			s.log.Warn().
				Err(fmt.Errorf("%w: %w", arena.ErrMalformedMessage, err)).
				Uint64("conn", uint64(id)).
				Msg("dropped message")
			continue
		}
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Err(err).Uint64("conn", uint64(id)).Msg("read failed")
			}
			return
		}
		if err := s.loop.Message(s.ctx, id, frame); err != nil {
			return
		}
	}
}

// readFrame returns the next data frame, text or binary. A frame longer than
// readLimit is drained and reported as errFrameTooLarge with the socket left
// open; any other error means the connection is gone.
func readFrame(ws *websocket.Conn) ([]byte, error) {
	_, r, err := ws.NextReader()
	if err != nil {
		return nil, err
	}
	frame, err := io.ReadAll(io.LimitReader(r, readLimit+1))
	if err != nil {
		return nil, err
	}
	if len(frame) > readLimit {
		if _, err := io.Copy(io.Discard, r); err != nil {
			return nil, err
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil, errFrameTooLarge
	}
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	return frame, nil
}

// HealthHandler reports liveness.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
