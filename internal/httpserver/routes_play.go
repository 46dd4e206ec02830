// internal/httpserver/routes_play.go
//
// WebSocket play sessions: GET /ws/play?token=<play token>
//
// Each connection owns one game.Runner (the session's event loop) and one
// game.Loop driven only through it. Client messages and timer callbacks are
// serialised on the runner; outgoing events are queued to a writer goroutine.
//
// Client → server envelopes:
//   ready                          shell initialised; replies "hello"
//   start   {difficulty}           new session (easy|moderate|hard)
//   answer  {text}                 guess for the current word
//   skip | quit                    gameplay actions
//   hide | unload | back           host-shell lifecycle signals
//   leaderboard {period, limit}    replies "leaderboard"
//   stats                          replies "stats" {tx}
//
// Server → client: every game.Event as {type: <event type>, payload: event},
// plus hello, leaderboard, stats and error.
//
// Disconnect is treated as unload: the session stops and an unsent score is
// reported before the connection is released.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordscramble/internal/auth"
	"github.com/robalobadob/wordscramble/internal/game"
	"github.com/robalobadob/wordscramble/internal/leaderboard"
	"github.com/robalobadob/wordscramble/internal/words"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // identity is the token, not the origin
}

// Envelope is the wire frame in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type startPayload struct {
	Difficulty string `json:"difficulty"`
}

type answerPayload struct {
	Text string `json:"text"`
}

type leaderboardPayload struct {
	Period string `json:"period"`
	Limit  int    `json:"limit"`
}

type helloPayload struct {
	SessionID string        `json:"session_id"`
	User      auth.Identity `json:"user"`
	Tiers     []words.Tier  `json:"tiers"`
	View      game.View     `json:"view"`
}

type statsPayload struct {
	TX int `json:"tx"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func frame(typ string, payload any) []byte {
	b, _ := json.Marshal(Envelope{Type: typ, Payload: mustJSON(payload)})
	return b
}

// playSession is the per-connection state. loop is touched only on runner.
type playSession struct {
	id       string
	me       auth.Identity
	ws       *websocket.Conn
	send     chan []byte
	runner   *game.Runner
	loop     *game.Loop
	reporter *game.Reporter
	board    *leaderboard.Board
	backend  Backend
	log      zerolog.Logger
	ctx      context.Context
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	me, err := s.deps.Resolver.Resolve(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorPayload{Code: "unauthorized", Message: err.Error()})
		return
	}
	if s.deps.Bank == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorPayload{Code: "words_not_loaded", Message: "word bank not loaded"})
		return
	}
	if s.ctx.Err() != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorPayload{Code: "shutting_down", Message: "server is shutting down"})
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.sessions.Add(1)
	defer s.sessions.Done()

	ps := s.newPlaySession(me, ws)
	ps.serve(s.ctx)
}

func (s *Server) newPlaySession(me auth.Identity, ws *websocket.Conn) *playSession {
	id := uuid.NewString()
	logger := log.Logger.With().Str("session", id).Str("user", me.UserID).Logger()

	ps := &playSession{
		id:      id,
		me:      me,
		ws:      ws,
		send:    make(chan []byte, 64),
		runner:  game.NewRunner(64),
		board:   leaderboard.New(s.deps.Backend, logger),
		backend: s.deps.Backend,
		log:     logger,
	}
	ps.reporter = game.NewReporter(s.deps.Backend, game.Player{ID: me.UserID, Name: me.Name},
		game.WithDivisor(s.deps.Game.SubmitTxDivisor),
		game.WithTimeout(s.deps.SubmitTimeout),
		game.WithLogger(logger),
	)
	ps.loop = game.NewLoop(s.deps.Game, s.deps.Bank, ps.runner, ps.reporter, ps.emit)
	return ps
}

func (ps *playSession) serve(shutdown context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	ps.ctx = ctx
	go ps.runner.Run(ctx)

	writerDone := make(chan struct{})
	go ps.writeLoop(writerDone)

	// Server shutdown closes the socket, which ends the read loop below.
	released := make(chan struct{})
	go func() {
		select {
		case <-shutdown.Done():
			_ = ps.ws.Close()
		case <-released:
		}
	}()

	ps.log.Info().Msg("play session opened")
	ps.readLoop()

	ps.runner.Do(ps.loop.Unload)
	ps.reporter.Wait()
	cancel()
	<-ps.runner.Done()
	close(ps.send)
	<-writerDone
	close(released)
	_ = ps.ws.Close()
	ps.log.Info().Msg("play session closed")
}

// emit runs on the runner goroutine.
func (ps *playSession) emit(e game.Event) {
	ps.push(frame(string(e.Type), e))
}

func (ps *playSession) push(b []byte) {
	select {
	case ps.send <- b:
	case <-ps.ctx.Done():
	}
}

// writeLoop drains send until it is closed. After a write error it keeps
// draining so producers never block on a dead connection.
func (ps *playSession) writeLoop(done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	dead := false
	for {
		select {
		case msg, ok := <-ps.send:
			if !ok {
				return
			}
			if dead {
				continue
			}
			_ = ps.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := ps.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				dead = true
			}
		case <-ticker.C:
			if !dead {
				_ = ps.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
			}
		}
	}
}

func (ps *playSession) readLoop() {
	for {
		_, data, err := ps.ws.ReadMessage()
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			ps.sendError("bad_json", "invalid json")
			continue
		}
		ps.handle(env)
	}
}

func (ps *playSession) sendError(code, msg string) {
	ps.push(frame("error", errorPayload{Code: code, Message: msg}))
}

func (ps *playSession) handle(env Envelope) {
	switch env.Type {
	case "ready":
		ps.runner.Do(func() {
			ps.push(frame("hello", helloPayload{SessionID: ps.id, User: ps.me, Tiers: words.Tiers, View: ps.loop.View()}))
		})

	case "start":
		var p startPayload
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				ps.sendError("bad_input", "invalid payload")
				return
			}
		}
		tier, ok := words.ParseTier(p.Difficulty)
		if !ok {
			ps.sendError("bad_input", "unknown difficulty")
			return
		}
		ps.runner.Do(func() { ps.loop.Start(tier) })

	case "answer":
		var p answerPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			ps.sendError("bad_input", "invalid payload")
			return
		}
		ps.runner.Do(func() { ps.loop.SubmitAnswer(p.Text) })

	case "skip":
		ps.runner.Do(func() { ps.loop.Skip() })
	case "quit":
		ps.runner.Do(ps.loop.Quit)
	case "hide":
		ps.runner.Do(ps.loop.Hide)
	case "unload":
		ps.runner.Do(ps.loop.Unload)
	case "back":
		ps.runner.Do(ps.loop.Back)

	case "leaderboard":
		var p leaderboardPayload
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				ps.sendError("bad_input", "invalid payload")
				return
			}
		}
		if p.Period == "" {
			p.Period = "daily"
		}
		if p.Limit <= 0 {
			p.Limit = 10
		}
		ps.push(frame("leaderboard", ps.board.FetchTop(ps.ctx, p.Period, p.Limit)))

	case "stats":
		st, err := ps.backend.UserStats(ps.ctx, ps.me.UserID)
		if err != nil {
			ps.log.Warn().Err(err).Msg("load balance")
		}
		ps.push(frame("stats", statsPayload{TX: st.TX}))

	default:
		ps.sendError("unknown_type", "unknown message type")
	}
}
