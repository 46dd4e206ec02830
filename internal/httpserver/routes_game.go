// internal/httpserver/routes_game.go
//
// The game backend contract, mounted under /api/game:
//   - POST /start         → ensure the player exists, issue a play token
//   - GET  /user-stats    → {tx} for ?user_id= (or the caller)
//   - POST /submit-score  → record a session, credit tx_earned
//   - GET  /leaderboard   → best score per user for daily|weekly|all
//
// Scores are trusted as submitted; there is no server-side validation.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordscramble/internal/auth"
	"github.com/robalobadob/wordscramble/internal/backend"
	"github.com/robalobadob/wordscramble/internal/store"
)

func (s *Server) mountGame(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.With(s.withIdentity(true)).Post("/start", s.handleStart)
	r.With(s.withIdentity(false)).Get("/user-stats", s.handleUserStats)
	r.With(s.withIdentity(false)).Post("/submit-score", s.handleSubmitScore)
	r.Get("/leaderboard", s.handleLeaderboard)
}

type startRes struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"user"`
	TX int `json:"tx"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	me, _ := currentUser(r)
	u, err := s.deps.Store.EnsureUser(r.Context(), me.UserID, me.Name)
	if err != nil {
		log.Error().Err(err).Str("user", me.UserID).Msg("ensure user")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	tok, err := auth.Sign(s.deps.Resolver.Secret, u.ID, u.Name, s.deps.TokenTTL)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}

	res := startRes{Success: true, Token: tok, TX: u.TX}
	res.User.ID, res.User.Name = u.ID, u.Name
	_ = json.NewEncoder(w).Encode(res)
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	uid := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if uid == "" {
		if me, ok := currentUser(r); ok {
			uid = me.UserID
		}
	}
	if uid == "" {
		http.Error(w, `{"error":"missing user_id"}`, http.StatusBadRequest)
		return
	}

	st, err := s.deps.Store.Stats(r.Context(), uid)
	if errors.Is(err, store.ErrNotFound) {
		_ = json.NewEncoder(w).Encode(backend.StatsResponse{})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("user", uid).Msg("user stats")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(backend.StatsResponse{TX: st.TX, BestScore: st.BestScore, Games: st.Games})
}

func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var req backend.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	uid := strings.TrimSpace(string(req.UserID))
	if me, ok := currentUser(r); ok {
		uid = me.UserID
		if req.UserName == "" {
			req.UserName = me.Name
		}
	}
	if uid == "" {
		http.Error(w, `{"error":"missing user_id"}`, http.StatusBadRequest)
		return
	}
	if req.Score < 0 || req.Words < 0 || req.TxEarned < 0 {
		http.Error(w, `{"error":"negative values"}`, http.StatusBadRequest)
		return
	}

	saved, err := s.deps.Store.SaveScore(r.Context(), store.Score{
		UserID:   uid,
		UserName: strings.TrimSpace(req.UserName),
		Score:    req.Score,
		Words:    req.Words,
		TxEarned: req.TxEarned,
	})
	if err != nil {
		log.Error().Err(err).Str("user", uid).Msg("save score")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	log.Info().Str("user", uid).Str("score_id", saved.ID).Int("score", saved.Score).Int("tx", saved.TxEarned).Msg("score saved")
	_ = json.NewEncoder(w).Encode(backend.SubmitResponse{Success: true, TxEarned: saved.TxEarned})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, ok := store.ParsePeriod(q.Get("period"))
	if !ok {
		http.Error(w, `{"error":"period must be daily, weekly or all"}`, http.StatusBadRequest)
		return
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, `{"error":"bad limit"}`, http.StatusBadRequest)
			return
		}
		limit = n
	}

	rows, err := s.deps.Store.Leaderboard(r.Context(), period.Since(s.deps.Now()), store.ClampLimit(limit))
	if err != nil {
		log.Error().Err(err).Str("period", string(period)).Msg("leaderboard")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(backend.LeaderboardResponse{
		Success:     true,
		Period:      string(period),
		Leaderboard: toWire(rows),
	})
}
