// internal/backend/types.go
//
// Wire types for the backend contract.

package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexString decodes a JSON string or number into a string. Hosts send user
// IDs both ways.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*f = FlexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

// SubmitRequest is the /submit-score body.
type SubmitRequest struct {
	UserID   FlexString `json:"user_id"`
	UserName string     `json:"user_name"`
	Score    int        `json:"score"`
	Words    int        `json:"words"`
	TxEarned int        `json:"tx_earned"`
}

// SubmitResponse is the /submit-score reply.
type SubmitResponse struct {
	Success  bool `json:"success"`
	TxEarned int  `json:"tx_earned"`
}

// StatsResponse is the /user-stats reply. Only tx is part of the contract.
type StatsResponse struct {
	TX        int `json:"tx"`
	BestScore int `json:"best_score,omitempty"`
	Games     int `json:"games,omitempty"`
}

// Entry is one leaderboard row as sent on the wire; rank may be absent.
type Entry struct {
	Rank   int        `json:"rank,omitempty"`
	UserID FlexString `json:"user_id"`
	Name   string     `json:"name"`
	Score  int        `json:"score"`
}

// LeaderboardResponse is the /leaderboard reply.
type LeaderboardResponse struct {
	Success     bool    `json:"success"`
	Period      string  `json:"period"`
	Leaderboard []Entry `json:"leaderboard"`
}
