// internal/backend/client.go
//
// HTTP client for the game backend contract:
//   GET  /user-stats?user_id=<id>              -> {tx}
//   POST /submit-score                          -> {success?, tx_earned?}
//   GET  /leaderboard?period=<p>&limit=<n>      -> {success?, period?, leaderboard}
//
// The base URL includes the /api/game prefix. Every call takes a context and
// returns an error; callers decide how to degrade.
//
// A 2xx status is success. A "success" field only counts when it is an
// explicit false; /submit-score may reply with any body at all.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/robalobadob/wordscramble/internal/auth"
	"github.com/robalobadob/wordscramble/internal/game"
)

// StatusError is returned for non-2xx replies.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: status %d: %s", e.Code, e.Body)
}

var ErrUnsuccessful = errors.New("backend: success=false")

type Client struct {
	base     string
	hc       *http.Client
	initData string
}

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithInitData attaches signed mini-app init data to every request.
func WithInitData(raw string) Option {
	return func(c *Client) { c.initData = raw }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserStats returns the user's tx balance.
func (c *Client) UserStats(ctx context.Context, userID string) (StatsResponse, error) {
	q := url.Values{"user_id": {userID}}
	raw, err := c.do(ctx, http.MethodGet, "/user-stats?"+q.Encode(), userID, nil)
	if err != nil {
		return StatsResponse{}, err
	}
	var out StatsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return StatsResponse{}, fmt.Errorf("backend: decode /user-stats: %w", err)
	}
	return out, nil
}

// SubmitScore posts a finished session. It satisfies game.Submitter.
func (c *Client) SubmitScore(ctx context.Context, s game.ScoreSubmission) error {
	body := SubmitRequest{
		UserID:   FlexString(s.UserID),
		UserName: s.UserName,
		Score:    s.Score,
		Words:    s.WordsSolved,
		TxEarned: s.TxEarned,
	}
	raw, err := c.do(ctx, http.MethodPost, "/submit-score", s.UserID, body)
	if err != nil {
		return err
	}
	var out struct {
		Success *bool `json:"success"`
	}
	if json.Unmarshal(raw, &out) == nil && vetoed(out.Success) {
		return ErrUnsuccessful
	}
	return nil
}

// Leaderboard fetches the top entries for period.
func (c *Client) Leaderboard(ctx context.Context, period string, limit int) ([]Entry, error) {
	q := url.Values{"period": {period}, "limit": {strconv.Itoa(limit)}}
	raw, err := c.do(ctx, http.MethodGet, "/leaderboard?"+q.Encode(), "", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Success     *bool   `json:"success"`
		Leaderboard []Entry `json:"leaderboard"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("backend: decode /leaderboard: %w", err)
	}
	if vetoed(out.Success) {
		return nil, ErrUnsuccessful
	}
	return out.Leaderboard, nil
}

func vetoed(success *bool) bool { return success != nil && !*success }

// do sends the request and returns the body of a 2xx reply.
func (c *Client) do(ctx context.Context, method, path, userID string, in any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(auth.HeaderUserID, userID)
	}
	if c.initData != "" {
		req.Header.Set(auth.HeaderInitData, c.initData)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, &StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	b, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("backend: read %s: %w", path, err)
	}
	return b, nil
}
