// internal/auth/initdata.go
//
// Telegram mini-app init data: parse and verify the WebApp HMAC signature.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInitDataMissing = errors.New("init data: missing")
	ErrInitDataHash    = errors.New("init data: hash mismatch")
	ErrInitDataExpired = errors.New("init data: expired")
)

// TelegramUser is the "user" field of WebApp init data.
type TelegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// DisplayName prefers the full name, then the username.
func (u TelegramUser) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

// InitData is a validated WebApp launch payload.
type InitData struct {
	QueryID  string
	User     TelegramUser
	AuthDate time.Time
}

// ParseInitData checks the signature of raw (the query string the mini-app
// shell hands the page) against botToken and returns its fields.
// maxAge <= 0 disables the freshness check.
func ParseInitData(raw, botToken string, maxAge time.Duration, now time.Time) (*InitData, error) {
	if raw == "" {
		return nil, ErrInitDataMissing
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("init data: %w", err)
	}
	hash := vals.Get("hash")
	if hash == "" {
		return nil, ErrInitDataHash
	}

	got, err := hex.DecodeString(hash)
	if err != nil {
		return nil, ErrInitDataHash
	}
	if !hmac.Equal(got, signInitData(vals, botToken)) {
		return nil, ErrInitDataHash
	}

	out := &InitData{QueryID: vals.Get("query_id")}
	if ts, err := strconv.ParseInt(vals.Get("auth_date"), 10, 64); err == nil {
		out.AuthDate = time.Unix(ts, 0)
	}
	if maxAge > 0 && (out.AuthDate.IsZero() || now.Sub(out.AuthDate) > maxAge) {
		return nil, ErrInitDataExpired
	}
	if u := vals.Get("user"); u != "" {
		if err := json.Unmarshal([]byte(u), &out.User); err != nil {
			return nil, fmt.Errorf("init data: user: %w", err)
		}
	}
	if out.User.ID == 0 {
		return nil, errors.New("init data: no user")
	}
	return out, nil
}

// signInitData computes the WebApp data-check hash: HMAC-SHA256 over the
// sorted key=value lines, keyed by HMAC-SHA256("WebAppData", botToken).
func signInitData(vals url.Values, botToken string) []byte {
	keys := make([]string, 0, len(vals))
	for k := range vals {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+vals.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))
	return mac.Sum(nil)
}

// SignInitData builds a signed init data query string. Used by tests and
// local tooling that has to impersonate the shell.
func SignInitData(vals url.Values, botToken string) string {
	out := url.Values{}
	for k, v := range vals {
		if k != "hash" {
			out[k] = v
		}
	}
	out.Set("hash", hex.EncodeToString(signInitData(out, botToken)))
	return out.Encode()
}
