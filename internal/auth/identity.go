// internal/auth/identity.go
//
// Resolving who is calling.
// Order:
//   1. Authorization: Bearer <play token> (or ?token= for WebSocket clients)
//   2. X-Telegram-Init-Data, checked against the bot token
//   3. X-User-Id / X-User-Name, trusted as sent

package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Header names the mini-app shell and the game client send.
const (
	HeaderInitData = "X-Telegram-Init-Data"
	HeaderUserID   = "X-User-Id"
	HeaderUserName = "X-User-Name"
)

var ErrNoIdentity = errors.New("no identity")

// Identity is who a backend request acts for.
type Identity struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Source string `json:"-"` // token|initdata|header
}

type contextKey string

var identityCtxKey = contextKey("identity")

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey).(Identity)
	return id, ok && id.UserID != ""
}

// Resolver derives an Identity from request headers, in order: bearer play
// token, signed Telegram init data, plain X-User-Id.
type Resolver struct {
	Secret         []byte
	BotToken       string
	InitDataMaxAge time.Duration
	Now            func() time.Time
}

func (r *Resolver) Resolve(req *http.Request) (Identity, error) {
	if tok := BearerToken(req); tok != "" {
		c, err := Verify(r.Secret, tok)
		if err != nil {
			return Identity{}, err
		}
		return Identity{UserID: c.UserID, Name: c.Name, Source: "token"}, nil
	}

	if raw := req.Header.Get(HeaderInitData); raw != "" && r.BotToken != "" {
		now := time.Now
		if r.Now != nil {
			now = r.Now
		}
		d, err := ParseInitData(raw, r.BotToken, r.InitDataMaxAge, now())
		if err != nil {
			return Identity{}, err
		}
		return Identity{
			UserID: strconv.FormatInt(d.User.ID, 10),
			Name:   d.User.DisplayName(),
			Source: "initdata",
		}, nil
	}

	if uid := strings.TrimSpace(req.Header.Get(HeaderUserID)); uid != "" {
		return Identity{UserID: uid, Name: strings.TrimSpace(req.Header.Get(HeaderUserName)), Source: "header"}, nil
	}
	return Identity{}, ErrNoIdentity
}

// BearerToken extracts "Authorization: Bearer <token>", falling back to the
// token query parameter used by WebSocket clients.
func BearerToken(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return r.URL.Query().Get("token")
}
