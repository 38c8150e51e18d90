// Package oauth keeps the bot's chat token fresh: a background refresher
// with jittered checks that refreshes the stored token when its expiry falls
// within a configured window, persists the rotated pair, and hands the new
// token to the transport for the next reconnect.
package oauth

import (
	"context"
	"database/sql"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/oauth2"

	"github.com/onnwee/coinbot/db"
)

// Provider is the oauth_tokens row key for the chat token.
const Provider = "twitch-chat"

var twitchEndpoint = oauth2.Endpoint{
	AuthURL:  "https://id.twitch.tv/oauth2/authorize",
	TokenURL: "https://id.twitch.tv/oauth2/token",
}

// PasswordSetter receives the rotated chat credential.
type PasswordSetter interface {
	SetPassword(pass string)
}

// StartRefresher launches a goroutine that periodically checks the stored
// chat token and refreshes it when expiry is near.
// interval: how often to wake up and check.
// window: refresh when remaining lifetime <= window.
func StartRefresher(ctx context.Context, database *sql.DB, clientID, clientSecret string, interval, window time.Duration, conn PasswordSetter) {
	if clientID == "" || clientSecret == "" {
		slog.Info("chat token refresher disabled: no client id/secret")
		return
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	cfg := &oauth2.Config{ClientID: clientID, ClientSecret: clientSecret, Endpoint: twitchEndpoint}

	// Randomize initial delay to spread load across instances.
	//nolint:gosec // G404: math/rand is sufficient for scheduling jitter
	initialJitter := time.Duration(rand.Int63n(int64(interval / 2)))
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(initialJitter):
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
			access, refresh, expiresAt, scope, err := db.LoadToken(ctx, database, Provider)
			if err != nil || refresh == "" {
				continue
			}
			if time.Until(expiresAt) > window {
				continue
			}
			tok, err := cfg.TokenSource(ctx, &oauth2.Token{
				AccessToken:  access,
				RefreshToken: refresh,
				Expiry:       time.Now().Add(-time.Minute), // force refresh
			}).Token()
			if err != nil {
				slog.Warn("chat token refresh failed", slog.Any("err", err))
				continue
			}
			newRefresh := tok.RefreshToken
			if newRefresh == "" {
				newRefresh = refresh
			}
			if err := db.UpsertToken(ctx, database, Provider, tok.AccessToken, newRefresh, tok.Expiry, scope); err != nil {
				slog.Error("chat token persist failed", slog.Any("err", err))
				continue
			}
			conn.SetPassword("oauth:" + tok.AccessToken)
			slog.Info("chat token refreshed", slog.Time("expires_at", tok.Expiry))
		}
	}()
}
