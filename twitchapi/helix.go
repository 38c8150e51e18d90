package twitchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// HelixClient answers the one Helix question the bot cares about: is the
// channel live.
type HelixClient struct {
	AppTokenSource *TokenSource
	ClientID       string
	Channel        string
	BaseURL        string // defaults to the Twitch Helix API
	HTTPClient     *http.Client
}

func (hc *HelixClient) http() *http.Client {
	if hc.HTTPClient != nil {
		return hc.HTTPClient
	}
	return http.DefaultClient
}

// IsLive reports whether the configured channel has an active stream.
func (hc *HelixClient) IsLive(ctx context.Context) (bool, error) {
	if hc.Channel == "" {
		return false, fmt.Errorf("channel empty")
	}
	tok, err := hc.AppTokenSource.Get(ctx)
	if err != nil {
		return false, err
	}
	base := hc.BaseURL
	if base == "" {
		base = "https://api.twitch.tv"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/helix/streams", nil)
	if err != nil {
		return false, err
	}
	q := req.URL.Query()
	q.Set("user_login", hc.Channel)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Client-Id", hc.ClientID)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := hc.http().Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("helix streams status %d", resp.StatusCode)
	}
	var body struct {
		Data []struct {
			Type string `json:"type"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, err
	}
	return len(body.Data) > 0, nil
}
