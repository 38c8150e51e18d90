package twitchapi

import (
	"context"
	"testing"

	"github.com/onnwee/coinbot/testutil"
)

func TestTokenSourceCachesToken(t *testing.T) {
	mock := testutil.NewMockTwitchServer(t)
	mock.MockOAuthTokenResponse("tok-1", 3600)

	ts := &TokenSource{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     mock.URL + "/oauth2/token",
	}
	tok, err := ts.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tok != "tok-1" {
		t.Errorf("token = %q", tok)
	}

	// a rotated upstream token is not fetched while the cache is fresh
	mock.MockOAuthTokenResponse("tok-2", 3600)
	tok, err = ts.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tok != "tok-1" {
		t.Errorf("token = %q, want cached tok-1", tok)
	}
}

func TestTokenSourceMissingCredentials(t *testing.T) {
	ts := &TokenSource{}
	if _, err := ts.Get(context.Background()); err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestHelixIsLive(t *testing.T) {
	mock := testutil.NewMockTwitchServer(t)
	mock.MockOAuthTokenResponse("tok", 3600)
	mock.MockStreamsResponse([]map[string]interface{}{{"type": "live"}})

	hc := &HelixClient{
		AppTokenSource: &TokenSource{ClientID: "id", ClientSecret: "secret", TokenURL: mock.URL + "/oauth2/token"},
		ClientID:       "id",
		Channel:        "somechannel",
		BaseURL:        mock.URL,
	}
	live, err := hc.IsLive(context.Background())
	if err != nil {
		t.Fatalf("islive: %v", err)
	}
	if !live {
		t.Error("expected live")
	}

	mock.MockStreamsResponse(nil)
	live, err = hc.IsLive(context.Background())
	if err != nil {
		t.Fatalf("islive: %v", err)
	}
	if live {
		t.Error("expected offline")
	}
}
