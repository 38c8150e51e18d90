package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TWITCH_CHANNEL", "#SomeStreamer")
	// t.Setenv registers the restore; unset so envDefault applies
	for _, k := range []string{"IRC_ADDR", "CURRENCY_NAME", "CURRENCY_PAYRATE", "DB_DSN"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IRCAddr != "irc.chat.twitch.tv:6667" {
		t.Errorf("IRCAddr default = %q", cfg.IRCAddr)
	}
	if cfg.CurrencyName != "coins" {
		t.Errorf("CurrencyName default = %q", cfg.CurrencyName)
	}
	if cfg.Payrate != 30*time.Minute {
		t.Errorf("Payrate default = %v", cfg.Payrate)
	}
	if cfg.Channel != "somestreamer" {
		t.Errorf("Channel not normalized: %q", cfg.Channel)
	}
	if cfg.Broadcaster() != "Somestreamer" {
		t.Errorf("Broadcaster() = %q", cfg.Broadcaster())
	}
}

func TestValidateChatReady(t *testing.T) {
	cfg := &Config{Channel: "chan", BotUsername: "bot"}
	if err := cfg.ValidateChatReady(); err == nil {
		t.Fatal("expected error with missing oauth token")
	}
	cfg.OAuthToken = "oauth:abc"
	if err := cfg.ValidateChatReady(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
