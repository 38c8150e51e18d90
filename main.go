// Command coinbot is the main entrypoint for the chat bot.
// It:
//   - Loads configuration and initializes structured logging.
//   - Connects to Postgres and runs idempotent migrations.
//   - Connects to Twitch IRC and starts the paced outbound queue.
//   - Wires the currency engine and static command plugin to chat.
//   - Starts background jobs: live-status handouts and the chat token
//     refresher.
//   - Exposes an HTTP server with /healthz, /readyz, /status, /metrics, and
//     dashboard action endpoints.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/coinbot/commands"
	"github.com/onnwee/coinbot/config"
	"github.com/onnwee/coinbot/currency"
	"github.com/onnwee/coinbot/db"
	"github.com/onnwee/coinbot/irc"
	"github.com/onnwee/coinbot/ledger"
	"github.com/onnwee/coinbot/oauth"
	"github.com/onnwee/coinbot/server"
	"github.com/onnwee/coinbot/telemetry"
	"github.com/onnwee/coinbot/twitchapi"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateChatReady(); err != nil {
		slog.Error("config incomplete", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()
	shutdownTracing, err := telemetry.InitTracing("coinbot", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdownTracing()

	database, err := db.Connect(cfg.DBDsn)
	if err != nil {
		slog.Error("failed to open db", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("failed to close database", slog.Any("err", err))
		}
	}()
	{
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := db.Migrate(migrateCtx, database)
		cancel()
		if err != nil {
			slog.Error("failed to migrate db", slog.Any("err", err))
			os.Exit(1)
		}
	}

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := ledger.NewStore(database)

	conn := irc.NewConn(irc.Options{
		Addr:    cfg.IRCAddr,
		Nick:    cfg.BotUsername,
		Pass:    cfg.OAuthToken,
		Channel: cfg.Channel,
	})
	queue := irc.NewQueue(conn)

	engine := currency.New(ctx, store, queue, conn, currency.Options{
		CurrencyName: cfg.CurrencyName,
		Website:      cfg.Website,
		Broadcaster:  cfg.Broadcaster(),
		BotName:      cfg.BotUsername,
	})

	plugin := commands.New(database, queue, cfg.BotUsername, cfg.CurrencyName)
	if err := plugin.Start(ctx); err != nil {
		slog.Warn("static commands unavailable", slog.Any("err", err))
	}

	conn.OnMessage(engine.HandleMessage)
	conn.OnMessage(plugin.HandleMessage)
	conn.OnRaw(func(dir, line string) {
		slog.Debug("irc", slog.String("dir", dir), slog.String("line", line))
	})

	go conn.Run(ctx)
	go queue.Run(ctx)

	// Handouts need Helix live-status polling; without app credentials the
	// bot still runs, viewers just don't accrue points passively.
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		helix := &twitchapi.HelixClient{
			AppTokenSource: &twitchapi.TokenSource{ClientID: cfg.ClientID, ClientSecret: cfg.ClientSecret},
			ClientID:       cfg.ClientID,
			Channel:        cfg.Channel,
		}
		go engine.RunHandout(ctx, helix, conn, cfg.Channel, cfg.Payrate)
	} else {
		slog.Info("handouts disabled: no twitch client id/secret")
	}

	oauth.StartRefresher(ctx, database, cfg.ClientID, cfg.ClientSecret, 5*time.Minute, 15*time.Minute, conn)

	slog.Info("coinbot started",
		slog.String("channel", cfg.Channel),
		slog.String("currency", cfg.CurrencyName),
		slog.String("http", cfg.HTTPAddr))

	deps := server.Deps{Transport: conn, Engine: engine, Queue: queue}
	if err := server.Start(ctx, database, cfg.HTTPAddr, deps); err != nil {
		os.Exit(1)
	}
}
