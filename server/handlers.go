package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/onnwee/coinbot/currency"
)

var errNotConnected = errors.New("chat not connected")

// Transport is the slice of the IRC connection the API needs.
type Transport interface {
	Connected() bool
	Reconnect()
	Mods() []string
}

// Engine drives the game modes from dashboard actions.
type Engine interface {
	Mode() currency.Mode
	OpenAuction()
	CloseAuction()
	CancelAuction()
	DrawNextBidder()
	OpenRaffle(cost, max int)
	CloseRaffle()
	CancelRaffle()
	RestoreRaffle()
	DrawNextTicket()
	OpenBetting(options []string)
	CloseBetting()
	SettleBetting(option string)
}

// QueueInspector reports outbound queue depth.
type QueueInspector interface {
	Depth() int
}

// Deps are the runtime components the handlers act on.
type Deps struct {
	Transport Transport
	Engine    Engine
	Queue     QueueInspector
}

type Handlers struct {
	db   *sql.DB
	deps Deps
}

// HandleHealthz responds to liveness probes by checking database
// connectivity.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probes with detailed checks.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"database", func() error { return h.db.PingContext(r.Context()) }},
		{"chat", func() error {
			if h.deps.Transport == nil || !h.deps.Transport.Connected() {
				return errNotConnected
			}
			return nil
		}},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        err.Error(),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// HandleStatus reports a JSON snapshot of the bot's runtime state.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"connected":   h.deps.Transport != nil && h.deps.Transport.Connected(),
		"mode":        h.deps.Engine.Mode().String(),
		"queue_depth": h.deps.Queue.Depth(),
		"mods":        h.deps.Transport.Mods(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

// HandleReconnect forces a chat reconnect.
func (h *Handlers) HandleReconnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.deps.Transport.Reconnect()
	writeAccepted(w, "reconnect")
}

// HandleAuction dispatches /api/auction/{open,close,cancel,draw}.
func (h *Handlers) HandleAuction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	action := strings.TrimPrefix(r.URL.Path, "/api/auction/")
	switch action {
	case "open":
		h.deps.Engine.OpenAuction()
	case "close":
		h.deps.Engine.CloseAuction()
	case "cancel":
		h.deps.Engine.CancelAuction()
	case "draw":
		h.deps.Engine.DrawNextBidder()
	default:
		http.NotFound(w, r)
		return
	}
	writeAccepted(w, "auction "+action)
}

// HandleRaffle dispatches /api/raffle/{open,close,cancel,restore,draw}.
// Open accepts optional cost and max query parameters; both must be positive
// for the override to apply.
func (h *Handlers) HandleRaffle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	action := strings.TrimPrefix(r.URL.Path, "/api/raffle/")
	switch action {
	case "open":
		cost := parseIntQuery(r, "cost", 0)
		max := parseIntQuery(r, "max", 0)
		if cost <= 0 || max <= 0 {
			cost, max = 0, 0
		}
		h.deps.Engine.OpenRaffle(cost, max)
	case "close":
		h.deps.Engine.CloseRaffle()
	case "cancel":
		h.deps.Engine.CancelRaffle()
	case "restore":
		h.deps.Engine.RestoreRaffle()
	case "draw":
		h.deps.Engine.DrawNextTicket()
	default:
		http.NotFound(w, r)
		return
	}
	writeAccepted(w, "raffle "+action)
}

// HandleBet dispatches /api/bet/{open,close,winner}. Open takes an options
// query parameter with a comma-separated board; winner takes an option
// parameter.
func (h *Handlers) HandleBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	action := strings.TrimPrefix(r.URL.Path, "/api/bet/")
	switch action {
	case "open":
		var options []string
		for _, opt := range strings.Split(r.URL.Query().Get("options"), ",") {
			if opt = strings.TrimSpace(opt); opt != "" {
				options = append(options, opt)
			}
		}
		h.deps.Engine.OpenBetting(options)
	case "close":
		h.deps.Engine.CloseBetting()
	case "winner":
		option := r.URL.Query().Get("option")
		if option == "" {
			http.Error(w, "missing option", http.StatusBadRequest)
			return
		}
		h.deps.Engine.SettleBetting(option)
	default:
		http.NotFound(w, r)
		return
	}
	writeAccepted(w, "bet "+action)
}

func writeAccepted(w http.ResponseWriter, action string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted", "action": action})
}

// parseIntQuery extracts an int parameter from the query string with a
// default value.
func parseIntQuery(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
