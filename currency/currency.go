// Package currency implements the viewer points economy: balance request
// aggregation, periodic handouts, broadcaster adjustments, and the mutually
// exclusive auction / raffle / betting game modes. One Currency instance
// owns all of this state per bot session; a single mutex serializes every
// command handler so each runs to completion before the next event.
package currency

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/onnwee/coinbot/irc"
	"github.com/onnwee/coinbot/ledger"
	"github.com/onnwee/coinbot/telemetry"
)

// Mode is the active game mode. At most one is non-idle at any time, and
// transitions only happen through the open/close/cancel handlers.
type Mode int

const (
	ModeIdle Mode = iota
	ModeAuction
	ModeRaffle
	ModeBetting
)

func (m Mode) String() string {
	switch m {
	case ModeAuction:
		return "auction"
	case ModeRaffle:
		return "raffle"
	case ModeBetting:
		return "betting"
	default:
		return "idle"
	}
}

// Ledger is the slice of the points store the engine needs.
type Ledger interface {
	Lookup(ctx context.Context, names []string) ([]ledger.Balance, error)
	Apply(ctx context.Context, adjs ...ledger.Adjustment) error
	Deposit(ctx context.Context, names []string, amount int) error
	Exists(ctx context.Context, name string) (bool, error)
}

// Notifier is the outbound queue.
type Notifier interface {
	Enqueue(irc.OutboundMessage)
}

// Auth answers privilege checks against the live moderator set.
type Auth interface {
	IsMod(name string) bool
}

// Options carries the static configuration of the engine.
type Options struct {
	CurrencyName string
	Website      string
	Broadcaster  string // display-cased channel owner
	BotName      string
}

const (
	floodCap = 10 // aggregated response / immediate-announce threshold

	defaultRespDelay   = 3 * time.Second
	defaultToggleTimer = 3 * time.Minute

	bidDebounce   = 5 * time.Second
	bidRepeat     = 30 * time.Second
	fastRespDelay = 3 * time.Second

	defaultTicketCost = 10
	defaultMaxTickets = 10
)

// requestProfile is the balance-request configuration snapshotted around
// game modes: the off toggle, the debounce delay, and whether the debounce
// timer resets on each new request.
type requestProfile struct {
	off   bool
	delay time.Duration
	reset bool
}

// Bid is one active auction bid. Amounts are unique across viewers.
type Bid struct {
	Viewer string
	Amount int
}

// TicketRequest is a viewer's requested raffle ticket count.
type TicketRequest struct {
	Viewer  string
	Tickets int
}

// BetEntry is one viewer's stake on a board option.
type BetEntry struct {
	Viewer string
	Option string
	Amount int
}

// Currency is the engine. All exported methods lock mu; timer callbacks do
// the same, so no two mutations interleave mid-operation.
type Currency struct {
	ctx   context.Context
	opts  Options
	store Ledger
	queue Notifier
	auth  Auth

	mu sync.Mutex

	// balance request aggregation
	pending     []string
	respTimer   *time.Timer
	respDelay   time.Duration
	respReset   bool
	requestsOff bool
	offRepeat   *time.Ticker
	offDone     chan struct{}

	// game mode coordination
	mode  Mode
	saved *requestProfile

	// auction
	bids       []Bid
	prevWinner *Bid
	bidTimer   *time.Timer
	bidTicker  *time.Ticker
	bidDone    chan struct{}

	// raffle
	ticketCost   int
	maxTickets   int
	savedPricing *[2]int // defaults held aside while a session override is active
	tickets      []TicketRequest
	pool         []string
	restoreReqs  []TicketRequest
	restorePool  []string

	// betting
	board         []string
	bets          []BetEntry
	payoutPending bool
	roundID       string

	// handout
	streaming bool
	giveCoins bool
	viewers   map[string]struct{}
}

// New constructs the engine. ctx bounds all store calls issued by handlers.
func New(ctx context.Context, store Ledger, queue Notifier, auth Auth, opts Options) *Currency {
	return &Currency{
		ctx:        ctx,
		opts:       opts,
		store:      store,
		queue:      queue,
		auth:       auth,
		respDelay:  defaultRespDelay,
		respReset:  true,
		ticketCost: defaultTicketCost,
		maxTickets: defaultMaxTickets,
		viewers:    make(map[string]struct{}),
	}
}

// preText prefixes every engine announcement, e.g. "> coins: ".
func (c *Currency) preText() string {
	return "> " + c.opts.CurrencyName + ": "
}

func (c *Currency) say(text string) {
	c.queue.Enqueue(irc.OutboundMessage{Text: text})
}

// sayFast enqueues with the short flood-response delay.
func (c *Currency) sayFast(text string) {
	c.queue.Enqueue(irc.OutboundMessage{Text: text, Delay: time.Millisecond})
}

// Mode returns the active game mode for the status endpoint.
func (c *Currency) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Currency) setMode(m Mode) {
	c.mode = m
	telemetry.SetActiveMode(int(m))
}

// HandleMessage is the single dispatch entry wired to the transport. It
// consumes WHO replies for viewer tracking and PRIVMSG commands.
func (c *Currency) HandleMessage(m irc.Message) {
	switch m.Verb {
	case "352": // WHO reply: args are client, channel, user, host, server, nick, ...
		if len(m.Args) >= 6 {
			c.trackViewer(m.Args[5])
		}
	case "315": // end of WHO: pay out the tracked viewer list
		c.flushHandout()
	case "PRIVMSG":
		cmd, ok := m.Command()
		if !ok {
			return
		}
		c.trackViewer(cmd.From)
		c.handleCommand(cmd)
	}
}

// handleCommand routes one chat command.
func (c *Currency) handleCommand(cmd irc.Command) {
	c.mu.Lock()
	defer c.mu.Unlock()

	callerLower := strings.ToLower(cmd.From)
	fromBroadcaster := callerLower == strings.ToLower(c.opts.Broadcaster) || callerLower == strings.ToLower(c.opts.BotName)
	fromMod := c.auth.IsMod(cmd.From)

	name := strings.ToLower(cmd.Name)
	switch name {
	case "!" + strings.ToLower(c.opts.CurrencyName):
		c.handleCurrencyCommand(cmd, fromBroadcaster, fromMod)
		return
	case "!bid":
		if amt, ok := parseAmount(cmd.Args, 1); ok {
			c.bid(cmd.From, amt)
		}
		return
	case "!ticket":
		if amt, ok := parseAmount(cmd.Args, 0); ok {
			c.buyTicket(cmd.From, amt)
		}
		return
	}

	// board option bets, only while a round is open
	if c.mode == ModeBetting {
		for _, opt := range c.board {
			if name == "!"+strings.ToLower(opt) {
				if amt, ok := parseAmount(cmd.Args, 0); ok {
					c.placeBet(cmd.From, opt, amt)
				}
				return
			}
		}
	}
}

// handleCurrencyCommand routes the !<currency> subcommands. Called with mu
// held.
func (c *Currency) handleCurrencyCommand(cmd irc.Command, fromBroadcaster, fromMod bool) {
	if len(cmd.Args) == 0 {
		if !c.requestsOff {
			c.requestBalance(cmd.From)
		}
		return
	}

	if fromBroadcaster {
		switch cmd.Args[0] {
		case "auction":
			c.handleAuctionCommand(cmd.Args[1:])
			return
		case "raffle":
			c.handleRaffleCommand(cmd.Args[1:])
			return
		case "bet":
			c.handleBetCommand(cmd.Args[1:])
			return
		case "add", "remove", "push":
			if len(cmd.Args) >= 3 {
				if amt, err := strconv.Atoi(cmd.Args[1]); err == nil && amt > 0 {
					c.adjust(cmd.Args[0], amt, cmd.Args[2])
				}
			}
			return
		}
	}

	if fromBroadcaster || fromMod {
		switch cmd.Args[0] {
		case "on":
			c.requestsOn()
		case "off":
			c.requestsOffCmd(cmd.Args[1:])
		case "timer":
			c.requestTimerCmd(cmd.Args[1:])
		}
	}
}

func (c *Currency) handleAuctionCommand(args []string) {
	if len(args) == 0 {
		return
	}
	switch args[0] {
	case "open":
		c.openAuction()
	case "close":
		c.closeAuction()
	case "draw":
		c.drawNextBidder()
	case "cancel":
		c.cancelAuction()
	}
}

func (c *Currency) handleRaffleCommand(args []string) {
	if len(args) == 0 {
		return
	}
	switch args[0] {
	case "open":
		cost, max := 0, 0
		if len(args) >= 3 {
			if v1, err := strconv.Atoi(args[1]); err == nil && v1 > 0 {
				if v2, err := strconv.Atoi(args[2]); err == nil && v2 > 0 {
					cost, max = v1, v2
				}
			}
		}
		c.openRaffle(cost, max)
	case "close":
		c.closeRaffle()
	case "draw":
		c.drawNextTicket()
	case "cancel":
		c.cancelRaffle()
	case "restore":
		c.restoreRaffle()
	}
}

func (c *Currency) handleBetCommand(args []string) {
	if len(args) == 0 {
		return
	}
	switch args[0] {
	case "open":
		c.openBetting(args[1:])
	case "close":
		c.closeBetting()
	case "winner":
		if len(args) >= 2 {
			c.settleBetting(args[1])
		}
	}
}

// parseAmount reads a whole non-negative integer argument with a minimum.
func parseAmount(args []string, min int) (int, bool) {
	if len(args) == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(args[0])
	if err != nil || v < min {
		return 0, false
	}
	return v, true
}
