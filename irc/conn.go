// Package irc implements the Twitch IRC line transport: socket lifecycle,
// line framing, keepalive, moderator tracking, reconnection, and the paced
// outbound message queue.
package irc

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/onnwee/coinbot/telemetry"
)

const dialRetryDelay = 2 * time.Second

// Options configures a Conn.
type Options struct {
	Addr     string // host:port of the IRC server
	Nick     string // bot login name
	Pass     string // oauth token used as PASS
	Channel  string // channel without '#'
	Dial     func(addr string) (net.Conn, error)
}

// Conn owns the socket to the IRC server. Registration, keepalive, channel
// join and moderator bookkeeping happen inside Run; outbound lines go
// through Send. Socket errors are never fatal: the run loop tears down and
// redials immediately, forever.
type Conn struct {
	opts Options

	mu   sync.Mutex
	conn net.Conn
	pass string
	mods map[string]struct{}

	onRaw     []func(dir, line string)
	onMessage []func(Message)
}

// NewConn creates a transport for the given server and channel. Handlers
// must be registered before Run is called.
func NewConn(opts Options) *Conn {
	if opts.Dial == nil {
		opts.Dial = func(addr string) (net.Conn, error) {
			return net.DialTimeout("tcp", addr, 10*time.Second)
		}
	}
	return &Conn{opts: opts, pass: opts.Pass, mods: make(map[string]struct{})}
}

// OnRaw registers a handler for raw line events in both directions
// (dir is "RECV" or "SENT").
func (c *Conn) OnRaw(fn func(dir, line string)) { c.onRaw = append(c.onRaw, fn) }

// OnMessage registers a handler for parsed messages. Self-sent PRIVMSGs are
// delivered through the same handlers so the bot's own commands are
// observable by the normal dispatch path.
func (c *Conn) OnMessage(fn func(Message)) { c.onMessage = append(c.onMessage, fn) }

// SetPassword replaces the PASS credential used on the next (re)connect.
// Called by the token refresher when the chat token rotates.
func (c *Conn) SetPassword(pass string) {
	c.mu.Lock()
	c.pass = pass
	c.mu.Unlock()
}

// Connected reports whether a socket is currently open.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// IsMod reports whether name currently holds operator privilege.
func (c *Conn) IsMod(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.mods[strings.ToLower(name)]
	return ok
}

// Mods returns a snapshot of the moderator set, display-cased.
func (c *Conn) Mods() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.mods))
	for m := range c.mods {
		out = append(out, Capitalize(m))
	}
	return out
}

// Run dials and services the connection until ctx is cancelled. Any socket
// error tears the connection down and redials immediately; only a failed
// dial itself waits a short fixed delay to avoid spinning against a dead
// network.
func (c *Conn) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := c.opts.Dial(c.opts.Addr)
		if err != nil {
			slog.Error("irc dial failed", slog.Any("err", err), slog.String("addr", c.opts.Addr))
			select {
			case <-ctx.Done():
				return
			case <-time.After(dialRetryDelay):
			}
			continue
		}
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		slog.Info("irc connected, registering", slog.String("addr", c.opts.Addr))
		c.register()
		c.readLoop(ctx, conn)
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		telemetry.IncReconnects()
		slog.Warn("irc connection lost, reconnecting")
	}
}

// Reconnect forces a teardown of the current socket: a graceful QUIT, then a
// hard close. The run loop notices the dead socket and redials.
func (c *Conn) Reconnect() {
	c.Send("QUIT", true)
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// register performs the PASS/NICK/USER sequence. The channel join waits for
// the server's end-of-MOTD signal in the read loop.
func (c *Conn) register() {
	c.mu.Lock()
	pass := c.pass
	c.mu.Unlock()
	nick := strings.ToLower(c.opts.Nick)
	c.Send("PASS "+pass, true)
	c.Send("NICK "+nick, false)
	c.Send("USER "+nick+" "+nick+".tv "+nick+" :"+c.opts.Nick, false)
}

func (c *Conn) readLoop(ctx context.Context, conn net.Conn) {
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("irc read error", slog.Any("err", err))
			}
			return
		}
		c.handleLine(strings.TrimRight(line, "\r\n"))
	}
}

// handleLine frames one complete received line: keepalive reply, join-ready
// signal, moderator mode changes, then fan-out to handlers.
func (c *Conn) handleLine(line string) {
	c.emitRaw("RECV", line)
	m := ParseMessage(line)
	switch m.Verb {
	case "PING":
		token := m.Text
		if token == "" && len(m.Args) > 0 {
			token = m.Args[0]
		}
		c.Send("PONG :"+token, true)
	case "376": // end of MOTD: registration done, join the channel
		c.Send("JOIN #"+c.opts.Channel, false)
	case "MODE":
		c.trackMode(m)
	}
	for _, fn := range c.onMessage {
		fn(m)
	}
}

// trackMode applies +o/-o grants for the bot's channel to the moderator set.
func (c *Conn) trackMode(m Message) {
	if len(m.Args) < 3 || m.Args[0] != "#"+c.opts.Channel {
		return
	}
	nick := strings.ToLower(m.Args[2])
	c.mu.Lock()
	defer c.mu.Unlock()
	switch m.Args[1] {
	case "+o":
		c.mods[nick] = struct{}{}
	case "-o":
		delete(c.mods, nick)
	}
}

// Send writes one line to the socket. Write failures are logged and surface
// later as a read error; Send never reports them to the caller. Unless
// silent, the line is mirrored as a raw "SENT" event, and PRIVMSGs
// additionally synthesize a parsed message from the bot itself.
func (c *Conn) Send(line string, silent bool) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		slog.Warn("irc send with no connection", slog.String("line", firstWord(line)))
		return
	}
	if _, err := conn.Write([]byte(line + "\r\n")); err != nil {
		slog.Error("irc write error", slog.Any("err", err))
		return
	}
	if silent {
		return
	}
	if strings.HasPrefix(line, "PRIVMSG ") {
		m := ParseMessage(line)
		m.Prefix = strings.ToLower(c.opts.Nick)
		c.emitRaw("SENT", c.opts.Nick+" "+line)
		for _, fn := range c.onMessage {
			fn(m)
		}
		return
	}
	c.emitRaw("SENT", line)
}

// Privmsg sends a chat message to the bot's channel.
func (c *Conn) Privmsg(text string) {
	c.Send("PRIVMSG #"+c.opts.Channel+" :"+text, false)
	telemetry.IncMessagesSent()
}

func (c *Conn) emitRaw(dir, line string) {
	for _, fn := range c.onRaw {
		fn(dir, line)
	}
}

func firstWord(s string) string {
	if idx := strings.IndexByte(s, ' '); idx >= 0 {
		return s[:idx]
	}
	return s
}
