package irc

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

// testConn wires a Conn to the client half of a net.Pipe and returns a
// channel of lines the "server" receives. setup runs before the run loop
// starts, for handler registration.
func testConn(t *testing.T, opts Options, setup func(*Conn)) (*Conn, net.Conn, chan string, context.CancelFunc) {
	t.Helper()
	client, server := net.Pipe()
	connected := make(chan struct{}, 1)
	connected <- struct{}{}
	opts.Addr = "test:6667"
	opts.Dial = func(addr string) (net.Conn, error) {
		select {
		case <-connected:
			return client, nil
		default:
			return nil, errors.New("no more connections")
		}
	}
	c := NewConn(opts)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		server.Close()
	})

	lines := make(chan string, 64)
	go func() {
		r := bufio.NewReader(server)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			lines <- strings.TrimRight(line, "\r\n")
		}
	}()
	if setup != nil {
		setup(c)
	}
	go c.Run(ctx)
	return c, server, lines, cancel
}

func expectLine(t *testing.T, lines chan string, want string) {
	t.Helper()
	select {
	case got := <-lines:
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func TestConnRegistrationKeepaliveAndJoin(t *testing.T) {
	c, server, lines, _ := testConn(t, Options{Nick: "CoinBot", Pass: "oauth:tok", Channel: "chan"}, nil)

	expectLine(t, lines, "PASS oauth:tok")
	expectLine(t, lines, "NICK coinbot")
	expectLine(t, lines, "USER coinbot coinbot.tv coinbot :CoinBot")

	if _, err := server.Write([]byte("PING :12345\r\n")); err != nil {
		t.Fatal(err)
	}
	expectLine(t, lines, "PONG :12345")

	if _, err := server.Write([]byte(":tmi.twitch.tv 376 coinbot :>\r\n")); err != nil {
		t.Fatal(err)
	}
	expectLine(t, lines, "JOIN #chan")

	if !c.Connected() {
		t.Error("expected Connected after dial")
	}
}

func TestConnModTracking(t *testing.T) {
	c, server, lines, _ := testConn(t, Options{Nick: "coinbot", Pass: "oauth:tok", Channel: "chan"}, nil)

	expectLine(t, lines, "PASS oauth:tok")
	expectLine(t, lines, "NICK coinbot")
	expectLine(t, lines, "USER coinbot coinbot.tv coinbot :coinbot")

	if _, err := server.Write([]byte(":jtv MODE #chan +o alice\r\n")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return c.IsMod("Alice") })

	// grants for other channels are ignored
	if _, err := server.Write([]byte(":jtv MODE #other +o bob\r\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := server.Write([]byte(":jtv MODE #chan -o alice\r\n")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return !c.IsMod("alice") })
	if c.IsMod("bob") {
		t.Error("mod grant for another channel should be ignored")
	}
}

func TestConnSelfSentPrivmsg(t *testing.T) {
	received := make(chan Message, 8)
	c, _, lines, _ := testConn(t, Options{Nick: "coinbot", Pass: "oauth:tok", Channel: "chan"}, func(c *Conn) {
		c.OnMessage(func(m Message) {
			if m.Verb == "PRIVMSG" {
				received <- m
			}
		})
	})

	expectLine(t, lines, "PASS oauth:tok")
	expectLine(t, lines, "NICK coinbot")
	expectLine(t, lines, "USER coinbot coinbot.tv coinbot :coinbot")

	c.Privmsg("hello chat")
	expectLine(t, lines, "PRIVMSG #chan :hello chat")

	select {
	case m := <-received:
		if m.Prefix != "coinbot" {
			t.Errorf("Prefix = %q, want coinbot", m.Prefix)
		}
		if m.Text != "hello chat" {
			t.Errorf("Text = %q", m.Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("self-sent PRIVMSG not delivered to handlers")
	}
}
