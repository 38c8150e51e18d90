package commands

import (
	"context"
	"sync"
	"testing"

	"github.com/onnwee/coinbot/irc"
	"github.com/onnwee/coinbot/testutil"
)

type captureQueue struct {
	mu   sync.Mutex
	msgs []irc.OutboundMessage
}

func (q *captureQueue) Enqueue(m irc.OutboundMessage) {
	q.mu.Lock()
	q.msgs = append(q.msgs, m)
	q.mu.Unlock()
}

func TestPluginRepliesToStoredCommands(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	if _, err := database.ExecContext(ctx, `DELETE FROM commands`); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := database.ExecContext(ctx,
		`INSERT INTO commands (name, reply, mod_only) VALUES ('discord', '> Join the discord at example.com', FALSE),
		 ('modsecret', '> mods only', TRUE)`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	queue := &captureQueue{}
	p := New(database, queue, "coinbot", "coins")
	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	p.HandleMessage(irc.ParseMessage(":bob!bob@h PRIVMSG #chan :!discord"))
	if len(queue.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(queue.msgs))
	}
	if queue.msgs[0].Text != "> Join the discord at example.com" || queue.msgs[0].ModOnly {
		t.Errorf("reply = %+v", queue.msgs[0])
	}

	p.HandleMessage(irc.ParseMessage(":bob!bob@h PRIVMSG #chan :!modsecret"))
	if len(queue.msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(queue.msgs))
	}
	if !queue.msgs[1].ModOnly || queue.msgs[1].Caller != "Bob" {
		t.Errorf("mod-only reply = %+v", queue.msgs[1])
	}

	p.HandleMessage(irc.ParseMessage(":bob!bob@h PRIVMSG #chan :!unknown"))
	p.HandleMessage(irc.ParseMessage(":bob!bob@h PRIVMSG #chan :plain chatter"))
	if len(queue.msgs) != 2 {
		t.Errorf("unknown commands must not reply: %d messages", len(queue.msgs))
	}

	p.HandleMessage(irc.ParseMessage(":bob!bob@h PRIVMSG #chan :!coinbot"))
	if len(queue.msgs) != 3 {
		t.Fatalf("messages = %d, want 3", len(queue.msgs))
	}
	want := "> Commands: !coins, !discord, !modsecret"
	if queue.msgs[2].Text != want {
		t.Errorf("listing = %q, want %q", queue.msgs[2].Text, want)
	}
	if !queue.msgs[2].ModOnly {
		t.Error("listing should be mod-only")
	}
}
