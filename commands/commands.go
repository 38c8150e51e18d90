// Package commands is the static command plugin: a read-only database of
// command name → reply text, with a moderator-only flag. The core treats it
// purely as lookup; replies ride the outbound queue's privilege gate.
package commands

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/onnwee/coinbot/irc"
)

// Enqueuer is the outbound queue.
type Enqueuer interface {
	Enqueue(irc.OutboundMessage)
}

type Plugin struct {
	ctx   context.Context
	db    *sql.DB
	queue Enqueuer

	botName      string
	currencyName string

	names []string // cached command names for the listing reply
}

func New(db *sql.DB, queue Enqueuer, botName, currencyName string) *Plugin {
	return &Plugin{db: db, queue: queue, botName: botName, currencyName: currencyName}
}

// Start caches the stored command names once; commands added to the table
// afterwards are picked up on the next restart. ctx also bounds the reply
// lookups HandleMessage issues.
func (p *Plugin) Start(ctx context.Context) error {
	p.ctx = ctx
	rows, err := p.db.QueryContext(ctx, `SELECT name FROM commands ORDER BY name`)
	if err != nil {
		return fmt.Errorf("load commands: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan command: %w", err)
		}
		p.names = append(p.names, name)
	}
	return rows.Err()
}

// HandleMessage replies to stored commands and to "!<botname>" with the
// command listing.
func (p *Plugin) HandleMessage(m irc.Message) {
	cmd, ok := m.Command()
	if !ok || !strings.HasPrefix(cmd.Name, "!") {
		return
	}
	word := strings.ToLower(strings.TrimPrefix(cmd.Name, "!"))

	if word == strings.ToLower(p.botName) {
		listing := "> Commands: !" + strings.ToLower(p.currencyName)
		for _, n := range p.names {
			listing += ", !" + n
		}
		p.queue.Enqueue(irc.OutboundMessage{Text: listing, ModOnly: true, Caller: cmd.From})
		return
	}

	known := false
	for _, n := range p.names {
		if n == word {
			known = true
			break
		}
	}
	if !known {
		return
	}

	var reply string
	var modOnly bool
	err := p.db.QueryRowContext(p.ctx, `SELECT reply, mod_only FROM commands WHERE name=$1`, word).Scan(&reply, &modOnly)
	if err != nil {
		if err != sql.ErrNoRows {
			slog.Error("command lookup failed", slog.Any("err", err), slog.String("command", word))
		}
		return
	}
	p.queue.Enqueue(irc.OutboundMessage{Text: reply, ModOnly: modOnly, Caller: cmd.From})
}
