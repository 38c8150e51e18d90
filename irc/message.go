package irc

import (
	"strings"
)

// Message is a single parsed IRC line. The transport produces it once per
// line so downstream code dispatches on named fields instead of positional
// token arithmetic.
type Message struct {
	Raw    string
	Prefix string   // sender prefix without the leading colon (nick!user@host or server name)
	Verb   string   // PRIVMSG, PING, MODE, numeric replies like 376/352/315
	Args   []string // middle parameters (channel, mode flags, ...)
	Text   string   // trailing parameter, if any
}

// Command is a chat line shaped like a bot command: the first word of a
// PRIVMSG payload plus its remaining words. Self-sent messages synthesize
// the same structure so the bot's own chat flows through one dispatch path.
type Command struct {
	From string   // display name of the sender
	Name string   // first word, e.g. "!coins"
	Args []string // remaining words
}

// ParseMessage splits a raw IRC line into prefix, verb, middle args and
// trailing text. Lines are tokenized on single ASCII spaces with no quoting
// rules, per the wire protocol.
func ParseMessage(line string) Message {
	m := Message{Raw: line}
	rest := line

	if strings.HasPrefix(rest, ":") {
		idx := strings.IndexByte(rest, ' ')
		if idx < 0 {
			m.Prefix = rest[1:]
			return m
		}
		m.Prefix = rest[1:idx]
		rest = rest[idx+1:]
	}

	if idx := strings.Index(rest, " :"); idx >= 0 {
		m.Text = rest[idx+2:]
		rest = rest[:idx]
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return m
	}
	m.Verb = fields[0]
	m.Args = fields[1:]
	return m
}

// Command extracts the command view of a PRIVMSG, or ok=false when the
// message carries no chat payload.
func (m Message) Command() (Command, bool) {
	if m.Verb != "PRIVMSG" || m.Text == "" {
		return Command{}, false
	}
	words := strings.Fields(m.Text)
	if len(words) == 0 {
		return Command{}, false
	}
	return Command{From: Caller(m.Prefix), Name: words[0], Args: words[1:]}, true
}

// Caller extracts the display name from a sender prefix of the form
// nick!user@host, capitalizing the first letter. This is the canonical
// viewer identity used by every downstream component.
func Caller(prefix string) string {
	nick := prefix
	if idx := strings.IndexByte(nick, '!'); idx >= 0 {
		nick = nick[:idx]
	}
	return Capitalize(nick)
}

// Capitalize upper-cases the first letter of a viewer name for display.
func Capitalize(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
