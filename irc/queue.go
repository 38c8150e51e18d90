package irc

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/onnwee/coinbot/telemetry"
)

var (
	queuePollInterval = 500 * time.Millisecond
	queuePaceInterval = 500 * time.Millisecond
	queueDefaultDelay = 2 * time.Second
)

// dupMarkers are cycled onto the first character of a message that would
// repeat the previously sent text, so the server doesn't swallow it as a
// duplicate.
var dupMarkers = []byte{'>', '+'}

// OutboundMessage is one chat-bound message. ModOnly messages are dropped at
// send time unless Caller holds operator privilege.
type OutboundMessage struct {
	Text    string
	ModOnly bool
	Caller  string
	Delay   time.Duration // pre-send delay; zero means the default
}

// ChatSender is the sink the queue drains into.
type ChatSender interface {
	Privmsg(text string)
	IsMod(name string) bool
}

// Queue serializes all chat-bound messages in FIFO order, paces them, and
// rewrites immediate repeats. Enqueue never blocks and never rejects.
type Queue struct {
	sender ChatSender

	mu    sync.Mutex
	items []OutboundMessage
	prev  string
}

func NewQueue(sender ChatSender) *Queue {
	return &Queue{sender: sender}
}

// Enqueue appends a message to the FIFO.
func (q *Queue) Enqueue(m OutboundMessage) {
	q.mu.Lock()
	q.items = append(q.items, m)
	telemetry.SetQueueDepth(len(q.items))
	q.mu.Unlock()
}

// Say is shorthand for enqueueing plain unprivileged text.
func (q *Queue) Say(text string) {
	q.Enqueue(OutboundMessage{Text: text})
}

// Depth returns the number of queued messages.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Run drains the queue until ctx is cancelled: pop, rewrite duplicates, wait
// the message delay, send (gated by privilege), then a short pacing pause.
func (q *Queue) Run(ctx context.Context) {
	for {
		m, ok := q.pop()
		if !ok {
			if !sleepCtx(ctx, queuePollInterval) {
				return
			}
			continue
		}

		text := q.rewriteDup(m.Text)

		delay := m.Delay
		if delay <= 0 {
			delay = queueDefaultDelay
		}
		if !sleepCtx(ctx, delay) {
			return
		}

		if m.ModOnly && !q.sender.IsMod(m.Caller) {
			slog.Debug("queue dropped mod-only message", slog.String("caller", m.Caller))
		} else {
			q.sender.Privmsg(text)
		}

		if !sleepCtx(ctx, queuePaceInterval) {
			return
		}
	}
}

func (q *Queue) pop() (OutboundMessage, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return OutboundMessage{}, false
	}
	m := q.items[0]
	q.items = q.items[1:]
	telemetry.SetQueueDepth(len(q.items))
	return m, true
}

// rewriteDup substitutes the first character with a marker when text equals
// the previously sent line. The tracked "previous" is only for this check.
func (q *Queue) rewriteDup(text string) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if text == q.prev && text != "" {
		for _, marker := range dupMarkers {
			if text[0] != marker {
				text = string(marker) + text[1:]
				telemetry.IncMessagesDeduped()
				break
			}
		}
	}
	q.prev = text
	return text
}

// sleepCtx waits for d, returning false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
