package currency

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// requestBalance adds a viewer to the pending flood set and (re)arms the
// debounce flush. Hitting the flood cap flushes immediately. Called with mu
// held.
func (c *Currency) requestBalance(viewer string) {
	present := false
	for _, v := range c.pending {
		if strings.EqualFold(v, viewer) {
			present = true
			break
		}
	}
	if !present {
		c.pending = append(c.pending, viewer)
	}

	if c.respReset && c.respTimer != nil {
		c.respTimer.Stop()
	}

	if len(c.pending) >= floodCap {
		c.flushRequestsLocked()
		return
	}

	t := time.AfterFunc(c.respDelay, c.flushRequests)
	if c.respReset {
		c.respTimer = t
	}
}

func (c *Currency) flushRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushRequestsLocked()
}

// flushRequestsLocked issues one batched lookup for the union of pending
// viewers and enqueues exactly one response line. Called with mu held.
func (c *Currency) flushRequestsLocked() {
	if len(c.pending) == 0 {
		return
	}
	names := c.pending
	c.pending = nil

	balances, err := c.store.Lookup(c.ctx, names)
	if err != nil {
		slog.Error("balance lookup failed", slog.Any("err", err), slog.Int("viewers", len(names)))
		return
	}

	if len(balances) == 1 {
		b := balances[0]
		c.sayFast(c.preText() + b.Name + " " + c.fillRequest(b.Name, b.Points))
		return
	}
	parts := make([]string, 0, len(balances))
	for _, b := range balances {
		parts = append(parts, b.Name+" "+c.fillRequest(b.Name, b.Points))
	}
	c.sayFast(c.preText() + strings.Join(parts, ", "))
}

// fillRequest formats one viewer's balance. While a raffle is open and the
// viewer has an affordable ticket request, the remaining balance after the
// pending purchase and the ticket count are shown instead.
func (c *Currency) fillRequest(viewer string, points int) string {
	if c.mode == ModeRaffle {
		for _, tr := range c.tickets {
			if strings.EqualFold(tr.Viewer, viewer) {
				cost := tr.Tickets * c.ticketCost
				if cost <= points {
					return fmt.Sprintf("(%d) [%d]", points-cost, tr.Tickets)
				}
				break
			}
		}
	}
	return fmt.Sprintf("(%d)", points)
}
