package currency

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/onnwee/coinbot/ledger"
)

var raffleEmptyPhrases = []string{
	"Hey, I just met you and this is crazy, but there's no more tickets, so start a new raffle maybe?",
	"Are there more tickets? Well, to tell you the truth, in all this excitement I kind of lost track myself.",
	"Heyyyyyy there's no more tickets, Op, op, op, op, Open Raffle Style.",
	"Da tickets! Da tickets! Where are all da tickets, boss?",
}

// openRaffle starts a new raffle session. cost/max of zero means no
// override: pricing reverts to the defaults held aside by a previous
// override, if any. The prior session's requests and pool are snapshotted
// for accidental-reopen recovery before being cleared. Called with mu held.
func (c *Currency) openRaffle(cost, max int) {
	if !c.guardOpen(ModeRaffle) {
		return
	}
	if c.mode == ModeRaffle {
		c.say(c.preText() + "Raffle already in progress")
		return
	}

	if cost > 0 && max > 0 {
		if c.savedPricing == nil {
			c.savedPricing = &[2]int{c.ticketCost, c.maxTickets}
		}
		c.ticketCost, c.maxTickets = cost, max
	} else if c.savedPricing != nil {
		c.ticketCost, c.maxTickets = c.savedPricing[0], c.savedPricing[1]
		c.savedPricing = nil
	}

	c.enterMode(ModeRaffle)
	c.restoreReqs, c.restorePool = c.tickets, c.pool
	c.tickets, c.pool = nil, nil

	c.say(c.preText() + "Raffle opened")
	c.say(fmt.Sprintf("+ Tickets cost %d %s / Maximum of %d tickets per viewer",
		c.ticketCost, strings.ToLower(c.opts.CurrencyName), c.maxTickets))
}

// buyTicket records, replaces, or (with amount zero) removes a viewer's
// ticket request. Amounts outside [0, max] are ignored. Called with mu held.
func (c *Currency) buyTicket(viewer string, amount int) {
	if amount < 0 || amount > c.maxTickets {
		return
	}
	for i, tr := range c.tickets {
		if tr.Viewer == viewer {
			if amount == 0 {
				c.tickets = append(c.tickets[:i], c.tickets[i+1:]...)
			} else {
				c.tickets[i].Tickets = amount
			}
			return
		}
	}
	if amount >= 1 {
		c.tickets = append(c.tickets, TicketRequest{Viewer: viewer, Tickets: amount})
	}
}

// closeRaffle validates requests against live balances, builds the ticket
// pool, draws a winner, and applies the accumulated debits. Viewers who
// can't cover their full request are excluded entirely. Called with mu held.
func (c *Currency) closeRaffle() {
	if c.mode != ModeRaffle {
		c.say(c.preText() + "Raffle is already closed")
		return
	}
	c.exitMode()

	if len(c.tickets) == 0 {
		c.say(c.preText() + "Raffle closed, no tickets to draw a winner")
		return
	}

	names := make([]string, len(c.tickets))
	for i, tr := range c.tickets {
		names[i] = tr.Viewer
	}
	balances, err := c.store.Lookup(c.ctx, names)
	if err != nil {
		slog.Error("raffle close lookup failed", slog.Any("err", err))
		c.say(c.preText() + "Raffle closed, no tickets to draw a winner")
		return
	}

	var adjs []ledger.Adjustment
	for i, b := range balances { // balances preserve request order
		tr := c.tickets[i]
		cost := tr.Tickets * c.ticketCost
		if b.Points >= cost {
			for k := 0; k < tr.Tickets; k++ {
				c.pool = append(c.pool, tr.Viewer)
			}
			adjs = append(adjs, ledger.Adjustment{Op: ledger.OpSubtract, Name: tr.Viewer, Amount: cost})
		}
	}

	if len(c.pool) == 0 {
		c.say(c.preText() + "Raffle closed, no tickets to draw a winner")
		return
	}

	winner := c.drawTicket()
	c.say(c.preText() + fmt.Sprintf("Raffle closed, %d tickets purchased!", len(c.pool)+1))
	c.say(fmt.Sprintf("+ Winner: %s (%d tickets purchased)", winner, c.ticketCountFor(winner)))

	if err := c.store.Apply(c.ctx, adjs...); err != nil {
		slog.Error("raffle debit failed", slog.Any("err", err))
	}
}

// drawTicket shuffles the pool, picks one entry uniformly, and removes
// exactly that one entry so a redraw excludes one winning ticket but keeps
// the rest in play. Callers must ensure the pool is non-empty.
func (c *Currency) drawTicket() string {
	rand.Shuffle(len(c.pool), func(i, j int) {
		c.pool[i], c.pool[j] = c.pool[j], c.pool[i]
	})
	idx := rand.IntN(len(c.pool))
	winner := c.pool[idx]
	c.pool = append(c.pool[:idx], c.pool[idx+1:]...)
	return winner
}

func (c *Currency) ticketCountFor(viewer string) int {
	for _, tr := range c.tickets {
		if tr.Viewer == viewer {
			return tr.Tickets
		}
	}
	return 0
}

// cancelRaffle discards the session without debits and without touching the
// restore snapshot. Called with mu held.
func (c *Currency) cancelRaffle() {
	if c.mode != ModeRaffle {
		c.say(c.preText() + "Raffle is not opened")
		return
	}
	c.exitMode()
	c.tickets, c.pool = nil, nil
	c.say(c.preText() + "Raffle has been cancelled")
}

// restoreRaffle recovers from an accidental reopen: the open session is
// closed and the previous session's requests and pool are reinstated.
// Called with mu held.
func (c *Currency) restoreRaffle() {
	if c.mode != ModeRaffle {
		c.say(c.preText() + "Raffle is closed, unable to restore")
		return
	}
	c.exitMode()
	c.tickets, c.pool = c.restoreReqs, c.restorePool
	c.say(c.preText() + "Previous raffle has been restored")
}

// drawNextTicket redraws from the remaining pool of the prior close, with no
// further debiting. Called with mu held.
func (c *Currency) drawNextTicket() {
	if c.mode == ModeRaffle {
		return
	}
	if len(c.pool) == 0 {
		c.say(c.preText() + raffleEmptyPhrases[rand.IntN(len(raffleEmptyPhrases))])
		return
	}
	winner := c.drawTicket()
	c.say(c.preText() + "Drawing next ticket")
	c.say(fmt.Sprintf("+ Winner: %s (%d tickets purchased)", winner, c.ticketCountFor(winner)))
}
