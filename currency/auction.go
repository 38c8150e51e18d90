package currency

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/onnwee/coinbot/ledger"
)

var auctionEmptyPhrases = []string{
	"Hey, I just met you and this is crazy, but there's no more bidders, so start a new auction maybe?",
	"Are there more bidders? Well, to tell you the truth, in all this excitement I kind of lost track myself.",
	"Heyyyyyy there's no more bidders, Op, op, op, op, Open Auction Style.",
	"Da bids! Da bids! Where are all da bids, boss?",
}

// openAuction clears bid state and starts accepting bids. Called with mu
// held.
func (c *Currency) openAuction() {
	if !c.guardOpen(ModeAuction) {
		return
	}
	if c.mode == ModeAuction {
		c.say(c.preText() + "Auction already in progress")
		return
	}
	c.enterMode(ModeAuction)
	c.bids = nil
	c.prevWinner = nil
	c.say(c.preText() + "Auction opened, accepting bids")
}

// bid validates and records one bid. Bids below the viewer's live balance
// are rejected silently, as are non-raises and amounts already held by
// another bidder. Called with mu held.
func (c *Currency) bid(viewer string, amount int) {
	if c.mode != ModeAuction {
		return
	}
	balances, err := c.store.Lookup(c.ctx, []string{viewer})
	if err != nil {
		slog.Error("bid balance lookup failed", slog.Any("err", err), slog.String("viewer", viewer))
		return
	}
	if len(balances) == 1 && balances[0].Points >= amount {
		held := false
		for i := range c.bids {
			if c.bids[i].Viewer == viewer {
				held = true
				if amount > c.bids[i].Amount && !c.bidAmountTaken(amount) {
					c.bids[i].Amount = amount
				}
				break
			}
		}
		if !held && !c.bidAmountTaken(amount) {
			c.bids = append(c.bids, Bid{Viewer: viewer, Amount: amount})
		}
	}

	// restart the announcement timers; on an exact flood multiple announce
	// the current highest immediately instead of waiting
	c.stopBidTimers()
	if len(c.bids) == 0 {
		return
	}
	high := c.highestBid()
	msg := c.preText() + fmt.Sprintf("Highest bid, %s @ %d", high.Viewer, high.Amount)
	if len(c.bids)%floodCap == 0 {
		c.sayFast(msg)
		return
	}
	c.startBidTimers(msg)
}

func (c *Currency) bidAmountTaken(amount int) bool {
	for _, b := range c.bids {
		if b.Amount == amount {
			return true
		}
	}
	return false
}

// highestBid returns the first bid holding the maximum amount, in insertion
// order. Callers must ensure the bid list is non-empty.
func (c *Currency) highestBid() Bid {
	max := c.bids[0].Amount
	for _, b := range c.bids[1:] {
		if b.Amount > max {
			max = b.Amount
		}
	}
	for _, b := range c.bids {
		if b.Amount == max {
			return b
		}
	}
	return c.bids[0]
}

func (c *Currency) removeBid(viewer string) {
	for i, b := range c.bids {
		if b.Viewer == viewer {
			c.bids = append(c.bids[:i], c.bids[i+1:]...)
			return
		}
	}
}

func (c *Currency) startBidTimers(msg string) {
	c.bidTimer = time.AfterFunc(bidDebounce, func() {
		c.mu.Lock()
		if c.mode == ModeAuction {
			c.sayFast(msg)
		}
		c.mu.Unlock()
	})
	ticker := time.NewTicker(bidRepeat)
	done := make(chan struct{})
	c.bidTicker, c.bidDone = ticker, done
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				c.mu.Lock()
				if c.mode == ModeAuction {
					c.sayFast(msg)
				}
				c.mu.Unlock()
			}
		}
	}()
}

// stopBidTimers clears both announcement timers; stopping timers that never
// fired is a no-op. Called with mu held.
func (c *Currency) stopBidTimers() {
	if c.bidTimer != nil {
		c.bidTimer.Stop()
		c.bidTimer = nil
	}
	if c.bidTicker != nil {
		c.bidTicker.Stop()
		close(c.bidDone)
		c.bidTicker = nil
		c.bidDone = nil
	}
}

// closeAuction finalizes the auction: the highest bidder wins, pays their
// bid, and is retained for refund-on-redraw. Called with mu held.
func (c *Currency) closeAuction() {
	if c.mode != ModeAuction {
		c.say(c.preText() + "Auction is already closed")
		return
	}
	c.stopBidTimers()
	c.exitMode()

	if len(c.bids) == 0 {
		c.say(c.preText() + "Auction closed, no bidders to pick a winner")
		return
	}
	w := c.highestBid()
	c.say(c.preText() + fmt.Sprintf("Auction closed, Winner: %s @ %d", w.Viewer, w.Amount))
	c.prevWinner = &Bid{Viewer: w.Viewer, Amount: w.Amount}
	if err := c.store.Apply(c.ctx, ledger.Adjustment{Op: ledger.OpSubtract, Name: w.Viewer, Amount: w.Amount}); err != nil {
		slog.Error("auction debit failed", slog.Any("err", err), slog.String("viewer", w.Viewer))
	}
	c.removeBid(w.Viewer)
}

// cancelAuction discards all bid state without any debit. Called with mu
// held.
func (c *Currency) cancelAuction() {
	if c.mode != ModeAuction {
		c.say(c.preText() + "Auction is not opened")
		return
	}
	c.stopBidTimers()
	c.exitMode()
	c.bids = nil
	c.prevWinner = nil
	c.say(c.preText() + "Auction has been cancelled")
}

// drawNextBidder refunds the previous winner and promotes the next highest
// bid. Only valid while no auction is open. Called with mu held.
func (c *Currency) drawNextBidder() {
	if c.mode == ModeAuction {
		return
	}
	if len(c.bids) == 0 {
		if c.prevWinner != nil {
			if err := c.store.Apply(c.ctx, ledger.Adjustment{Op: ledger.OpAdd, Name: c.prevWinner.Viewer, Amount: c.prevWinner.Amount}); err != nil {
				slog.Error("auction refund failed", slog.Any("err", err), slog.String("viewer", c.prevWinner.Viewer))
			}
			c.prevWinner = nil
		}
		c.say(c.preText() + auctionEmptyPhrases[rand.IntN(len(auctionEmptyPhrases))])
		return
	}

	w := c.highestBid()
	c.say(c.preText() + fmt.Sprintf("Drawing the next highest bid: %s @ %d", w.Viewer, w.Amount))
	adjs := []ledger.Adjustment{{Op: ledger.OpSubtract, Name: w.Viewer, Amount: w.Amount}}
	if c.prevWinner != nil {
		adjs = append([]ledger.Adjustment{{Op: ledger.OpAdd, Name: c.prevWinner.Viewer, Amount: c.prevWinner.Amount}}, adjs...)
	}
	if err := c.store.Apply(c.ctx, adjs...); err != nil {
		slog.Error("auction redraw adjustment failed", slog.Any("err", err))
	}
	c.prevWinner = &Bid{Viewer: w.Viewer, Amount: w.Amount}
	c.removeBid(w.Viewer)
}
