package currency

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/onnwee/coinbot/ledger"
)

// openBetting starts a betting round over the given option labels. A round
// cannot open while a sibling mode is active, while one is already open, or
// while a previous round's payout is unresolved. Called with mu held.
func (c *Currency) openBetting(options []string) {
	if len(options) < 2 {
		c.say(c.preText() + "Unable to open betting, need at least two items to bet against")
		return
	}
	if !c.guardOpen(ModeBetting) {
		return
	}
	// payoutPending stays set from open through settlement, so reopening an
	// open round lands here too
	if c.payoutPending {
		c.say(c.preText() + "Unable to take new bets until previous have been paid out")
		return
	}
	if c.mode == ModeBetting {
		c.say(c.preText() + "Betting already in progress")
		return
	}

	c.enterMode(ModeBetting)
	c.payoutPending = true
	c.board = append([]string(nil), options...)
	c.bets = nil
	c.roundID = uuid.NewString()
	slog.Info("betting round opened", slog.String("round", c.roundID), slog.Any("options", c.board))

	labels := make([]string, len(c.board))
	for i, opt := range c.board {
		labels[i] = `"!` + opt + `"`
	}
	c.say(c.preText() + "Betting is now open")
	c.say("+ Type " + strings.Join(labels, " / ") + " and the bet amount to enter")
}

// placeBet records, replaces, or (with amount zero on the matching option)
// removes a viewer's entry. One active entry per viewer. Called with mu
// held.
func (c *Currency) placeBet(viewer, option string, amount int) {
	if c.mode != ModeBetting {
		return
	}
	for i, b := range c.bets {
		if b.Viewer == viewer {
			if amount >= 1 {
				c.bets[i].Option = option
				c.bets[i].Amount = amount
			} else if amount == 0 && b.Option == option {
				c.bets = append(c.bets[:i], c.bets[i+1:]...)
			}
			return
		}
	}
	if amount >= 1 {
		c.bets = append(c.bets, BetEntry{Viewer: viewer, Option: option, Amount: amount})
	}
}

// closeBetting stops accepting entries and debits each stake that the
// viewer's live balance covers; uncovered entries are discarded outright,
// like raffle requests. The payout stays pending until a winner is picked.
// Called with mu held.
func (c *Currency) closeBetting() {
	if c.mode != ModeBetting || !c.payoutPending {
		return
	}
	c.exitMode()

	if len(c.bets) == 0 {
		c.say(c.preText() + "Betting closed, no bets were placed")
		return
	}
	c.say(c.preText() + "Betting is now closed")

	names := make([]string, len(c.bets))
	for i, b := range c.bets {
		names[i] = b.Viewer
	}
	balances, err := c.store.Lookup(c.ctx, names)
	if err != nil {
		slog.Error("betting close lookup failed", slog.Any("err", err), slog.String("round", c.roundID))
		return
	}

	kept := c.bets[:0]
	var adjs []ledger.Adjustment
	for i, b := range c.bets {
		if balances[i].Points >= b.Amount {
			kept = append(kept, b)
			adjs = append(adjs, ledger.Adjustment{Op: ledger.OpSubtract, Name: b.Viewer, Amount: b.Amount})
		}
	}
	c.bets = kept

	if err := c.store.Apply(c.ctx, adjs...); err != nil {
		slog.Error("betting debit failed", slog.Any("err", err), slog.String("round", c.roundID))
	}
}

// settleBetting pays out a closed round. The losing pot is split among
// entries on the winning option proportionally to stake (integer floor);
// each winner is credited stake plus share. If nobody bet the winning
// option, all debited stakes are refunded. Clears the payout-pending flag
// either way so a new round can open. Called with mu held.
func (c *Currency) settleBetting(option string) {
	if !c.payoutPending {
		return
	}
	if c.mode == ModeBetting {
		c.say(c.preText() + "Close betting before picking a winner")
		return
	}
	matched := ""
	for _, opt := range c.board {
		if strings.EqualFold(opt, option) {
			matched = opt
			break
		}
	}
	if matched == "" {
		c.say(c.preText() + "No such betting option: " + option)
		return
	}

	var winners []BetEntry
	winningTotal, losingTotal := 0, 0
	for _, b := range c.bets {
		if b.Option == matched {
			winners = append(winners, b)
			winningTotal += b.Amount
		} else {
			losingTotal += b.Amount
		}
	}

	var adjs []ledger.Adjustment
	switch {
	case len(c.bets) == 0:
		c.say(c.preText() + "Betting round settled, no bets to pay out")
	case len(winners) == 0:
		for _, b := range c.bets {
			adjs = append(adjs, ledger.Adjustment{Op: ledger.OpAdd, Name: b.Viewer, Amount: b.Amount})
		}
		c.say(c.preText() + fmt.Sprintf("No winning bets on %s, refunding %d bets", matched, len(c.bets)))
	default:
		for _, w := range winners {
			share := w.Amount * losingTotal / winningTotal
			adjs = append(adjs, ledger.Adjustment{Op: ledger.OpAdd, Name: w.Viewer, Amount: w.Amount + share})
		}
		c.say(c.preText() + fmt.Sprintf("Betting payout complete: %s wins, %d winners share a pot of %d", matched, len(winners), winningTotal+losingTotal))
	}

	if err := c.store.Apply(c.ctx, adjs...); err != nil {
		slog.Error("betting payout failed", slog.Any("err", err), slog.String("round", c.roundID))
	}
	slog.Info("betting round settled", slog.String("round", c.roundID), slog.String("winner", matched), slog.Int("winners", len(winners)))

	c.payoutPending = false
	c.board = nil
	c.bets = nil
}
