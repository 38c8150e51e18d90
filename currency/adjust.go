package currency

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/onnwee/coinbot/irc"
	"github.com/onnwee/coinbot/ledger"
)

// adjust handles the broadcaster add/remove/push commands. Add and remove
// touch existing viewers only; push upserts a new row. Called with mu held.
func (c *Currency) adjust(method string, amount int, viewer string) {
	display := irc.Capitalize(viewer)

	if method == "push" {
		if err := c.store.Deposit(c.ctx, []string{viewer}, amount); err != nil {
			slog.Error("currency push failed", slog.Any("err", err), slog.String("viewer", viewer))
			return
		}
		c.say(c.preText() + fmt.Sprintf("Added %d %s to %s", amount, c.opts.CurrencyName, display))
		return
	}

	exists, err := c.store.Exists(c.ctx, viewer)
	if err != nil {
		slog.Error("currency adjust lookup failed", slog.Any("err", err), slog.String("viewer", viewer))
		return
	}
	if !exists {
		c.say(c.preText() + "User was not found, use the push command to add a new user")
		return
	}

	switch method {
	case "add":
		err = c.store.Apply(c.ctx, ledger.Adjustment{Op: ledger.OpAdd, Name: viewer, Amount: amount})
		if err == nil {
			c.say(c.preText() + fmt.Sprintf("Added %d %s to %s", amount, c.opts.CurrencyName, display))
		}
	case "remove":
		err = c.store.Apply(c.ctx, ledger.Adjustment{Op: ledger.OpSubtract, Name: viewer, Amount: amount})
		if err == nil {
			c.say(c.preText() + fmt.Sprintf("Removed %d %s from %s", amount, c.opts.CurrencyName, display))
		}
	}
	if err != nil {
		slog.Error("currency adjust failed", slog.Any("err", err), slog.String("viewer", viewer))
	}
}

// requestsOn re-enables balance requests. Ignored while a game mode holds
// the request profile. Called with mu held.
func (c *Currency) requestsOn() {
	if c.mode != ModeIdle {
		return
	}
	c.requestsOff = false
	c.stopOffRepeat()
	c.say(c.preText() + "Currency requests are now enabled. Type !" + lowerName(c.opts.CurrencyName) + " to view your total")
}

// requestsOffCmd disables balance requests, optionally toggling the
// periodic off-site reminder. Called with mu held.
func (c *Currency) requestsOffCmd(args []string) {
	if c.mode != ModeIdle {
		return
	}
	if !c.requestsOff {
		if c.opts.Website != "" {
			c.say(c.preText() + "Currency requests have been disabled. To view your " + c.opts.CurrencyName + " please visit " + c.opts.Website)
		} else {
			c.say(c.preText() + "Currency requests have been disabled")
		}
	}
	if len(args) >= 2 && args[0] == "repeat" {
		switch args[1] {
		case "on":
			c.say("+ Periodic notification enabled")
			c.startOffRepeat()
		case "off":
			c.say("+ Periodic notification disabled")
			c.stopOffRepeat()
		}
	}
	c.requestsOff = true
}

// requestTimerCmd adjusts the aggregation debounce window and its reset
// behavior. Called with mu held.
func (c *Currency) requestTimerCmd(args []string) {
	if len(args) == 0 {
		return
	}
	secs, err := strconv.Atoi(args[0])
	if err != nil {
		return
	}
	if secs < 3 {
		c.say(c.preText() + "Timer cannot be less than 3 seconds")
		return
	}
	c.respDelay = time.Duration(secs) * time.Second
	c.say(c.preText() + fmt.Sprintf("Currency totals will now show %d seconds after request", secs))
	if len(args) >= 3 && args[1] == "reset" {
		switch args[2] {
		case "on":
			c.say("+ Timer will now reset after each new request")
			c.respReset = true
		case "off":
			c.say("+ Timer will not reset after each new request")
			c.respReset = false
		}
	}
}

func (c *Currency) startOffRepeat() {
	c.stopOffRepeat()
	ticker := time.NewTicker(defaultToggleTimer)
	done := make(chan struct{})
	c.offRepeat, c.offDone = ticker, done
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				c.mu.Lock()
				if c.requestsOff && c.opts.Website != "" {
					c.say(c.preText() + "To view your " + c.opts.CurrencyName + " please visit " + c.opts.Website)
				}
				c.mu.Unlock()
			}
		}
	}()
}

// stopOffRepeat clears the periodic reminder; stopping an inactive ticker
// is a no-op. Called with mu held.
func (c *Currency) stopOffRepeat() {
	if c.offRepeat != nil {
		c.offRepeat.Stop()
		close(c.offDone)
		c.offRepeat, c.offDone = nil, nil
	}
}

func lowerName(name string) string {
	return strings.ToLower(name)
}
