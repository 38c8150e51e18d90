package currency

import "log/slog"

// guardOpen reports whether target may open, emitting the corrective chat
// notice when a sibling mode is active. Same-mode reopens are handled by
// each sub-machine. Called with mu held.
func (c *Currency) guardOpen(target Mode) bool {
	switch c.mode {
	case ModeIdle:
		return true
	case target:
		return true
	case ModeAuction:
		c.say(c.preText() + "You must close the auction before you can open " + withArticle(target))
	case ModeRaffle:
		c.say(c.preText() + "You must close the raffle before you can open " + withArticle(target))
	case ModeBetting:
		c.say(c.preText() + "Betting must be closed before you can open " + withArticle(target))
	}
	return false
}

func withArticle(m Mode) string {
	switch m {
	case ModeAuction:
		return "an auction"
	case ModeRaffle:
		return "a raffle"
	default:
		return "betting"
	}
}

// enterMode snapshots the current request profile (unless a sibling already
// captured the baseline) and forces the fast always-on profile suited to
// rapid bid/ticket flow. Called with mu held.
func (c *Currency) enterMode(m Mode) {
	if c.saved == nil {
		c.saved = &requestProfile{off: c.requestsOff, delay: c.respDelay, reset: c.respReset}
	}
	c.requestsOff = false
	c.respDelay = fastRespDelay
	c.respReset = true
	c.setMode(m)
	slog.Info("game mode opened", slog.String("mode", m.String()))
}

// exitMode restores the saved request profile and returns to idle. Called
// with mu held.
func (c *Currency) exitMode() {
	if c.saved != nil {
		c.requestsOff = c.saved.off
		c.respDelay = c.saved.delay
		c.respReset = c.saved.reset
		c.saved = nil
	}
	prev := c.mode
	c.setMode(ModeIdle)
	slog.Info("game mode closed", slog.String("mode", prev.String()))
}
