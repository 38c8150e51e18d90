package currency

// Exported entry points for the dashboard API. Each takes the engine lock and
// runs the same handler the chat commands do, so dashboard and chat actions
// serialize identically.

func (c *Currency) OpenAuction() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openAuction()
}

func (c *Currency) CloseAuction() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeAuction()
}

func (c *Currency) CancelAuction() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelAuction()
}

func (c *Currency) DrawNextBidder() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawNextBidder()
}

// OpenRaffle opens a raffle; pass cost and max as 0 to use the configured
// defaults.
func (c *Currency) OpenRaffle(cost, max int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openRaffle(cost, max)
}

func (c *Currency) CloseRaffle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeRaffle()
}

func (c *Currency) CancelRaffle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelRaffle()
}

func (c *Currency) RestoreRaffle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.restoreRaffle()
}

func (c *Currency) DrawNextTicket() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawNextTicket()
}

func (c *Currency) OpenBetting(options []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openBetting(options)
}

func (c *Currency) CloseBetting() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeBetting()
}

func (c *Currency) SettleBetting(option string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleBetting(option)
}
