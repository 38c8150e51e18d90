package currency

import (
	"testing"
)

func TestRaffleOpenAnnouncesPricing(t *testing.T) {
	c, _, queue := newTestEngine(nil)

	chat(c, "streamer", "!coins raffle open")
	if !queue.contains("Raffle opened") {
		t.Errorf("missing open notice: %v", queue.texts())
	}
	if !queue.contains("+ Tickets cost 10 coins / Maximum of 10 tickets per viewer") {
		t.Errorf("missing pricing line: %v", queue.texts())
	}
}

func TestRafflePricingOverrideIsSessionScoped(t *testing.T) {
	c, _, queue := newTestEngine(nil)

	chat(c, "streamer", "!coins raffle open 5 2")
	if !queue.contains("+ Tickets cost 5 coins / Maximum of 2 tickets per viewer") {
		t.Errorf("missing override pricing: %v", queue.texts())
	}
	chat(c, "streamer", "!coins raffle close")

	// reopening without arguments restores the held-aside defaults
	chat(c, "streamer", "!coins raffle open")
	if !queue.contains("+ Tickets cost 10 coins / Maximum of 10 tickets per viewer") {
		t.Errorf("defaults not restored: %v", queue.texts())
	}
}

func TestBuyTicketBoundsAndReplacement(t *testing.T) {
	c, _, _ := newTestEngine(map[string]int{"alice": 100})

	chat(c, "streamer", "!coins raffle open")
	chat(c, "alice", "!ticket 3")
	chat(c, "alice", "!ticket 99") // above the per-viewer maximum, ignored
	c.mu.Lock()
	if len(c.tickets) != 1 || c.tickets[0].Tickets != 3 {
		t.Errorf("tickets = %v, want alice at 3", c.tickets)
	}
	c.mu.Unlock()

	chat(c, "alice", "!ticket 5") // replacement, not accumulation
	c.mu.Lock()
	if c.tickets[0].Tickets != 5 {
		t.Errorf("tickets = %v, want alice at 5", c.tickets)
	}
	c.mu.Unlock()

	chat(c, "alice", "!ticket 0") // zero withdraws the request
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickets) != 0 {
		t.Errorf("tickets = %v, want empty", c.tickets)
	}
}

func TestCloseRaffleExcludesUnaffordableRequests(t *testing.T) {
	c, store, queue := newTestEngine(map[string]int{"alice": 30, "bob": 5})

	chat(c, "streamer", "!coins raffle open")
	chat(c, "alice", "!ticket 3") // 30 coins, exactly affordable
	chat(c, "bob", "!ticket 1")   // 10 coins, bob has 5
	chat(c, "streamer", "!coins raffle close")

	if !queue.contains("Raffle closed, 3 tickets purchased!") {
		t.Errorf("missing close summary: %v", queue.texts())
	}
	if !queue.contains("+ Winner: Alice (3 tickets purchased)") {
		t.Errorf("alice must win a pool she fills alone: %v", queue.texts())
	}
	if got := store.points("alice"); got != 0 {
		t.Errorf("alice = %d, want 0", got)
	}
	if got := store.points("bob"); got != 5 {
		t.Errorf("bob = %d, want 5 (excluded whole request)", got)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pool) != 2 {
		t.Errorf("pool after draw = %d entries, want 2 (one winning ticket removed)", len(c.pool))
	}
}

func TestCloseRaffleWithoutTickets(t *testing.T) {
	c, _, queue := newTestEngine(nil)

	chat(c, "streamer", "!coins raffle close")
	if !queue.contains("Raffle is already closed") {
		t.Errorf("missing closed notice: %v", queue.texts())
	}

	chat(c, "streamer", "!coins raffle open")
	chat(c, "streamer", "!coins raffle close")
	if !queue.contains("Raffle closed, no tickets to draw a winner") {
		t.Errorf("missing empty close notice: %v", queue.texts())
	}
}

func TestDrawNextTicketRedrawsFromPool(t *testing.T) {
	c, store, queue := newTestEngine(map[string]int{"alice": 100})

	chat(c, "streamer", "!coins raffle open")
	chat(c, "alice", "!ticket 4")
	chat(c, "streamer", "!coins raffle close")
	if got := store.points("alice"); got != 60 {
		t.Errorf("alice = %d, want 60", got)
	}

	chat(c, "streamer", "!coins raffle draw")
	if !queue.contains("Drawing next ticket") {
		t.Errorf("missing redraw notice: %v", queue.texts())
	}
	if got := store.points("alice"); got != 60 {
		t.Errorf("alice = %d, redraw must not debit", got)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pool) != 2 {
		t.Errorf("pool = %d entries, want 2", len(c.pool))
	}
}

func TestRestoreRaffleRecoversPreviousSession(t *testing.T) {
	c, _, queue := newTestEngine(map[string]int{"alice": 100})

	chat(c, "streamer", "!coins raffle open")
	chat(c, "alice", "!ticket 2")
	chat(c, "streamer", "!coins raffle close")

	// accidental reopen cleared the live state; restore brings it back
	chat(c, "streamer", "!coins raffle open")
	c.mu.Lock()
	if len(c.tickets) != 0 {
		t.Errorf("reopen should start empty, tickets = %v", c.tickets)
	}
	c.mu.Unlock()

	chat(c, "streamer", "!coins raffle restore")
	if !queue.contains("Previous raffle has been restored") {
		t.Errorf("missing restore notice: %v", queue.texts())
	}
	if c.Mode() != ModeIdle {
		t.Errorf("mode = %v, restore should close the session", c.Mode())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickets) != 1 || c.tickets[0].Tickets != 2 {
		t.Errorf("tickets = %v, want alice's request back", c.tickets)
	}
}

func TestRaffleCancelKeepsBalances(t *testing.T) {
	c, store, queue := newTestEngine(map[string]int{"alice": 100})

	chat(c, "streamer", "!coins raffle open")
	chat(c, "alice", "!ticket 5")
	chat(c, "streamer", "!coins raffle cancel")
	if !queue.contains("Raffle has been cancelled") {
		t.Errorf("missing cancel notice: %v", queue.texts())
	}
	if got := store.points("alice"); got != 100 {
		t.Errorf("alice = %d, cancel must not debit", got)
	}
}
