package currency

import (
	"testing"
)

func TestAuctionBiddingRules(t *testing.T) {
	c, store, _ := newTestEngine(map[string]int{"bob": 100, "alice": 100, "carol": 5})

	chat(c, "streamer", "!coins auction open")
	chat(c, "bob", "!bid 10")
	chat(c, "alice", "!bid 10") // amount already held by bob
	chat(c, "carol", "!bid 50") // exceeds carol's balance
	chat(c, "alice", "!bid 20")
	chat(c, "bob", "!bid 5") // not a raise

	c.mu.Lock()
	bids := append([]Bid(nil), c.bids...)
	c.mu.Unlock()
	if len(bids) != 2 {
		t.Fatalf("bids = %v, want bob and alice only", bids)
	}
	if bids[0] != (Bid{Viewer: "Bob", Amount: 10}) {
		t.Errorf("bids[0] = %v", bids[0])
	}
	if bids[1] != (Bid{Viewer: "Alice", Amount: 20}) {
		t.Errorf("bids[1] = %v", bids[1])
	}
	if store.lookupCount() != 5 {
		t.Errorf("lookups = %d, want one per bid attempt", store.lookupCount())
	}
}

func TestAuctionRaiseOwnBid(t *testing.T) {
	c, _, _ := newTestEngine(map[string]int{"bob": 100})

	chat(c, "streamer", "!coins auction open")
	chat(c, "bob", "!bid 10")
	chat(c, "bob", "!bid 25")

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.bids) != 1 || c.bids[0].Amount != 25 {
		t.Errorf("bids = %v, want single raised bid of 25", c.bids)
	}
}

func TestAuctionCloseDebitsWinner(t *testing.T) {
	c, store, queue := newTestEngine(map[string]int{"bob": 100, "alice": 100})

	chat(c, "streamer", "!coins auction open")
	chat(c, "bob", "!bid 10")
	chat(c, "alice", "!bid 20")
	chat(c, "streamer", "!coins auction close")

	if !queue.contains("Auction closed, Winner: Alice @ 20") {
		t.Errorf("missing winner announcement: %v", queue.texts())
	}
	if got := store.points("alice"); got != 80 {
		t.Errorf("alice = %d, want 80", got)
	}
	if got := store.points("bob"); got != 100 {
		t.Errorf("bob = %d, want 100 (losers pay nothing)", got)
	}
	if c.Mode() != ModeIdle {
		t.Errorf("mode = %v after close", c.Mode())
	}
}

func TestAuctionCloseWithoutBids(t *testing.T) {
	c, _, queue := newTestEngine(nil)

	chat(c, "streamer", "!coins auction close")
	if !queue.contains("Auction is already closed") {
		t.Errorf("missing closed notice: %v", queue.texts())
	}

	chat(c, "streamer", "!coins auction open")
	chat(c, "streamer", "!coins auction close")
	if !queue.contains("Auction closed, no bidders to pick a winner") {
		t.Errorf("missing empty close notice: %v", queue.texts())
	}
}

func TestAuctionDrawPromotesNextBidder(t *testing.T) {
	c, store, queue := newTestEngine(map[string]int{"bob": 100, "alice": 100})

	chat(c, "streamer", "!coins auction open")
	chat(c, "bob", "!bid 15")
	chat(c, "alice", "!bid 20")
	chat(c, "streamer", "!coins auction close")

	// alice paid 20; redraw refunds her and charges bob
	chat(c, "streamer", "!coins auction draw")
	if !queue.contains("Drawing the next highest bid: Bob @ 15") {
		t.Errorf("missing redraw announcement: %v", queue.texts())
	}
	if got := store.points("alice"); got != 100 {
		t.Errorf("alice after refund = %d, want 100", got)
	}
	if got := store.points("bob"); got != 85 {
		t.Errorf("bob after redraw = %d, want 85", got)
	}

	// no bidders left: refund bob and apologize
	chat(c, "streamer", "!coins auction draw")
	if got := store.points("bob"); got != 100 {
		t.Errorf("bob after final refund = %d, want 100", got)
	}
}

func TestAuctionCancelDiscardsWithoutDebit(t *testing.T) {
	c, store, queue := newTestEngine(map[string]int{"bob": 100})

	chat(c, "streamer", "!coins auction cancel")
	if !queue.contains("Auction is not opened") {
		t.Errorf("missing not-opened notice: %v", queue.texts())
	}

	chat(c, "streamer", "!coins auction open")
	chat(c, "bob", "!bid 10")
	chat(c, "streamer", "!coins auction cancel")
	if !queue.contains("Auction has been cancelled") {
		t.Errorf("missing cancel notice: %v", queue.texts())
	}
	if got := store.points("bob"); got != 100 {
		t.Errorf("bob = %d, cancel must not debit", got)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.bids) != 0 || c.prevWinner != nil {
		t.Error("cancel should clear all bid state")
	}
}

func TestAuctionFloodAnnouncesImmediately(t *testing.T) {
	balances := make(map[string]int)
	viewers := []string{"v0", "v1", "v2", "v3", "v4", "v5", "v6", "v7", "v8", "v9"}
	for _, v := range viewers {
		balances[v] = 1000
	}
	c, _, queue := newTestEngine(balances)

	chat(c, "streamer", "!coins auction open")
	base := queue.count()
	amounts := []string{"10", "20", "30", "40", "50", "60", "70", "80", "90", "100"}
	for i, v := range viewers {
		chat(c, v, "!bid "+amounts[i])
	}
	if queue.count() != base+1 {
		t.Fatalf("expected one immediate announcement at the flood cap, got %d", queue.count()-base)
	}
	if !queue.contains("Highest bid, V9 @ 100") {
		t.Errorf("missing immediate highest-bid announcement: %v", queue.texts())
	}
}
