package currency

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/onnwee/coinbot/telemetry"
)

const liveStatusInterval = 30 * time.Second

// LiveChecker reports whether the channel is currently streaming.
type LiveChecker interface {
	IsLive(ctx context.Context) (bool, error)
}

// LineSender issues raw lines on the transport (used for WHO queries).
type LineSender interface {
	Send(line string, silent bool)
}

// RunHandout pays tracked viewers while the channel is live: it polls the
// live status, issues a WHO query every payrate interval, and the resulting
// end-of-WHO reply triggers the deposit (see flushHandout). Blocks until
// ctx is cancelled.
func (c *Currency) RunHandout(ctx context.Context, live LiveChecker, transport LineSender, channel string, payrate time.Duration) {
	if payrate <= 0 {
		payrate = 30 * time.Minute
	}
	statusTicker := time.NewTicker(liveStatusInterval)
	payTicker := time.NewTicker(payrate)
	defer statusTicker.Stop()
	defer payTicker.Stop()

	slog.Info("handout started", slog.Duration("payrate", payrate), slog.String("channel", channel))
	for {
		select {
		case <-ctx.Done():
			return
		case <-statusTicker.C:
			isLive, err := live.IsLive(ctx)
			if err != nil {
				slog.Debug("live status check failed", slog.Any("err", err))
				continue
			}
			c.mu.Lock()
			c.streaming = isLive
			if !isLive {
				c.viewers = make(map[string]struct{})
				c.giveCoins = false
			}
			c.mu.Unlock()
		case <-payTicker.C:
			c.mu.Lock()
			c.giveCoins = c.streaming
			streaming := c.streaming
			c.mu.Unlock()
			if streaming {
				transport.Send("WHO #"+channel, true)
			}
		}
	}
}

// trackViewer records an active viewer (WHO reply or chatting) while the
// stream is live.
func (c *Currency) trackViewer(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.streaming || name == "" {
		return
	}
	c.viewers[strings.ToLower(name)] = struct{}{}
}

// flushHandout deposits one point per tracked viewer; triggered by the
// end-of-WHO reply after RunHandout issued the query.
func (c *Currency) flushHandout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.giveCoins {
		return
	}
	c.giveCoins = false
	names := make([]string, 0, len(c.viewers))
	for v := range c.viewers {
		names = append(names, v)
	}
	c.viewers = make(map[string]struct{})
	if len(names) == 0 {
		return
	}
	if err := c.store.Deposit(c.ctx, names, 1); err != nil {
		slog.Error("handout deposit failed", slog.Any("err", err), slog.Int("viewers", len(names)))
		return
	}
	slog.Info("handout paid", slog.Int("viewers", len(names)))
	telemetry.IncHandoutRounds()
}
