package service

import (
	"context"
	"time"

	"github.com/okian/turnstile/internal/adapters/mq/queue"
	"github.com/okian/turnstile/internal/domain/model"
	"github.com/okian/turnstile/pkg/logger"
)

// poller refreshes the attendance counters on a ticker and whenever an
// outcome is shown. Results reach the loop as stats events.
type poller struct {
	gateway  Gateway
	inbox    queue.Queue
	interval time.Duration
	limit    int
	kick     chan struct{}
	logger   logger.Logger
}

func newPoller(gw Gateway, inbox queue.Queue, interval time.Duration, limit int, l logger.Logger) *poller {
	return &poller{
		gateway:  gw,
		inbox:    inbox,
		interval: interval,
		limit:    limit,
		kick:     make(chan struct{}, 1),
		logger:   l,
	}
}

// trigger asks for an immediate refresh. Requests coalesce.
func (p *poller) trigger() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

func (p *poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx)
		case <-p.kick:
			p.refresh(ctx)
		}
	}
}

func (p *poller) refresh(ctx context.Context) {
	stats, err := p.gateway.Stats(ctx)
	if err != nil {
		p.logger.Debug(ctx, "stats poll failed", logger.Error(err))
		return
	}
	e := model.Event{Kind: model.EventStats, Stats: stats}
	recent, err := p.gateway.Recent(ctx, p.limit)
	if err != nil {
		p.logger.Debug(ctx, "recent poll failed", logger.Error(err))
		e.RecentFailed = true
	}
	e.Recent = recent
	p.inbox.Enqueue(ctx, e)
}
