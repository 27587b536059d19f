package service

import (
	"context"
	"log/slog"
	"time"
)

// PayoutSweeper periodically settles paid orders whose payout split failed.
type PayoutSweeper struct {
	payoutService PayoutService
	interval      time.Duration
	batchSize     int
	logger        *slog.Logger
}

func NewPayoutSweeper(payoutService PayoutService, interval time.Duration, batch int, logger *slog.Logger) *PayoutSweeper {
	return &PayoutSweeper{
		payoutService: payoutService,
		interval:      interval,
		batchSize:     batch,
		logger:        logger,
	}
}

func (w *PayoutSweeper) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("payout sweep disabled")
		return
	}
	go w.loop(ctx)
}

func (w *PayoutSweeper) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		settled, err := w.payoutService.ReconcileMissingPayouts(ctx, w.batchSize)
		if err != nil {
			w.logger.Error("payout sweep failed", "err", err)
		}
		if settled > 0 {
			w.logger.Info("payout sweep settled orders", "orders", settled)
		}
	}
}
