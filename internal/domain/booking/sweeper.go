package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically completes Confirmed bookings whose appointment is over.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	log      zerolog.Logger
}

func NewSweeper(svc *Service, interval time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		svc:      svc,
		interval: interval,
		log:      log.With().Str("component", "completion_sweeper").Logger(),
	}
}

// Run blocks until ctx is done. A non-positive interval disables the sweeper.
func (w *Sweeper) Run(ctx context.Context) {
	if w.interval <= 0 {
		w.log.Info().Msg("completion sweeper disabled")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Sweeper) sweep(ctx context.Context) {
	n, err := w.svc.CompleteDue(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("completion sweep failed")
		return
	}
	if n > 0 {
		w.log.Info().Int("completed", n).Msg("completion sweep finished")
	}
}
