package booking

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// SimulatedGateway approves every positive charge without moving money.
type SimulatedGateway struct {
	log zerolog.Logger
}

func NewSimulatedGateway(log zerolog.Logger) *SimulatedGateway {
	return &SimulatedGateway{log: log.With().Str("component", "payment").Logger()}
}

func (g *SimulatedGateway) Charge(ctx context.Context, p Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrPaymentDeclined)
	}
	if !p.Method.IsValid() {
		return fmt.Errorf("%w: unsupported method %q", ErrPaymentDeclined, p.Method)
	}
	g.log.Info().
		Str("customer_id", p.CustomerID).
		Float64("amount", p.Amount).
		Str("method", string(p.Method)).
		Msg("payment approved")
	return nil
}
