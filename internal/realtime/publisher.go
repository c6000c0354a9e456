package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/robocademy/inventory-backend/internal/stock"
	"github.com/robocademy/inventory-backend/pkg/logger"
)

// publisher is the pub/sub surface the stock publisher needs. The redis
// client satisfies it.
type publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// StockPublisher fans committed stock changes out on a pub/sub channel for
// dashboard clients.
type StockPublisher struct {
	pub     publisher
	channel string
	logg    *logger.Logger
}

// NewStockPublisher wires a publisher for the given channel.
func NewStockPublisher(pub publisher, channel string, logg *logger.Logger) (*StockPublisher, error) {
	if pub == nil {
		return nil, fmt.Errorf("publisher required")
	}
	if channel == "" {
		return nil, fmt.Errorf("channel required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &StockPublisher{pub: pub, channel: channel, logg: logg}, nil
}

// StockChanged publishes the update as JSON. Errors surface to the caller,
// which treats delivery as best-effort.
func (p *StockPublisher) StockChanged(ctx context.Context, update stock.StockUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encoding stock update: %w", err)
	}
	if err := p.pub.Publish(ctx, p.channel, payload); err != nil {
		return fmt.Errorf("publishing stock update: %w", err)
	}
	p.logg.Info(p.logg.WithFields(ctx, map[string]any{
		"channel": p.channel,
		"part_id": update.PartID,
	}), "stock update published")
	return nil
}
