package consumers

import (
	"context"
	"log/slog"

	"kassa/internal/config"
	"kassa/internal/messaging"
	"kassa/internal/models"
)

// ConsumerService is the audit-trail observer. It only sees committed
// events and never participates in reservation correctness.
type ConsumerService struct {
	nats     *messaging.NATSClient
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	return &ConsumerService{
		nats:     natsClient,
		handlers: NewHandlers(),
	}, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS audit consumers...")

	if _, err := cs.nats.SubscribeQueue(models.EventReservationCreated, "audit", cs.handlers.HandleReservationCreated); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventPaymentConfirmed, "audit", cs.handlers.HandlePaymentConfirmed); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventReservationExpired, "audit", cs.handlers.HandleReservationExpired); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventSeatReleased, "audit", cs.handlers.HandleSeatReleased); err != nil {
		return err
	}

	slog.Info("All audit consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
			return err
		}
	}

	return nil
}
