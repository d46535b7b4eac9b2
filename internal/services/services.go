// Package services holds the command handlers behind every user action. They
// validate input, enforce the domain rules, talk to the store ports, keep the
// per-user memoization coherent and publish domain events.
package services

import (
	"context"
	"errors"
	"fmt"

	"walletgenie/internal/amqp"
	"walletgenie/internal/core"
	"walletgenie/internal/log"
)

// EventPublisher is the outbound event port. *amqp.Client implements it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev *amqp.Event) error
}

// storeErr passes domain errors through and marks everything else as a
// backend failure.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, core.ErrNotFound),
		errors.Is(err, core.ErrAlreadyExists),
		errors.Is(err, core.ErrLimitReached),
		errors.Is(err, core.ErrValidation),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, core.ErrBackendUnavailable, err)
}

// publish sends ev when a publisher is configured. Failures are logged; the
// write that triggered the event has already succeeded.
func publish(ctx context.Context, pub EventPublisher, logger *log.Logger, ev *amqp.Event) {
	if pub == nil {
		return
	}
	if err := pub.PublishEvent(ctx, ev); err != nil {
		logger.WarnContext(ctx, "Failed to publish event",
			log.FieldEventType, ev.Type,
			log.FieldUserID, ev.UserID,
			log.FieldError, err)
	}
}

func componentLogger(logger *log.Logger, component string) *log.Logger {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return logger.WithComponent(component)
}
